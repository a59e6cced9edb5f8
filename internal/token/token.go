// Package token manages the opaque identity token that scopes all remote data
// to one space. There is no server-side session: whoever holds the token has
// full access to the space.
package token

import (
	"encoding/base64"
	"io"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"listshare/internal/kv"
)

const (
	// StorageKey is the key under which the encoded token is stored.
	StorageKey = "space_token"

	// URLParam is the query parameter carrying an encoded token in share links.
	URLParam = "space_token"
)

// PageURL is the query-parameter view of the current location.
type PageURL interface {
	Param(name string) string
	DelParam(name string)
}

// URLParams adapts a *url.URL to PageURL. DelParam rewrites the URL in place.
type URLParams struct {
	URL *url.URL
}

func (u URLParams) Param(name string) string {
	if u.URL == nil {
		return ""
	}
	return u.URL.Query().Get(name)
}

func (u URLParams) DelParam(name string) {
	if u.URL == nil {
		return
	}
	q := u.URL.Query()
	q.Del(name)
	u.URL.RawQuery = q.Encode()
}

// Encode obfuscates a token for storage and URLs.
// This is not encryption.
func Encode(token string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(url.QueryEscape(token)))
}

// Decode reverses Encode. It also accepts padded standard base64 so links
// made by the web client keep working. Malformed input decodes to "".
func Decode(encoded string) string {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return ""
	}
	var raw []byte
	var err error
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding, base64.StdEncoding, base64.RawStdEncoding} {
		raw, err = enc.DecodeString(encoded)
		if err == nil {
			break
		}
	}
	if err != nil {
		return ""
	}
	token, err := url.QueryUnescape(string(raw))
	if err != nil {
		return ""
	}
	return token
}

// Manager creates, resolves, and clears the space token.
type Manager struct {
	store  kv.Store
	page   PageURL
	logger *log.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithPage sets the location consulted for a shared token.
func WithPage(page PageURL) Option {
	return func(m *Manager) { m.page = page }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager returns a Manager persisting to store.
func NewManager(store kv.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate returns a fresh random token without persisting it.
func (m *Manager) Generate() string {
	return uuid.NewString()
}

// Create generates a token, persists it, and returns the plaintext token.
func (m *Manager) Create() (string, error) {
	token := m.Generate()
	if err := m.Save(token); err != nil {
		return "", err
	}
	return token, nil
}

// Save persists a plaintext token.
func (m *Manager) Save(token string) error {
	return m.store.Set(StorageKey, Encode(token))
}

// Token resolves the current token. A token in the page URL wins: it is
// persisted and stripped from the URL. Otherwise the stored token is used.
func (m *Manager) Token() (string, bool) {
	if m.page != nil {
		if encoded := m.page.Param(URLParam); encoded != "" {
			if token := Decode(encoded); token != "" {
				if err := m.Save(token); err != nil {
					m.logger.Warn("failed to persist shared token", "err", err)
				}
				m.page.DelParam(URLParam)
				return token, true
			}
			m.logger.Debug("ignoring undecodable token in url")
		}
	}

	encoded, ok, err := m.store.Get(StorageKey)
	if err != nil {
		m.logger.Debug("failed to read stored token", "err", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	token := Decode(encoded)
	if token == "" {
		m.logger.Debug("ignoring undecodable stored token")
		return "", false
	}
	return token, true
}

// Clear removes the stored token.
func (m *Manager) Clear() error {
	return m.store.Remove(StorageKey)
}

// ShareURL appends the current token to base. Without a stored token base is
// returned unchanged.
func (m *Manager) ShareURL(base string) string {
	encoded, ok, err := m.store.Get(StorageKey)
	if err != nil || !ok {
		return base
	}
	token := Decode(encoded)
	if token == "" {
		return base
	}
	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
	}
	return base + separator + URLParam + "=" + Encode(token)
}
