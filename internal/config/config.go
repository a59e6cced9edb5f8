// Package config handles the XDG configuration directory and backend settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// AppName is the application directory name.
	AppName = "listshare"

	// StateFile holds the space token and theme preference.
	StateFile = "state.json"

	// DefaultShareURL is the base of share links when LISTSHARE_SHARE_URL is unset.
	DefaultShareURL = "https://listshare.app/"
)

// Backend selects the remote store implementation.
type Backend string

const (
	BackendREST     Backend = "rest"
	BackendPostgres Backend = "postgres"
)

// Environment variables read by New.
const (
	EnvBackend     = "LISTSHARE_BACKEND"
	EnvRESTURL     = "LISTSHARE_REST_URL"
	EnvAPIKey      = "LISTSHARE_API_KEY"
	EnvDatabaseURL = "LISTSHARE_DATABASE_URL"
	EnvShareURL    = "LISTSHARE_SHARE_URL"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	Backend     Backend
	RESTURL     string
	APIKey      string
	DatabaseURL string
	ShareURL    string
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/listshare or $HOME/.config/listshare.
// Backend settings come from the environment.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:         dir,
		Backend:     BackendREST,
		RESTURL:     strings.TrimSpace(os.Getenv(EnvRESTURL)),
		APIKey:      strings.TrimSpace(os.Getenv(EnvAPIKey)),
		DatabaseURL: strings.TrimSpace(os.Getenv(EnvDatabaseURL)),
		ShareURL:    strings.TrimSpace(os.Getenv(EnvShareURL)),
	}
	if cfg.ShareURL == "" {
		cfg.ShareURL = DefaultShareURL
	}
	if raw := strings.TrimSpace(os.Getenv(EnvBackend)); raw != "" {
		switch b := Backend(strings.ToLower(raw)); b {
		case BackendREST, BackendPostgres:
			cfg.Backend = b
		default:
			return nil, fmt.Errorf("invalid %s: %s (want rest or postgres)", EnvBackend, raw)
		}
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// StatePath returns the path to the local state file.
func (c *Config) StatePath() string {
	return filepath.Join(c.Dir, StateFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}
