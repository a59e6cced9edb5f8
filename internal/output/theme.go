package output

import (
	"fmt"
	"strings"

	"listshare/internal/kv"
)

// ThemeKey is the storage key of the theme preference.
const ThemeKey = "theme"

// Theme is the color scheme preference.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark", case-insensitively.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return "", fmt.Errorf("unknown theme: %s (want light or dark)", s)
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// LoadTheme reads the stored preference. Missing or unreadable values mean Light.
func LoadTheme(store kv.Store) Theme {
	raw, ok, err := store.Get(ThemeKey)
	if err != nil || !ok {
		return Light
	}
	t, err := ParseTheme(raw)
	if err != nil {
		return Light
	}
	return t
}

// SaveTheme stores the preference.
func SaveTheme(store kv.Store, t Theme) error {
	return store.Set(ThemeKey, string(t))
}
