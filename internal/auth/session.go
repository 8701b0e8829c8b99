package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"

	defaultMusicVolume = 0.5
	defaultMusicTheme  = "default"
)

// ErrInvalidPreferences is returned when preferences fail validation
var ErrInvalidPreferences = errors.New("invalid preferences")

// Preferences are the per-visitor settings kept across visits
type Preferences struct {
	Theme        string  `json:"theme"`
	MusicEnabled bool    `json:"music_enabled"`
	MusicVolume  float64 `json:"music_volume"`
	MusicTheme   string  `json:"music_theme"`
}

// DefaultPreferences returns the settings of a first-time visitor
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:       ThemeDark,
		MusicVolume: defaultMusicVolume,
		MusicTheme:  defaultMusicTheme,
	}
}

// Validate checks the theme and volume range
func (p Preferences) Validate() error {
	if p.Theme != ThemeDark && p.Theme != ThemeLight {
		return fmt.Errorf("%w: theme %q", ErrInvalidPreferences, p.Theme)
	}
	if p.MusicVolume < 0 || p.MusicVolume > 1 {
		return fmt.Errorf("%w: volume %v out of range", ErrInvalidPreferences, p.MusicVolume)
	}
	if p.MusicTheme == "" {
		return fmt.Errorf("%w: empty music theme", ErrInvalidPreferences)
	}
	return nil
}

// ToggledTheme returns the preferences with the other theme selected
func (p Preferences) ToggledTheme() Preferences {
	if p.Theme == ThemeLight {
		p.Theme = ThemeDark
	} else {
		p.Theme = ThemeLight
	}
	return p
}

// SessionManager issues the visitor id cookie and stores preferences
type SessionManager struct {
	cookieName      string // Name of the visitor id cookie
	prefsCookieName string // Name of the preferences cookie
	cookiePath      string // Cookie path (always "/")
	cookieDomain    string // Cookie domain (empty for current domain)
	secure          bool   // Secure flag (true in production)
	httpOnly        bool   // HttpOnly flag
	maxAge          int    // Cookie lifetime in seconds
}

// NewSessionManager creates a new session manager with the specified configuration.
// Preferences are stored in a separate "preferences" cookie.
func NewSessionManager(cookieName string, secure bool, maxAge int) *SessionManager {
	return &SessionManager{
		cookieName:      cookieName,
		prefsCookieName: "preferences",
		cookiePath:      "/",
		secure:          secure,
		httpOnly:        true,
		maxAge:          maxAge,
	}
}

// EnsureVisitor returns the visitor id, issuing a new one when the cookie is
// missing or not a UUID
func (sm *SessionManager) EnsureVisitor(w http.ResponseWriter, r *http.Request) string {
	if id, err := sm.GetVisitor(r); err == nil {
		return id
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    id,
		Path:     sm.cookiePath,
		Domain:   sm.cookieDomain,
		MaxAge:   sm.maxAge,
		Secure:   sm.secure,
		HttpOnly: sm.httpOnly,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// GetVisitor retrieves the visitor id from the cookie
func (sm *SessionManager) GetVisitor(r *http.Request) (string, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		return "", fmt.Errorf("visitor not found: %w", err)
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return "", fmt.Errorf("malformed visitor id: %w", err)
	}
	return cookie.Value, nil
}

// GetPreferences returns the stored preferences.
// Missing or corrupted cookies yield the defaults.
func (sm *SessionManager) GetPreferences(r *http.Request) Preferences {
	cookie, err := r.Cookie(sm.prefsCookieName)
	if err != nil {
		return DefaultPreferences()
	}

	decoded, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return DefaultPreferences()
	}

	prefs := DefaultPreferences()
	if err := json.Unmarshal(decoded, &prefs); err != nil {
		return DefaultPreferences()
	}
	if prefs.Validate() != nil {
		return DefaultPreferences()
	}
	return prefs
}

// SetPreferences validates and stores preferences
func (sm *SessionManager) SetPreferences(w http.ResponseWriter, prefs Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}

	jsonData, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sm.prefsCookieName,
		Value:    base64.URLEncoding.EncodeToString(jsonData),
		Path:     sm.cookiePath,
		Domain:   sm.cookieDomain,
		MaxAge:   sm.maxAge,
		Secure:   sm.secure,
		HttpOnly: sm.httpOnly,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearPreferences removes the preferences cookie
func (sm *SessionManager) ClearPreferences(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.prefsCookieName,
		Value:    "",
		Path:     sm.cookiePath,
		Domain:   sm.cookieDomain,
		MaxAge:   -1,
		Secure:   sm.secure,
		HttpOnly: sm.httpOnly,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
	})
}
