package middleware

import (
	"context"
	"net/http"

	"utdr-guide/internal/auth"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// VisitorIDKey is the context key for the visitor ID
	VisitorIDKey ContextKey = "visitorID"
	// PreferencesKey is the context key for the visitor's preferences
	PreferencesKey ContextKey = "preferences"
)

// VisitorMiddleware attaches the visitor identity and preferences to requests
type VisitorMiddleware struct {
	sessionManager *auth.SessionManager
}

// NewVisitorMiddleware creates a new VisitorMiddleware instance
func NewVisitorMiddleware(sessionManager *auth.SessionManager) *VisitorMiddleware {
	return &VisitorMiddleware{
		sessionManager: sessionManager,
	}
}

// Visitor issues a visitor cookie when needed and stores the visitor ID and
// preferences in the request context. Every page is public, so nothing is
// ever rejected here.
func (m *VisitorMiddleware) Visitor(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visitorID := m.sessionManager.EnsureVisitor(w, r)
		prefs := m.sessionManager.GetPreferences(r)

		ctx := context.WithValue(r.Context(), VisitorIDKey, visitorID)
		ctx = context.WithValue(ctx, PreferencesKey, prefs)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetVisitorID retrieves the visitor ID from the request context
func GetVisitorID(ctx context.Context) string {
	visitorID, ok := ctx.Value(VisitorIDKey).(string)
	if !ok {
		return ""
	}
	return visitorID
}

// GetPreferences retrieves the visitor's preferences from the request context
func GetPreferences(ctx context.Context) auth.Preferences {
	prefs, ok := ctx.Value(PreferencesKey).(auth.Preferences)
	if !ok {
		return auth.DefaultPreferences()
	}
	return prefs
}
