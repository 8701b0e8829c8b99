package dialog

import (
	"time"

	"utdr-guide/internal/cache"
)

// Registry keeps one Service per visitor and forgets idle visitors
type Registry struct {
	services *cache.Cache[*Service]
}

// NewRegistry creates a registry whose entries expire after idle
func NewRegistry(idle time.Duration) *Registry {
	return &Registry{services: cache.New[*Service](idle)}
}

// For returns the dialog service of a visitor, creating it on first use
func (r *Registry) For(visitorID string) *Service {
	return r.services.GetOrCreate(visitorID, NewService)
}

// Sweep drops services of idle visitors and returns how many were removed
func (r *Registry) Sweep() int {
	return r.services.Cleanup()
}
