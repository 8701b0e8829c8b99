package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"utdr-guide/internal/domain"
	"utdr-guide/internal/logger"
)

// SweepSchedule is how often idle per-visitor state is dropped
const SweepSchedule = "@every 5m"

// Sweeper drops expired entries and returns how many were removed
type Sweeper func() int

// CatalogWarmer keeps the catalog cache warm on a cron schedule and sweeps
// idle visitor state
type CatalogWarmer struct {
	catalogSvc domain.CatalogService
	schedule   string
	sweepers   []Sweeper
	cron       *cron.Cron
	wg         sync.WaitGroup
	mu         sync.Mutex
	lastOrigin domain.Origin
	runs       int
	logger     *logger.Logger
}

// NewCatalogWarmer creates a new CatalogWarmer. An empty schedule disables
// warming; sweeping always runs.
func NewCatalogWarmer(catalogSvc domain.CatalogService, schedule string, sweepers ...Sweeper) *CatalogWarmer {
	l := logger.GetGlobalLogger().WithField("component", "catalog_warmer")
	return &CatalogWarmer{
		catalogSvc: catalogSvc,
		schedule:   schedule,
		sweepers:   sweepers,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{l}),
			cron.SkipIfStillRunning(cronLogger{l}),
		)),
		logger: l,
	}
}

// Start registers the jobs, warms once immediately and starts the scheduler
func (w *CatalogWarmer) Start(ctx context.Context) error {
	if w.schedule != "" {
		if _, err := w.cron.AddFunc(w.schedule, func() { w.Warm(ctx) }); err != nil {
			return fmt.Errorf("invalid warm schedule %q: %w", w.schedule, err)
		}

		// Run immediately on start
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.Warm(ctx)
		}()
	}

	if _, err := w.cron.AddFunc(SweepSchedule, w.Sweep); err != nil {
		return fmt.Errorf("invalid sweep schedule: %w", err)
	}

	w.cron.Start()
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (w *CatalogWarmer) Stop() {
	<-w.cron.Stop().Done()
	w.wg.Wait()
}

// Warm refreshes the catalog and returns the tier it came from
func (w *CatalogWarmer) Warm(ctx context.Context) domain.Origin {
	result := w.catalogSvc.Refresh(ctx)

	w.mu.Lock()
	w.lastOrigin = result.Origin
	w.runs++
	w.mu.Unlock()

	fields := map[string]interface{}{
		"origin": string(result.Origin),
		"videos": len(result.Catalog.Videos),
	}
	if result.Origin == domain.OriginPrimary || result.Origin == domain.OriginUpstream {
		w.logger.Info("Catalog warmed", fields)
	} else {
		w.logger.Warn("Catalog warm-up fell back", fields)
	}
	return result.Origin
}

// Sweep runs every sweeper
func (w *CatalogWarmer) Sweep() {
	removed := 0
	for _, sweep := range w.sweepers {
		removed += sweep()
	}
	if removed > 0 {
		w.logger.Debug("Swept idle visitor state", map[string]interface{}{
			"removed": removed,
		})
	}
}

// LastOrigin returns the origin of the latest warm-up and how many ran
func (w *CatalogWarmer) LastOrigin() (domain.Origin, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastOrigin, w.runs
}

// cronLogger routes cron's own messages through the application logger
type cronLogger struct {
	l *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, pairs(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := pairs(keysAndValues)
	fields["error"] = err
	c.l.Error("cron: "+msg, fields)
}

// pairs turns alternating keys and values into a field map
func pairs(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2+1)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
