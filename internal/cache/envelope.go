package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"utdr-guide/internal/domain"
	"utdr-guide/internal/logger"
	"utdr-guide/internal/repository"
)

// EnvelopeTTL is how long a captured catalog is served without refetching
const EnvelopeTTL = 1 * time.Hour

const (
	payloadKey    = "catalog_payload"
	capturedAtKey = "catalog_captured_at"
)

// EnvelopeStore implements domain.EnvelopeStore on top of a KVRepository.
// The payload and its capture time live under two keys that are always
// written and removed together.
type EnvelopeStore struct {
	kv     repository.KVRepository
	loc    *time.Location
	ttl    time.Duration
	now    func() time.Time
	logger *logger.Logger
}

// NewEnvelopeStore creates an EnvelopeStore; loc is used for zone-less preview times
func NewEnvelopeStore(kv repository.KVRepository, loc *time.Location) *EnvelopeStore {
	if loc == nil {
		loc = time.UTC
	}
	return &EnvelopeStore{
		kv:     kv,
		loc:    loc,
		ttl:    EnvelopeTTL,
		now:    time.Now,
		logger: logger.GetGlobalLogger(),
	}
}

// WithClock replaces the time source, for tests
func (s *EnvelopeStore) WithClock(now func() time.Time) *EnvelopeStore {
	s.now = now
	return s
}

// Read returns the stored envelope while it is fresh.
// Stale, partial or undecodable state reads as absent.
func (s *EnvelopeStore) Read(ctx context.Context) (*domain.CacheEnvelope, bool) {
	values, err := s.kv.Get(ctx, payloadKey, capturedAtKey)
	if err != nil {
		s.logger.Warn("Failed to read catalog cache", map[string]interface{}{
			"error": err,
		})
		return nil, false
	}

	payload, hasPayload := values[payloadKey]
	stamp, hasStamp := values[capturedAtKey]
	if !hasPayload || !hasStamp {
		return nil, false
	}

	millis, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		s.logger.Warn("Discarding catalog cache with bad timestamp", map[string]interface{}{
			"timestamp": stamp,
		})
		return nil, false
	}
	capturedAt := time.UnixMilli(millis)

	if !s.Fresh(capturedAt) {
		return nil, false
	}

	var doc domain.CatalogDocument
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		s.logger.Warn("Discarding undecodable catalog cache", map[string]interface{}{
			"error": err,
		})
		return nil, false
	}

	catalog, _ := doc.ToCatalog(s.loc)
	return &domain.CacheEnvelope{Catalog: catalog, CapturedAt: capturedAt}, true
}

// Fresh reports whether an envelope captured at capturedAt is still servable
func (s *EnvelopeStore) Fresh(capturedAt time.Time) bool {
	return s.now().Sub(capturedAt) < s.ttl
}

// Write replaces the stored envelope
func (s *EnvelopeStore) Write(ctx context.Context, envelope *domain.CacheEnvelope) error {
	if envelope == nil || envelope.Catalog == nil {
		return fmt.Errorf("%w: empty envelope", domain.ErrInvalidInput)
	}

	payload, err := json.Marshal(domain.NewCatalogDocument(envelope.Catalog))
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	capturedAt := envelope.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = s.now()
	}

	if err := s.kv.SetMany(ctx, map[string]string{
		payloadKey:    string(payload),
		capturedAtKey: strconv.FormatInt(capturedAt.UnixMilli(), 10),
	}); err != nil {
		return fmt.Errorf("failed to write catalog cache: %w", err)
	}
	return nil
}

// Clear removes the payload and its timestamp
func (s *EnvelopeStore) Clear(ctx context.Context) error {
	if err := s.kv.DeleteMany(ctx, payloadKey, capturedAtKey); err != nil {
		return fmt.Errorf("failed to clear catalog cache: %w", err)
	}
	return nil
}
