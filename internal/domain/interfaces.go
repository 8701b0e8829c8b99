package domain

import (
	"context"
)

// CatalogService loads the catalog through the cache / remote / bundle chain.
// Load never fails: every network and parse error is recovered internally and
// the caller always receives a (possibly empty) snapshot.
type CatalogService interface {
	// Load returns the cached snapshot while fresh, otherwise fetches
	Load(ctx context.Context) *LoadResult

	// Refresh skips the cache and runs the remote / bundle chain
	Refresh(ctx context.Context) *LoadResult

	// Clear drops the cached envelope so the next Load fetches again
	Clear(ctx context.Context) error
}

// CatalogSource abstracts the remote aggregation endpoint
type CatalogSource interface {
	FetchCatalog(ctx context.Context) (*UpstreamResponse, error)
}

// EnvelopeStore persists a single catalog envelope
type EnvelopeStore interface {
	Read(ctx context.Context) (*CacheEnvelope, bool)
	Write(ctx context.Context, envelope *CacheEnvelope) error
	Clear(ctx context.Context) error
}

// ResourceService lists downloadable resources and counts downloads
type ResourceService interface {
	// ListResources returns resources of a category; "all" returns everything
	ListResources(ctx context.Context, category string) ([]*Resource, error)

	// Categories returns the distinct categories in display order
	Categories() []string

	// RecordDownload increments the counter and returns the resource
	RecordDownload(ctx context.Context, id string) (*Resource, error)
}
