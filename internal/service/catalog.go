package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"time"

	"utdr-guide/internal/domain"
	"utdr-guide/internal/logger"

	"golang.org/x/sync/singleflight"
)

const (
	// NoticeDelay is how long after page load a catalog notice is shown
	NoticeDelay = 500 * time.Millisecond

	// BundlePath is the location of the fallback document inside the bundle FS
	BundlePath = "data/videos.json"

	// primarySource is the upstream source indicator that needs no notice
	primarySource = "primary"
)

// catalogService implements the CatalogService interface
type catalogService struct {
	source domain.CatalogSource
	store  domain.EnvelopeStore
	bundle fs.FS
	loc    *time.Location
	now    func() time.Time
	group  singleflight.Group
	logger *logger.Logger
}

// NewCatalogService creates a new CatalogService instance.
// bundle holds the fallback document at BundlePath; loc is used for
// preview timestamps that carry no zone.
func NewCatalogService(
	source domain.CatalogSource,
	store domain.EnvelopeStore,
	bundle fs.FS,
	loc *time.Location,
) domain.CatalogService {
	if loc == nil {
		loc = time.UTC
	}
	return &catalogService{
		source: source,
		store:  store,
		bundle: bundle,
		loc:    loc,
		now:    time.Now,
		logger: logger.GetGlobalLogger(),
	}
}

// Load returns the cached snapshot while fresh, otherwise runs the remote chain
func (s *catalogService) Load(ctx context.Context) *domain.LoadResult {
	if envelope, ok := s.store.Read(ctx); ok {
		return &domain.LoadResult{
			Catalog: envelope.Catalog,
			Origin:  domain.OriginCache,
		}
	}
	return s.Refresh(ctx)
}

// Refresh skips the cache; concurrent callers share one upstream request
func (s *catalogService) Refresh(ctx context.Context) *domain.LoadResult {
	// The shared fetch must outlive whichever caller started it
	shared := context.WithoutCancel(ctx)
	result, _, _ := s.group.Do("catalog", func() (interface{}, error) {
		return s.fetch(shared), nil
	})
	return result.(*domain.LoadResult)
}

// Clear drops the cached envelope
func (s *catalogService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear catalog cache: %w", err)
	}
	s.logger.Info("Catalog cache cleared", nil)
	return nil
}

// fetch asks the upstream API and falls back to the bundle on any failure
func (s *catalogService) fetch(ctx context.Context) *domain.LoadResult {
	resp, err := s.source.FetchCatalog(ctx)
	if err != nil {
		s.logger.Warn("Upstream catalog unavailable, using bundled data", map[string]interface{}{
			"error": err,
		})
		return s.loadBundle()
	}

	catalog, err := s.parse(resp.Data)
	if err != nil {
		s.logger.Warn("Upstream catalog undecodable, using bundled data", map[string]interface{}{
			"error": err,
		})
		return s.loadBundle()
	}

	result := &domain.LoadResult{
		Catalog: catalog,
		Origin:  domain.OriginPrimary,
		Source:  resp.Source,
	}
	if resp.Source != "" && resp.Source != primarySource {
		result.Origin = domain.OriginUpstream
		result.Notice = &domain.Notice{
			Title:   "提示",
			Message: fmt.Sprintf("主数据源暂时不可用，当前数据来自备用数据源（%s）。", resp.Source),
		}
	}

	if err := s.store.Write(ctx, &domain.CacheEnvelope{Catalog: catalog, CapturedAt: s.now()}); err != nil {
		s.logger.Error("Failed to cache catalog", map[string]interface{}{
			"error": err,
		})
	}

	s.logger.Info("Catalog fetched", map[string]interface{}{
		"origin":        string(result.Origin),
		"videos":        len(catalog.Videos),
		"notifications": len(catalog.Notifications),
	})
	return result
}

// parse decodes the upstream data object
func (s *catalogService) parse(data json.RawMessage) (*domain.Catalog, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, fmt.Errorf("%w: missing data object", domain.ErrMalformedPayload)
	}

	var doc domain.CatalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	catalog, stats := doc.ToCatalog(s.loc)
	if stats.SkippedVideos > 0 {
		s.logger.Warn("Dropped videos with unknown game", map[string]interface{}{
			"skipped": stats.SkippedVideos,
		})
	}
	if stats.InvalidSpoilers > 0 {
		s.logger.Warn("Read unparseable spoiler flags as false", map[string]interface{}{
			"videos": stats.InvalidSpoilers,
		})
	}
	return catalog, nil
}

// loadBundle reads the shipped fallback document; failure yields an empty catalog
func (s *catalogService) loadBundle() *domain.LoadResult {
	doc, err := s.readBundle()
	if err != nil {
		s.logger.Error("Bundled catalog unavailable", map[string]interface{}{
			"error": err,
		})
		return &domain.LoadResult{
			Catalog: &domain.Catalog{
				Videos:        []*domain.Video{},
				Notifications: []*domain.Notification{},
			},
			Origin: domain.OriginEmpty,
			Notice: &domain.Notice{
				Title:    "错误",
				Message:  "视频数据加载失败，请检查网络连接后刷新页面重试。",
				Blocking: true,
			},
		}
	}

	catalog, _ := doc.ToCatalog(s.loc)
	message := "无法连接到数据服务器，当前显示的是本地备份数据，内容可能不是最新的。"
	if doc.LastUpdated != "" {
		message = fmt.Sprintf("无法连接到数据服务器，当前显示的是本地备份数据（最后更新：%s），内容可能不是最新的。", doc.LastUpdated)
	}

	return &domain.LoadResult{
		Catalog: catalog,
		Origin:  domain.OriginBundle,
		Notice: &domain.Notice{
			Title:    "提示",
			Message:  message,
			Blocking: true,
		},
	}
}

func (s *catalogService) readBundle() (*domain.CatalogDocument, error) {
	if s.bundle == nil {
		return nil, fmt.Errorf("%w: no bundle configured", domain.ErrNotFound)
	}

	data, err := fs.ReadFile(s.bundle, BundlePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", BundlePath, err)
	}

	var doc domain.CatalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedPayload, BundlePath, err)
	}
	return &doc, nil
}
