package service

import (
	"context"
	"fmt"

	"utdr-guide/internal/config"
	"utdr-guide/internal/domain"
	"utdr-guide/internal/logger"
	"utdr-guide/internal/repository"
)

// CategoryAll lists resources of every category
const CategoryAll = "all"

// resourceService implements the ResourceService interface
type resourceService struct {
	defs         []config.ResourceDef
	downloadRepo repository.DownloadRepository
	logger       *logger.Logger
}

// NewResourceService creates a new ResourceService over the site's resource list
func NewResourceService(defs []config.ResourceDef, downloadRepo repository.DownloadRepository) domain.ResourceService {
	return &resourceService{
		defs:         defs,
		downloadRepo: downloadRepo,
		logger:       logger.GetGlobalLogger(),
	}
}

// ListResources returns resources of category with their download counts
func (s *resourceService) ListResources(ctx context.Context, category string) ([]*domain.Resource, error) {
	counts, err := s.downloadRepo.GetAll(ctx)
	if err != nil {
		// Counters are cosmetic; list without them
		s.logger.Warn("Failed to load download counts", map[string]interface{}{
			"error": err,
		})
		counts = map[string]int{}
	}

	resources := make([]*domain.Resource, 0, len(s.defs))
	for _, def := range s.defs {
		if category != "" && category != CategoryAll && def.Category != category {
			continue
		}
		resources = append(resources, &domain.Resource{
			ID:          def.ID,
			Title:       def.Title,
			Description: def.Description,
			Category:    def.Category,
			URL:         def.URL,
			Size:        def.Size,
			Downloads:   counts[def.ID],
		})
	}
	return resources, nil
}

// Categories returns each category once, in first-seen order
func (s *resourceService) Categories() []string {
	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, def := range s.defs {
		if seen[def.Category] {
			continue
		}
		seen[def.Category] = true
		categories = append(categories, def.Category)
	}
	return categories
}

// RecordDownload increments the counter of a known resource
func (s *resourceService) RecordDownload(ctx context.Context, id string) (*domain.Resource, error) {
	for _, def := range s.defs {
		if def.ID != id {
			continue
		}
		count, err := s.downloadRepo.Increment(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to record download: %w", err)
		}
		return &domain.Resource{
			ID:          def.ID,
			Title:       def.Title,
			Description: def.Description,
			Category:    def.Category,
			URL:         def.URL,
			Size:        def.Size,
			Downloads:   count,
		}, nil
	}
	return nil, fmt.Errorf("%w: resource %s", domain.ErrNotFound, id)
}
