package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/stwalsh4118/permits/api/internal/logger"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/repository"
)

// MinSearchLength is the shortest accepted property search query.
const MinSearchLength = 2

// PropertyService defines the interface for property registry operations.
type PropertyService interface {
	// GetProperty returns ErrPropertyNotFound if no property has the id.
	GetProperty(ctx context.Context, id int64) (*models.Property, error)

	// SearchProperties matches query against address and tax lot.
	// Returns a *ValidationError for a query shorter than MinSearchLength.
	// Returns empty slice if nothing matches (not an error).
	SearchProperties(ctx context.Context, query string) ([]models.Property, error)
}

type propertyService struct {
	repo repository.PropertyRepository
	log  *logger.Logger
}

// NewPropertyService creates a new instance of PropertyService.
func NewPropertyService(repo repository.PropertyRepository, log *logger.Logger) PropertyService {
	return &propertyService{
		repo: repo,
		log:  log,
	}
}

func (s *propertyService) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	if id <= 0 {
		return nil, invalid("id", "must be a positive integer")
	}

	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to query property", err, map[string]interface{}{
			"property_id": id,
		})
		return nil, fmt.Errorf("failed to query property: %w", err)
	}

	// Repository returns nil, nil when no property found
	if property == nil {
		s.log.Debug("Property not found", map[string]interface{}{
			"property_id": id,
		})
		return nil, fmt.Errorf("%w: id %d", ErrPropertyNotFound, id)
	}

	return property, nil
}

func (s *propertyService) SearchProperties(ctx context.Context, query string) ([]models.Property, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinSearchLength {
		s.log.Warn("Property search query too short", map[string]interface{}{
			"query": query,
		})
		return nil, invalid("q", fmt.Sprintf("must be at least %d characters", MinSearchLength))
	}

	results, err := s.repo.Search(ctx, query, repository.MaxSearchResults)
	if err != nil {
		s.log.Error("Failed to search properties", err, map[string]interface{}{
			"query": query,
		})
		return nil, fmt.Errorf("failed to search properties: %w", err)
	}

	s.log.Info("Property search completed", map[string]interface{}{
		"query": query,
		"count": len(results),
	})
	return results, nil
}
