package repository

import (
	"context"

	"storefront/models"
)

// ActivityRepositoryInterface defines the contract for the storefront activity journal
type ActivityRepositoryInterface interface {
	Record(ctx context.Context, event *models.ActivityEvent) error
	ListRecent(ctx context.Context, limit int) ([]models.ActivityEvent, error)
}
