package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/models"
)

// MemoryActivityRepository keeps the newest events in a bounded ring.
// It is used when no journal database is configured.
type MemoryActivityRepository struct {
	mu       sync.Mutex
	capacity int
	events   []models.ActivityEvent
	nextID   int64
}

// NewMemoryActivityRepository creates a journal holding at most capacity events
func NewMemoryActivityRepository(capacity int) *MemoryActivityRepository {
	if capacity <= 0 {
		capacity = 500
	}
	return &MemoryActivityRepository{capacity: capacity}
}

var _ ActivityRepositoryInterface = (*MemoryActivityRepository)(nil)

// Record stores a copy of event and fills in its ID
func (r *MemoryActivityRepository) Record(ctx context.Context, event *models.ActivityEvent) error {
	if event.Kind == "" {
		return fmt.Errorf("activity kind is required")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	event.ID = r.nextID
	r.events = append(r.events, *event)
	if len(r.events) > r.capacity {
		r.events = r.events[len(r.events)-r.capacity:]
	}
	return nil
}

// ListRecent returns the newest events first
func (r *MemoryActivityRepository) ListRecent(ctx context.Context, limit int) ([]models.ActivityEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.events) {
		limit = len(r.events)
	}
	out := make([]models.ActivityEvent, 0, limit)
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.events[i])
	}
	return out, nil
}
