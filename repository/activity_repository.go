package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront/models"
)

// ActivityRepository handles database operations for the activity journal
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new ActivityRepository on an open connection
func NewActivityRepository(conn *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: conn}
}

// Ensure ActivityRepository implements ActivityRepositoryInterface
var _ ActivityRepositoryInterface = (*ActivityRepository)(nil)

// Record inserts a single event and fills in its ID
func (r *ActivityRepository) Record(ctx context.Context, event *models.ActivityEvent) error {
	if event.Kind == "" {
		return fmt.Errorf("activity kind is required")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	queryInsert := `
		INSERT INTO storefront_activity (kind, username, product_id, qty, query, outcome, message, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, queryInsert,
		string(event.Kind),
		sql.NullString{String: event.Username, Valid: event.Username != ""},
		sql.NullString{String: event.ProductID, Valid: event.ProductID != ""},
		event.Qty,
		sql.NullString{String: event.Query, Valid: event.Query != ""},
		event.Outcome,
		sql.NullString{String: event.Message, Valid: event.Message != ""},
		event.OccurredAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert activity event: %w", err)
	}
	return nil
}

// ListRecent returns the newest events first
func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]models.ActivityEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, kind, username, product_id, qty, query, outcome, message, occurred_at
		FROM storefront_activity
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity events: %w", err)
	}
	defer rows.Close()

	events := []models.ActivityEvent{}
	for rows.Next() {
		var event models.ActivityEvent
		var kind string
		var username, productID, searchQuery, message sql.NullString

		if err := rows.Scan(
			&event.ID,
			&kind,
			&username,
			&productID,
			&event.Qty,
			&searchQuery,
			&event.Outcome,
			&message,
			&event.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}

		event.Kind = models.ActivityKind(kind)
		event.Username = username.String
		event.ProductID = productID.String
		event.Query = searchQuery.String
		event.Message = message.String
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity events: %w", err)
	}
	return events, nil
}
