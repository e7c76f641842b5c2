package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/models"
)

func TestMemoryActivityRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryActivityRepository(2)

	first := &models.ActivityEvent{Kind: models.ActivityCartAdd, ProductID: "p1", Qty: 1, Outcome: "ok"}
	require.NoError(t, repo.Record(ctx, first))
	assert.Equal(t, int64(1), first.ID)
	assert.False(t, first.OccurredAt.IsZero())

	require.NoError(t, repo.Record(ctx, &models.ActivityEvent{Kind: models.ActivitySearch, Query: "shoe", Outcome: "resolved"}))
	require.NoError(t, repo.Record(ctx, &models.ActivityEvent{Kind: models.ActivitySearch, Query: "shoes", Outcome: "superseded"}))

	events, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "shoes", events[0].Query)
	assert.Equal(t, "shoe", events[1].Query)

	events, err = repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	assert.Error(t, repo.Record(ctx, &models.ActivityEvent{}))
}
