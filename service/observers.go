package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront/metrics"
	"storefront/models"
	"storefront/repository"
)

const journalTimeout = 2 * time.Second

// Observers carries the optional collaborators shared by the coordinators.
// The zero value logs nothing, counts nothing and journals nothing.
type Observers struct {
	Journal repository.ActivityRepositoryInterface
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

func (o Observers) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// record writes to the journal; failures are logged and never reach the visitor
func (o Observers) record(ctx context.Context, event models.ActivityEvent) {
	if o.Journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	if err := o.Journal.Record(ctx, &event); err != nil {
		o.logger().Warn("failed to record activity",
			zap.String("kind", string(event.Kind)),
			zap.Error(err))
	}
}

// outcomeOf maps a coordinator result to a short outcome label
func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return string(KindOf(err))
}

func messageOf(err error) string {
	if err == nil {
		return ""
	}
	return ToNotification(err).Message
}
