package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/baharkarakas/dragonpay-gateway/internal/events"
	"github.com/baharkarakas/dragonpay-gateway/internal/metrics"
	"github.com/baharkarakas/dragonpay-gateway/internal/models"
	repo "github.com/baharkarakas/dragonpay-gateway/internal/repository"
)

// changeRecorder writes the audit row and announces a transition after the
// record itself has been updated. Failures here are logged, not returned:
// the status update has already happened.
type changeRecorder struct {
	changes repo.StatusChanges
	pub     events.Publisher
	log     *slog.Logger
}

func (r changeRecorder) record(ctx context.Context, c models.StatusChange) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	metrics.StatusTransitions.WithLabelValues(string(c.EntityType), string(c.Source), string(c.To)).Inc()

	if r.changes != nil {
		if err := r.changes.Create(ctx, c); err != nil {
			r.log.Warn("status change audit failed", "entity", c.EntityType, "id", c.EntityID, "err", err)
		}
	}
	if r.pub != nil {
		if err := r.pub.StatusChanged(ctx, c); err != nil {
			r.log.Warn("status change publish failed", "entity", c.EntityType, "id", c.EntityID, "err", err)
		}
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
