// Package events announces local status transitions to other services.
package events

import (
	"context"

	"github.com/baharkarakas/dragonpay-gateway/internal/models"
)

// Publisher is notified after a status change has been stored.
type Publisher interface {
	StatusChanged(ctx context.Context, c models.StatusChange) error
}

// Noop discards events. Used when no broker is configured.
type Noop struct{}

func (Noop) StatusChanged(context.Context, models.StatusChange) error { return nil }
