package repository

import (
	"context"
	"errors"
	"time"

	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/baharkarakas/dragonpay-gateway/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStaleStatus is returned by conditional updates when the stored
	// status no longer matches the one the caller read.
	ErrStaleStatus = errors.New("status changed concurrently")
)

type Transactions interface {
	Create(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	GetByID(ctx context.Context, id string) (models.Transaction, error)
	List(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error)
	// UpdateStatus sets status and modified_at only if the row still has status from.
	UpdateStatus(ctx context.Context, id string, from, to dragonpay.Status, at time.Time) (models.Transaction, error)
}

type Payouts interface {
	Create(ctx context.Context, p models.Payout) (models.Payout, error)
	// CreateBatch inserts all rows in one database transaction.
	CreateBatch(ctx context.Context, ps []models.Payout) ([]models.Payout, error)
	GetByID(ctx context.Context, id string) (models.Payout, error)
	List(ctx context.Context, f models.PayoutFilter) ([]models.Payout, error)
	UpdateStatus(ctx context.Context, id string, from, to dragonpay.Status) (models.Payout, error)
}

type PayoutUsers interface {
	Create(ctx context.Context, u models.PayoutUser) (models.PayoutUser, error)
	GetByID(ctx context.Context, id string) (models.PayoutUser, error)
}

type StatusChanges interface {
	Create(ctx context.Context, c models.StatusChange) error
	ListByEntity(ctx context.Context, entity models.EntityType, id string) ([]models.StatusChange, error)
}
