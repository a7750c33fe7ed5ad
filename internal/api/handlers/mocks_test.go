package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/baharkarakas/dragonpay-gateway/internal/models"
	"github.com/baharkarakas/dragonpay-gateway/internal/services"
)

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockTxnService struct {
	beginFn       func(ctx context.Context, d services.TransactionDetails, mode dragonpay.PaymentMethod) (*models.Transaction, string, error)
	applyFn       func(ctx context.Context, cb dragonpay.AuthenticatedCallback) (*models.Transaction, error)
	fetchStatusFn func(ctx context.Context, id string) (*models.Transaction, error)
	getFn         func(ctx context.Context, id string) (models.Transaction, error)
	listFn        func(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error)
	historyFn     func(ctx context.Context, id string) ([]models.StatusChange, error)
}

func (m *mockTxnService) Begin(ctx context.Context, d services.TransactionDetails, mode dragonpay.PaymentMethod) (*models.Transaction, string, error) {
	return m.beginFn(ctx, d, mode)
}

func (m *mockTxnService) ApplyCallback(ctx context.Context, cb dragonpay.AuthenticatedCallback) (*models.Transaction, error) {
	return m.applyFn(ctx, cb)
}

func (m *mockTxnService) FetchStatus(ctx context.Context, id string) (*models.Transaction, error) {
	return m.fetchStatusFn(ctx, id)
}

func (m *mockTxnService) Get(ctx context.Context, id string) (models.Transaction, error) {
	return m.getFn(ctx, id)
}

func (m *mockTxnService) List(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	return m.listFn(ctx, f)
}

func (m *mockTxnService) History(ctx context.Context, id string) ([]models.StatusChange, error) {
	return m.historyFn(ctx, id)
}

type mockPayoutService struct {
	createFn       func(ctx context.Context, req services.PayoutRequest) ([]models.Payout, error)
	fetchStatusFn  func(ctx context.Context, id string) (*models.Payout, error)
	getFn          func(ctx context.Context, id string) (models.Payout, error)
	listFn         func(ctx context.Context, f models.PayoutFilter) ([]models.Payout, error)
	historyFn      func(ctx context.Context, id string) ([]models.StatusChange, error)
	registerUserFn func(ctx context.Context, u models.PayoutUser) (models.PayoutUser, error)
	getUserFn      func(ctx context.Context, id string) (models.PayoutUser, error)
}

func (m *mockPayoutService) Create(ctx context.Context, req services.PayoutRequest) ([]models.Payout, error) {
	return m.createFn(ctx, req)
}

func (m *mockPayoutService) FetchStatus(ctx context.Context, id string) (*models.Payout, error) {
	return m.fetchStatusFn(ctx, id)
}

func (m *mockPayoutService) Get(ctx context.Context, id string) (models.Payout, error) {
	return m.getFn(ctx, id)
}

func (m *mockPayoutService) List(ctx context.Context, f models.PayoutFilter) ([]models.Payout, error) {
	return m.listFn(ctx, f)
}

func (m *mockPayoutService) History(ctx context.Context, id string) ([]models.StatusChange, error) {
	return m.historyFn(ctx, id)
}

func (m *mockPayoutService) RegisterUser(ctx context.Context, u models.PayoutUser) (models.PayoutUser, error) {
	return m.registerUserFn(ctx, u)
}

func (m *mockPayoutService) GetUser(ctx context.Context, id string) (models.PayoutUser, error) {
	return m.getUserFn(ctx, id)
}
