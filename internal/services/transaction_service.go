package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/baharkarakas/dragonpay-gateway/internal/config"
	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/baharkarakas/dragonpay-gateway/internal/events"
	"github.com/baharkarakas/dragonpay-gateway/internal/gateway"
	"github.com/baharkarakas/dragonpay-gateway/internal/lock"
	"github.com/baharkarakas/dragonpay-gateway/internal/models"
	repo "github.com/baharkarakas/dragonpay-gateway/internal/repository"
	"github.com/shopspring/decimal"
)

// TransactionGateway is the part of the Dragonpay client used for payments.
type TransactionGateway interface {
	GetTransactionStatus(ctx context.Context, txnID string) (dragonpay.Status, error)
	PaymentURL(req gateway.PaymentRequest) (string, error)
}

type TransactionDetails struct {
	TxnID       string          `json:"txn_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	Email       string          `json:"email"`
	Param1      string          `json:"param1"`
	Param2      string          `json:"param2"`
}

func (d TransactionDetails) validate() error {
	ve := &dragonpay.ValidationError{}
	if err := dragonpay.Require("txn_id", d.TxnID, "description", d.Description, "email", d.Email); err != nil {
		errors.As(err, &ve)
	}
	ve.Amount("amount", d.Amount)
	ve.MaxLen("txn_id", d.TxnID, 128)
	ve.MaxLen("description", d.Description, 128)
	ve.MaxLen("email", d.Email, 64)
	ve.MaxLen("param1", d.Param1, dragonpay.MaxParamLen)
	ve.MaxLen("param2", d.Param2, dragonpay.MaxParamLen)
	if d.Currency != "" && len(d.Currency) != 3 {
		ve.Add("currency", "must be 3 letters")
	}
	return ve.Err()
}

// TransactionService owns the local state of inbound payments.
type TransactionService struct {
	cfg    config.Dragonpay
	trx    repo.Transactions
	gw     TransactionGateway
	locker lock.Locker
	rec    changeRecorder
	log    *slog.Logger
	now    func() time.Time
}

func NewTransactionService(cfg config.Dragonpay, t repo.Transactions, c repo.StatusChanges, gw TransactionGateway, l lock.Locker, pub events.Publisher, log *slog.Logger) *TransactionService {
	if log == nil {
		log = slog.Default()
	}
	if l == nil {
		l = lock.NewLocal()
	}
	return &TransactionService{
		cfg:    cfg,
		trx:    t,
		gw:     gw,
		locker: l,
		rec:    changeRecorder{changes: c, pub: pub, log: log},
		log:    log,
		now:    time.Now,
	}
}

// Create stores a new pending transaction. It returns nil, nil when
// persistence is disabled.
func (s *TransactionService) Create(ctx context.Context, d TransactionDetails) (*models.Transaction, error) {
	if !s.cfg.SaveData {
		return nil, nil
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	currency := d.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	tx, err := s.trx.Create(ctx, models.Transaction{
		ID:          d.TxnID,
		Amount:      d.Amount,
		Currency:    currency,
		Description: d.Description,
		Email:       d.Email,
		Param1:      optional(d.Param1),
		Param2:      optional(d.Param2),
		Status:      dragonpay.StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create transaction %s: %w", d.TxnID, err)
	}
	s.log.Debug("transaction saved", "txn_id", tx.ID)
	return &tx, nil
}

// Begin builds the gateway redirect for a payment and records it. The
// transaction is nil when persistence is disabled.
func (s *TransactionService) Begin(ctx context.Context, d TransactionDetails, mode dragonpay.PaymentMethod) (*models.Transaction, string, error) {
	if err := d.validate(); err != nil {
		return nil, "", err
	}
	currency := d.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	url, err := s.gw.PaymentURL(gateway.PaymentRequest{
		TxnID:       d.TxnID,
		Amount:      d.Amount,
		Currency:    currency,
		Description: d.Description,
		Email:       d.Email,
		Param1:      d.Param1,
		Param2:      d.Param2,
		Mode:        mode,
	})
	if err != nil {
		return nil, "", err
	}
	d.Currency = currency
	tx, err := s.Create(ctx, d)
	if err != nil {
		return nil, "", err
	}
	return tx, url, nil
}

// ApplyCallback applies an authenticated callback. An unchanged status is a
// silent no-op.
func (s *TransactionService) ApplyCallback(ctx context.Context, cb dragonpay.AuthenticatedCallback) (*models.Transaction, error) {
	if !s.cfg.SaveData {
		return nil, nil
	}
	return s.transition(ctx, cb.TxnID, cb.Status, models.SourceCallback, map[string]any{
		"refno":   cb.RefNo,
		"message": cb.Message,
	})
}

// FetchStatus polls the gateway and applies the answer like a callback. With
// persistence disabled the gateway answer is returned without being stored.
func (s *TransactionService) FetchStatus(ctx context.Context, id string) (*models.Transaction, error) {
	status, err := s.gw.GetTransactionStatus(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch status of transaction %s: %w", id, err)
	}
	if !s.cfg.SaveData {
		return &models.Transaction{ID: id, Status: status}, nil
	}
	if !status.IsTransactionStatus() {
		s.log.Warn("unrecognized transaction status from gateway", "txn_id", id, "code", string(status))
		tx, err := s.trx.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", id, err)
		}
		return &tx, nil
	}
	return s.transition(ctx, id, status, models.SourcePoll, nil)
}

func (s *TransactionService) transition(ctx context.Context, id string, to dragonpay.Status, src models.ChangeSource, details map[string]any) (*models.Transaction, error) {
	unlock, err := s.locker.Lock(ctx, "txn:"+id)
	if err != nil {
		return nil, fmt.Errorf("lock transaction %s: %w", id, err)
	}
	defer unlock()

	cur, err := s.trx.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", id, err)
	}
	if cur.Status == to {
		return &cur, nil
	}

	at := s.now()
	updated, err := s.trx.UpdateStatus(ctx, id, cur.Status, to, at)
	if err != nil {
		return nil, fmt.Errorf("update transaction %s: %w", id, err)
	}
	s.log.Info("transaction status updated",
		"txn_id", id, "from", cur.Status.String(), "to", to.String(), "source", src)

	s.rec.record(ctx, models.StatusChange{
		EntityType: models.EntityTransaction,
		EntityID:   id,
		From:       cur.Status,
		To:         to,
		Source:     src,
		Details:    details,
		CreatedAt:  at,
	})
	return &updated, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (models.Transaction, error) {
	return s.trx.GetByID(ctx, id)
}

func (s *TransactionService) List(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	return s.trx.List(ctx, f)
}

// History returns the recorded status changes of a transaction, oldest first.
func (s *TransactionService) History(ctx context.Context, id string) ([]models.StatusChange, error) {
	if s.rec.changes == nil {
		return nil, nil
	}
	return s.rec.changes.ListByEntity(ctx, models.EntityTransaction, id)
}
