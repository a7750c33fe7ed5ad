package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/baharkarakas/dragonpay-gateway/internal/config"
	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/baharkarakas/dragonpay-gateway/internal/events"
	"github.com/baharkarakas/dragonpay-gateway/internal/lock"
	"github.com/baharkarakas/dragonpay-gateway/internal/models"
	repo "github.com/baharkarakas/dragonpay-gateway/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutGateway is the part of the Dragonpay client used for payouts.
type PayoutGateway interface {
	GetPayoutStatus(ctx context.Context, txnID string) (dragonpay.Status, error)
}

// PayoutDetails is one payout entry. UserID refers to a registered recipient;
// ad-hoc recipients leave it empty and fill UserName instead.
type PayoutDetails struct {
	TxnID           string          `json:"txn_id"`
	UserID          string          `json:"user_id"`
	UserName        string          `json:"user_name"`
	ProcessorID     string          `json:"processor_id"`
	ProcessorDetail string          `json:"processor_detail"`
	Email           string          `json:"email"`
	Mobile          string          `json:"mobile"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Description     string          `json:"description"`
	// Timestamp backdates created_at; batch items carry the gateway's time.
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// PayoutRequest is either a SinglePayout or a BatchPayout.
type PayoutRequest interface {
	payoutRequest()
}

type SinglePayout struct {
	PayoutDetails
}

type BatchPayout struct {
	Items []PayoutDetails
}

func (SinglePayout) payoutRequest() {}
func (BatchPayout) payoutRequest()  {}

func (d PayoutDetails) validate(prefix string, ve *dragonpay.ValidationError) {
	field := func(name string) string { return prefix + name }
	if d.TxnID == "" {
		ve.Add(field("txn_id"), "required")
	}
	if d.UserID == "" && d.UserName == "" {
		ve.Add(field("user_name"), "required without user_id")
	}
	if d.Description == "" {
		ve.Add(field("description"), "required")
	}
	ve.Amount(field("amount"), d.Amount)
	if d.ProcessorID != "" {
		if _, err := dragonpay.ProcessorLabel(d.ProcessorID); err != nil {
			ve.Add(field("processor_id"), "unknown processor")
		}
	}
	ve.MaxLen(field("txn_id"), d.TxnID, 40)
	ve.MaxLen(field("user_id"), d.UserID, 40)
	ve.MaxLen(field("user_name"), d.UserName, 32)
	ve.MaxLen(field("processor_detail"), d.ProcessorDetail, 32)
	ve.MaxLen(field("email"), d.Email, 64)
	ve.MaxLen(field("mobile"), d.Mobile, 32)
	ve.MaxLen(field("description"), d.Description, 128)
	if d.Currency != "" && len(d.Currency) != 3 {
		ve.Add(field("currency"), "must be 3 letters")
	}
}

// PayoutService owns the local state of outbound payouts.
type PayoutService struct {
	cfg    config.Dragonpay
	pay    repo.Payouts
	users  repo.PayoutUsers
	gw     PayoutGateway
	locker lock.Locker
	rec    changeRecorder
	log    *slog.Logger
}

func NewPayoutService(cfg config.Dragonpay, p repo.Payouts, u repo.PayoutUsers, c repo.StatusChanges, gw PayoutGateway, l lock.Locker, pub events.Publisher, log *slog.Logger) *PayoutService {
	if log == nil {
		log = slog.Default()
	}
	if l == nil {
		l = lock.NewLocal()
	}
	return &PayoutService{
		cfg:    cfg,
		pay:    p,
		users:  u,
		gw:     gw,
		locker: l,
		rec:    changeRecorder{changes: c, pub: pub, log: log},
		log:    log,
	}
}

// Create stores one row for a SinglePayout and one row per item, in order,
// for a BatchPayout. It returns nil, nil when persistence is disabled.
func (s *PayoutService) Create(ctx context.Context, req PayoutRequest) ([]models.Payout, error) {
	var (
		items []PayoutDetails
		batch bool
	)
	switch r := req.(type) {
	case SinglePayout:
		items = []PayoutDetails{r.PayoutDetails}
	case BatchPayout:
		items, batch = r.Items, true
	default:
		return nil, fmt.Errorf("%w: %T", dragonpay.ErrUnsupportedRequest, req)
	}
	if !s.cfg.SaveData {
		return nil, nil
	}

	ve := &dragonpay.ValidationError{}
	if len(items) == 0 {
		ve.Add("items", "required")
	}
	for i, d := range items {
		prefix := ""
		if batch {
			prefix = "items[" + strconv.Itoa(i) + "]."
		}
		d.validate(prefix, ve)
	}
	if len(ve.Fields) > 0 {
		return nil, ve
	}

	rows := make([]models.Payout, 0, len(items))
	for _, d := range items {
		rows = append(rows, s.toModel(d))
	}
	if !batch {
		p, err := s.pay.Create(ctx, rows[0])
		if err != nil {
			return nil, fmt.Errorf("create payout %s: %w", rows[0].TxnID, err)
		}
		s.log.Debug("payout saved", "id", p.ID, "txn_id", p.TxnID)
		return []models.Payout{p}, nil
	}

	created, err := s.pay.CreateBatch(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("create payout batch of %d: %w", len(rows), err)
	}
	s.log.Debug("payout batch saved", "count", len(created))
	return created, nil
}

func (s *PayoutService) toModel(d PayoutDetails) models.Payout {
	currency := d.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	p := models.Payout{
		TxnID:           d.TxnID,
		UserID:          optional(d.UserID),
		UserName:        optional(d.UserName),
		ProcessorID:     optional(d.ProcessorID),
		ProcessorDetail: optional(d.ProcessorDetail),
		Email:           optional(d.Email),
		Mobile:          optional(d.Mobile),
		Amount:          d.Amount,
		Currency:        currency,
		Description:     d.Description,
		Status:          dragonpay.StatusPending,
	}
	if d.Timestamp != nil {
		p.CreatedAt = *d.Timestamp
	}
	return p
}

// FetchStatus polls the gateway for a stored payout. An empty answer means
// the gateway does not know yet: nothing is updated or logged. With
// persistence disabled id is taken as the txn id and the gateway answer is
// returned unsaved.
func (s *PayoutService) FetchStatus(ctx context.Context, id string) (*models.Payout, error) {
	if !s.cfg.SaveData {
		status, err := s.gw.GetPayoutStatus(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetch status of payout %s: %w", id, err)
		}
		return &models.Payout{TxnID: id, Status: status}, nil
	}

	unlock, err := s.locker.Lock(ctx, "payout:"+id)
	if err != nil {
		return nil, fmt.Errorf("lock payout %s: %w", id, err)
	}
	defer unlock()

	cur, err := s.pay.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("payout %s: %w", id, err)
	}
	status, err := s.gw.GetPayoutStatus(ctx, cur.TxnID)
	if err != nil {
		return nil, fmt.Errorf("fetch status of payout %s: %w", id, err)
	}
	if status == "" || status == cur.Status {
		return &cur, nil
	}
	if !status.IsPayoutStatus() {
		s.log.Warn("unrecognized payout status from gateway", "id", id, "txn_id", cur.TxnID, "code", string(status))
		return &cur, nil
	}

	updated, err := s.pay.UpdateStatus(ctx, id, cur.Status, status)
	if err != nil {
		return nil, fmt.Errorf("update payout %s: %w", id, err)
	}
	s.log.Info("payout status updated",
		"id", id, "txn_id", cur.TxnID, "from", cur.Status.String(), "to", status.String())

	s.rec.record(ctx, models.StatusChange{
		EntityType: models.EntityPayout,
		EntityID:   id,
		From:       cur.Status,
		To:         status,
		Source:     models.SourcePoll,
		CreatedAt:  updated.ModifiedAt,
	})
	return &updated, nil
}

func (s *PayoutService) Get(ctx context.Context, id string) (models.Payout, error) {
	return s.pay.GetByID(ctx, id)
}

func (s *PayoutService) List(ctx context.Context, f models.PayoutFilter) ([]models.Payout, error) {
	return s.pay.List(ctx, f)
}

func (s *PayoutService) History(ctx context.Context, id string) ([]models.StatusChange, error) {
	if s.rec.changes == nil {
		return nil, nil
	}
	return s.rec.changes.ListByEntity(ctx, models.EntityPayout, id)
}

// RegisterUser stores a payout recipient.
func (s *PayoutService) RegisterUser(ctx context.Context, u models.PayoutUser) (models.PayoutUser, error) {
	ve := &dragonpay.ValidationError{}
	if err := dragonpay.Require(
		"id", u.ID,
		"first_name", u.FirstName,
		"last_name", u.LastName,
		"email", u.Email,
		"mobile", u.Mobile,
	); err != nil {
		errors.As(err, &ve)
	}
	if u.ID != "" {
		if _, err := uuid.Parse(u.ID); err != nil {
			ve.Add("id", "must be a uuid")
		}
	}
	for _, f := range []struct {
		name, value string
		max         int
	}{
		{"first_name", u.FirstName, 32},
		{"middle_name", u.MiddleName, 32},
		{"last_name", u.LastName, 32},
		{"email", u.Email, 64},
		{"mobile", u.Mobile, 24},
		{"address1", u.Address1, 32},
		{"address2", u.Address2, 32},
		{"city", u.City, 32},
		{"state", u.State, 16},
		{"country", u.Country, 16},
		{"zip", u.Zip, 8},
	} {
		ve.MaxLen(f.name, f.value, f.max)
	}
	if err := ve.Err(); err != nil {
		return models.PayoutUser{}, err
	}
	created, err := s.users.Create(ctx, u)
	if err != nil {
		return models.PayoutUser{}, fmt.Errorf("create payout user %s: %w", u.ID, err)
	}
	return created, nil
}

func (s *PayoutService) GetUser(ctx context.Context, id string) (models.PayoutUser, error) {
	return s.users.GetByID(ctx, id)
}
