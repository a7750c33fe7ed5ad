package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/baharkarakas/dragonpay-gateway/internal/models"
	repo "github.com/baharkarakas/dragonpay-gateway/internal/repository"
	"github.com/shopspring/decimal"
)

func payoutDetails(txnID string) PayoutDetails {
	return PayoutDetails{
		TxnID:           txnID,
		UserName:        "Juan dela Cruz",
		ProcessorID:     "BDO",
		ProcessorDetail: "001234567890",
		Amount:          decimal.NewFromInt(1000),
		Description:     "Refund",
	}
}

// unsupported satisfies PayoutRequest without being single or batch.
type unsupported struct{ SinglePayout }

func TestPayoutService_CreateSingle(t *testing.T) {
	pay := newMemPayouts()
	svc := NewPayoutService(testConfig(), pay, &memUsers{}, nil, &mockGateway{}, nil, nil, nil)

	got, err := svc.Create(context.Background(), SinglePayout{payoutDetails("PO-1")})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(got) != 1 || got[0].TxnID != "PO-1" || got[0].Currency != "PHP" {
		t.Fatalf("unexpected result %+v", got)
	}
	if got[0].Status != dragonpay.StatusPending || got[0].IsCompleted() {
		t.Errorf("expected pending, got %s", got[0].Status)
	}
	if pay.batches != 0 {
		t.Error("single payout must not use the batch path")
	}
}

func TestPayoutService_CreateBatch(t *testing.T) {
	pay := newMemPayouts()
	svc := NewPayoutService(testConfig(), pay, &memUsers{}, nil, &mockGateway{}, nil, nil, nil)

	base := time.Date(2023, 1, 1, 9, 0, 0, 0, time.UTC)
	items := make([]PayoutDetails, 3)
	for i := range items {
		items[i] = payoutDetails("PO-B")
		ts := base.Add(time.Duration(i) * time.Hour)
		items[i].Timestamp = &ts
	}

	got, err := svc.Create(context.Background(), BatchPayout{Items: items})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(got) != 3 || pay.batches != 1 {
		t.Fatalf("expected 3 rows in one batch, got %d rows, %d batches", len(got), pay.batches)
	}
	ids := map[string]bool{}
	for i, p := range got {
		if !p.CreatedAt.Equal(*items[i].Timestamp) {
			t.Errorf("row %d: expected created_at %v, got %v", i, items[i].Timestamp, p.CreatedAt)
		}
		if ids[p.ID] {
			t.Errorf("duplicate id %s", p.ID)
		}
		ids[p.ID] = true
	}
}

func TestPayoutService_Create_Errors(t *testing.T) {
	svc := NewPayoutService(testConfig(), newMemPayouts(), &memUsers{}, nil, &mockGateway{}, nil, nil, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, unsupported{}); !errors.Is(err, dragonpay.ErrUnsupportedRequest) {
		t.Errorf("expected ErrUnsupportedRequest, got %v", err)
	}
	if _, err := svc.Create(ctx, nil); !errors.Is(err, dragonpay.ErrUnsupportedRequest) {
		t.Errorf("expected ErrUnsupportedRequest for nil, got %v", err)
	}

	var ve *dragonpay.ValidationError
	if _, err := svc.Create(ctx, BatchPayout{}); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for empty batch, got %v", err)
	}

	bad := payoutDetails("PO-1")
	bad.ProcessorID = "XXX"
	bad.Amount = decimal.Zero
	_, err := svc.Create(ctx, BatchPayout{Items: []PayoutDetails{payoutDetails("PO-0"), bad}})
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 2 || ve.Fields[0].Field != "items[1].amount" {
		t.Errorf("unexpected fields %+v", ve.Fields)
	}
}

func TestPayoutService_Create_PersistenceDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.SaveData = false
	pay := newMemPayouts()
	svc := NewPayoutService(cfg, pay, &memUsers{}, nil, &mockGateway{}, nil, nil, nil)

	for _, req := range []PayoutRequest{SinglePayout{payoutDetails("PO-1")}, BatchPayout{Items: []PayoutDetails{payoutDetails("PO-2")}}} {
		got, err := svc.Create(context.Background(), req)
		if err != nil || got != nil {
			t.Errorf("expected nil, nil; got %v, %v", got, err)
		}
	}
	if len(pay.rows) != 0 {
		t.Error("nothing should be written")
	}
}

func TestPayoutService_FetchStatus(t *testing.T) {
	pay := newMemPayouts(models.Payout{ID: "po-1", TxnID: "PO-1", Status: dragonpay.StatusPending})
	changes := &memChanges{}
	log, logs := newLogger()
	gw := &mockGateway{payoutStatusFn: func(_ context.Context, txnID string) (dragonpay.Status, error) {
		if txnID != "PO-1" {
			t.Errorf("expected txn id PO-1, got %s", txnID)
		}
		return dragonpay.StatusSuccess, nil
	}}
	svc := NewPayoutService(testConfig(), pay, &memUsers{}, changes, gw, nil, nil, log)

	p, err := svc.FetchStatus(context.Background(), "po-1")
	if err != nil {
		t.Fatalf("FetchStatus failed: %v", err)
	}
	if p.Status != dragonpay.StatusSuccess || !p.IsCompleted() {
		t.Errorf("expected completed success, got %+v", p)
	}
	if logs.count("payout status updated") != 1 || changes.len() != 1 {
		t.Error("expected one log line and one audit row")
	}

	if _, err := svc.FetchStatus(context.Background(), "po-1"); err != nil {
		t.Fatal(err)
	}
	if logs.count("payout status updated") != 1 || changes.len() != 1 {
		t.Error("unchanged status must not log or record")
	}
}

func TestPayoutService_FetchStatus_EmptyAnswer(t *testing.T) {
	pay := newMemPayouts(models.Payout{ID: "po-1", TxnID: "PO-1", Status: dragonpay.StatusPending})
	changes := &memChanges{}
	log, logs := newLogger()
	gw := &mockGateway{payoutStatusFn: func(context.Context, string) (dragonpay.Status, error) {
		return "", nil
	}}
	svc := NewPayoutService(testConfig(), pay, &memUsers{}, changes, gw, nil, nil, log)

	p, err := svc.FetchStatus(context.Background(), "po-1")
	if err != nil {
		t.Fatalf("empty answer must not be an error: %v", err)
	}
	if p.Status != dragonpay.StatusPending {
		t.Errorf("expected no update, got %s", p.Status)
	}
	if logs.count("payout") != 0 || changes.len() != 0 {
		t.Error("empty answer must not log or record")
	}
}

func TestPayoutService_FetchStatus_NotFound(t *testing.T) {
	gw := &mockGateway{payoutStatusFn: func(context.Context, string) (dragonpay.Status, error) {
		t.Error("gateway must not be called for unknown payouts")
		return "", nil
	}}
	svc := NewPayoutService(testConfig(), newMemPayouts(), &memUsers{}, nil, gw, nil, nil, nil)

	if _, err := svc.FetchStatus(context.Background(), "missing"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPayoutService_FetchStatus_PersistenceDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.SaveData = false
	gw := &mockGateway{payoutStatusFn: func(_ context.Context, txnID string) (dragonpay.Status, error) {
		return dragonpay.StatusInProgress, nil
	}}
	svc := NewPayoutService(cfg, newMemPayouts(), &memUsers{}, nil, gw, nil, nil, nil)

	p, err := svc.FetchStatus(context.Background(), "PO-7")
	if err != nil {
		t.Fatal(err)
	}
	if p.TxnID != "PO-7" || p.Status != dragonpay.StatusInProgress {
		t.Errorf("unexpected result %+v", p)
	}
}

const userID = "5b1f3c2e-8d4a-4f6b-9c0e-2a7d1e3f4b5c"

func TestPayoutService_Users(t *testing.T) {
	svc := NewPayoutService(testConfig(), newMemPayouts(), &memUsers{}, nil, &mockGateway{}, nil, nil, nil)
	ctx := context.Background()

	var ve *dragonpay.ValidationError
	if _, err := svc.RegisterUser(ctx, models.PayoutUser{ID: "u1"}); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	u := models.PayoutUser{ID: userID, FirstName: "Juan", LastName: "Cruz", Email: "j@c.ph", Mobile: "0917"}
	if _, err := svc.RegisterUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	got, err := svc.GetUser(ctx, userID)
	if err != nil || got.FirstName != "Juan" {
		t.Errorf("unexpected user %+v, %v", got, err)
	}
	if _, err := svc.GetUser(ctx, "u2"); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPayoutDetails_Limits(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*PayoutDetails)
		field string
	}{
		{"txn_id", func(d *PayoutDetails) { d.TxnID = strings.Repeat("t", 41) }, "txn_id"},
		{"user_id", func(d *PayoutDetails) { d.UserID = strings.Repeat("u", 41) }, "user_id"},
		{"user_name", func(d *PayoutDetails) { d.UserName = strings.Repeat("n", 33) }, "user_name"},
		{"processor_detail", func(d *PayoutDetails) { d.ProcessorDetail = strings.Repeat("9", 33) }, "processor_detail"},
		{"email", func(d *PayoutDetails) { d.Email = strings.Repeat("e", 65) }, "email"},
		{"description", func(d *PayoutDetails) { d.Description = strings.Repeat("d", 129) }, "description"},
		{"three decimals", func(d *PayoutDetails) { d.Amount = decimal.RequireFromString("10.005") }, "amount"},
		{"amount too large", func(d *PayoutDetails) { d.Amount = decimal.New(1, 10) }, "amount"},
		{"currency", func(d *PayoutDetails) { d.Currency = "PESO" }, "currency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pay := newMemPayouts()
			svc := NewPayoutService(testConfig(), pay, &memUsers{}, nil, &mockGateway{}, nil, nil, nil)
			d := payoutDetails("PO-1")
			tt.edit(&d)

			_, err := svc.Create(context.Background(), BatchPayout{Items: []PayoutDetails{payoutDetails("PO-0"), d}})
			var ve *dragonpay.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(ve.Fields) != 1 || ve.Fields[0].Field != "items[1]."+tt.field {
				t.Errorf("unexpected fields %+v", ve.Fields)
			}
			if len(pay.rows) != 0 {
				t.Errorf("expected nothing written, got %d rows", len(pay.rows))
			}
		})
	}
}

func TestPayoutDetails_AtLimits(t *testing.T) {
	svc := NewPayoutService(testConfig(), newMemPayouts(), &memUsers{}, nil, &mockGateway{}, nil, nil, nil)
	d := payoutDetails(strings.Repeat("t", 40))
	d.UserName = strings.Repeat("n", 32)
	d.Amount = decimal.RequireFromString("9999999999.99")
	d.Currency = "PHP"
	if _, err := svc.Create(context.Background(), SinglePayout{d}); err != nil {
		t.Fatalf("expected values at the limits to pass: %v", err)
	}
}

func TestPayoutService_RegisterUser_Limits(t *testing.T) {
	valid := func() models.PayoutUser {
		return models.PayoutUser{ID: userID, FirstName: "Juan", LastName: "Cruz", Email: "j@c.ph", Mobile: "0917"}
	}
	tests := []struct {
		name  string
		edit  func(*models.PayoutUser)
		field string
	}{
		{"id not a uuid", func(u *models.PayoutUser) { u.ID = "u1" }, "id"},
		{"first_name", func(u *models.PayoutUser) { u.FirstName = strings.Repeat("j", 33) }, "first_name"},
		{"mobile", func(u *models.PayoutUser) { u.Mobile = strings.Repeat("0", 25) }, "mobile"},
		{"state", func(u *models.PayoutUser) { u.State = strings.Repeat("s", 17) }, "state"},
		{"zip", func(u *models.PayoutUser) { u.Zip = "123456789" }, "zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &memUsers{}
			svc := NewPayoutService(testConfig(), newMemPayouts(), users, nil, &mockGateway{}, nil, nil, nil)
			u := valid()
			tt.edit(&u)

			_, err := svc.RegisterUser(context.Background(), u)
			var ve *dragonpay.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(ve.Fields) != 1 || ve.Fields[0].Field != tt.field {
				t.Errorf("unexpected fields %+v", ve.Fields)
			}
			if _, err := svc.GetUser(context.Background(), u.ID); !errors.Is(err, repo.ErrNotFound) {
				t.Errorf("expected nothing stored, got %v", err)
			}
		})
	}
}

func TestPayoutService_FetchStatus_LostRace(t *testing.T) {
	pay := newMemPayouts(models.Payout{ID: "po-1", TxnID: "PO-1", Status: dragonpay.StatusPending})
	pay.beforeUpdate = func(rows map[string]models.Payout) {
		p := rows["po-1"]
		p.Status = dragonpay.StatusVoided
		rows["po-1"] = p
	}
	changes := &memChanges{}
	pub := &mockPublisher{}
	log, logs := newLogger()
	gw := &mockGateway{payoutStatusFn: func(context.Context, string) (dragonpay.Status, error) {
		return dragonpay.StatusSuccess, nil
	}}
	svc := NewPayoutService(testConfig(), pay, &memUsers{}, changes, gw, nil, pub, log)

	if _, err := svc.FetchStatus(context.Background(), "po-1"); !errors.Is(err, repo.ErrStaleStatus) {
		t.Fatalf("expected ErrStaleStatus, got %v", err)
	}
	if changes.len() != 0 || len(pub.sent) != 0 {
		t.Errorf("lost update must not record, got %d rows and %d events", changes.len(), len(pub.sent))
	}
	if logs.count("payout status updated") != 0 {
		t.Error("lost update must not log a transition")
	}
	if pay.rows["po-1"].Status != dragonpay.StatusVoided {
		t.Errorf("winner's status overwritten: %s", pay.rows["po-1"].Status)
	}
}
