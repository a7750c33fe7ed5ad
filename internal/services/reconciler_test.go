package services

import (
	"context"
	"errors"
	"testing"

	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/baharkarakas/dragonpay-gateway/internal/models"
	"github.com/baharkarakas/dragonpay-gateway/internal/worker"
)

func TestReconciler_Run(t *testing.T) {
	done := pendingTxn("T-done")
	done.Status = dragonpay.StatusSuccess
	at := done.CreatedAt
	done.ModifiedAt = &at

	trx := newMemTransactions(pendingTxn("T-1"), pendingTxn("T-2"), pendingTxn("T-3"), done)
	pay := newMemPayouts(
		models.Payout{ID: "po-1", TxnID: "PO-1", Status: dragonpay.StatusPending},
		models.Payout{ID: "po-2", TxnID: "PO-2", Status: dragonpay.StatusFailed},
	)
	gw := &mockGateway{
		txnStatusFn: func(_ context.Context, id string) (dragonpay.Status, error) {
			switch id {
			case "T-1":
				return dragonpay.StatusSuccess, nil
			case "T-2":
				return dragonpay.StatusPending, nil
			case "T-done":
				t.Error("completed transactions must not be polled")
			}
			return "", errors.New("boom")
		},
		payoutStatusFn: func(_ context.Context, txnID string) (dragonpay.Status, error) {
			if txnID == "PO-2" {
				t.Error("completed payouts must not be polled")
			}
			return dragonpay.StatusInProgress, nil
		},
	}
	log, _ := newLogger()
	ts := NewTransactionService(testConfig(), trx, &memChanges{}, gw, nil, nil, log)
	ps := NewPayoutService(testConfig(), pay, &memUsers{}, &memChanges{}, gw, nil, nil, log)

	pool := worker.NewPool(2)
	defer pool.Stop()

	rep, err := NewReconciler(ts, ps, pool, log).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rep.Checked != 4 || rep.Updated != 2 || rep.Failed != 1 {
		t.Errorf("unexpected report %+v", rep)
	}
	if trx.rows["T-1"].Status != dragonpay.StatusSuccess || pay.rows["po-1"].Status != dragonpay.StatusInProgress {
		t.Error("expected records to be updated")
	}
}

func TestReconciler_Paging(t *testing.T) {
	calls := 0
	trx := newMemTransactions()
	trx.listFn = func(f models.TransactionFilter) ([]models.Transaction, error) {
		calls++
		if !f.Incomplete || f.Limit != reconcilePage {
			t.Errorf("unexpected filter %+v", f)
		}
		if f.Offset == 0 {
			return make([]models.Transaction, reconcilePage), nil
		}
		return nil, nil
	}
	svc := NewTransactionService(testConfig(), trx, nil, &mockGateway{}, nil, nil, nil)
	r := NewReconciler(svc, nil, nil, nil)

	got, err := r.pendingTransactions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != reconcilePage || calls != 2 {
		t.Errorf("expected %d rows over 2 pages, got %d over %d", reconcilePage, len(got), calls)
	}
}

func TestReconciler_PersistenceDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.SaveData = false
	trx := newMemTransactions()
	trx.listFn = func(models.TransactionFilter) ([]models.Transaction, error) {
		t.Error("nothing to list without persistence")
		return nil, nil
	}
	ts := NewTransactionService(cfg, trx, nil, &mockGateway{}, nil, nil, nil)
	ps := NewPayoutService(cfg, newMemPayouts(), &memUsers{}, nil, &mockGateway{}, nil, nil, nil)
	pool := worker.NewPool(1)
	defer pool.Stop()

	rep, err := NewReconciler(ts, ps, pool, nil).Run(context.Background())
	if err != nil || rep.Checked != 0 {
		t.Errorf("expected empty sweep, got %+v, %v", rep, err)
	}
}
