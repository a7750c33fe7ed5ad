package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/baharkarakas/dragonpay-gateway/internal/models"
	"github.com/baharkarakas/dragonpay-gateway/internal/worker"
)

const reconcilePage = 200

// ReconcileReport summarizes one sweep.
type ReconcileReport struct {
	Checked  int           `json:"checked"`
	Updated  int           `json:"updated"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Reconciler polls the gateway for every record that has not reached a final
// state. A sweep runs to completion; scheduling is left to the caller.
type Reconciler struct {
	trx  *TransactionService
	pay  *PayoutService
	pool *worker.Pool
	log  *slog.Logger
}

func NewReconciler(t *TransactionService, p *PayoutService, pool *worker.Pool, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{trx: t, pay: p, pool: pool, log: log}
}

func (r *Reconciler) Run(ctx context.Context) (ReconcileReport, error) {
	start := time.Now()

	txns, err := r.pendingTransactions(ctx)
	if err != nil {
		return ReconcileReport{}, err
	}
	payouts, err := r.pendingPayouts(ctx)
	if err != nil {
		return ReconcileReport{}, err
	}

	var (
		wg              sync.WaitGroup
		updated, failed atomic.Int64
	)
	submit := func(f func() (bool, error), kind, id string) error {
		wg.Add(1)
		err := r.pool.Submit(ctx, func() {
			defer wg.Done()
			changed, err := f()
			if err != nil {
				failed.Add(1)
				r.log.Warn("reconcile failed", "entity", kind, "id", id, "err", err)
				return
			}
			if changed {
				updated.Add(1)
			}
		})
		if err != nil {
			wg.Done()
		}
		return err
	}

	var submitErr error
	for _, tx := range txns {
		if submitErr = submit(func() (bool, error) {
			got, err := r.trx.FetchStatus(ctx, tx.ID)
			if err != nil {
				return false, err
			}
			return got != nil && got.Status != tx.Status, nil
		}, string(models.EntityTransaction), tx.ID); submitErr != nil {
			break
		}
	}
	for _, p := range payouts {
		if submitErr != nil {
			break
		}
		submitErr = submit(func() (bool, error) {
			got, err := r.pay.FetchStatus(ctx, p.ID)
			if err != nil {
				return false, err
			}
			return got != nil && got.Status != p.Status, nil
		}, string(models.EntityPayout), p.ID)
	}
	wg.Wait()

	rep := ReconcileReport{
		Checked:  len(txns) + len(payouts),
		Updated:  int(updated.Load()),
		Failed:   int(failed.Load()),
		Duration: time.Since(start),
	}
	r.log.Info("reconcile finished",
		"checked", rep.Checked, "updated", rep.Updated, "failed", rep.Failed, "elapsed", rep.Duration)
	if submitErr != nil {
		return rep, fmt.Errorf("reconcile interrupted: %w", submitErr)
	}
	return rep, nil
}

// Rows are collected before any update so paging is not disturbed by records
// leaving the filter mid-sweep.
func (r *Reconciler) pendingTransactions(ctx context.Context) ([]models.Transaction, error) {
	if r.trx == nil || !r.trx.cfg.SaveData {
		return nil, nil
	}
	var all []models.Transaction
	for offset := 0; ; offset += reconcilePage {
		page, err := r.trx.List(ctx, models.TransactionFilter{Incomplete: true, Limit: reconcilePage, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("list incomplete transactions: %w", err)
		}
		all = append(all, page...)
		if len(page) < reconcilePage {
			return all, nil
		}
	}
}

func (r *Reconciler) pendingPayouts(ctx context.Context) ([]models.Payout, error) {
	if r.pay == nil || !r.pay.cfg.SaveData {
		return nil, nil
	}
	completed := false
	var all []models.Payout
	for offset := 0; ; offset += reconcilePage {
		page, err := r.pay.List(ctx, models.PayoutFilter{Completed: &completed, Limit: reconcilePage, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("list open payouts: %w", err)
		}
		all = append(all, page...)
		if len(page) < reconcilePage {
			return all, nil
		}
	}
}
