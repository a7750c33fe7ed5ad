package postgres

import (
	"context"
	"errors"

	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/baharkarakas/dragonpay-gateway/internal/models"
	repo "github.com/baharkarakas/dragonpay-gateway/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type payoutsRepo struct{ pool *pgxpool.Pool }

const payoutColumns = `id, txn_id, user_id, user_name, processor_id, processor_detail, email, mobile,
	amount, currency, description, status, created_at, modified_at`

const insertPayout = `
INSERT INTO dragonpay_payouts (id, txn_id, user_id, user_name, processor_id, processor_detail,
  email, mobile, amount, currency, description, status, created_at, modified_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,COALESCE($13, now()), now())
RETURNING ` + payoutColumns

func scanPayout(row pgx.Row) (models.Payout, error) {
	var p models.Payout
	err := row.Scan(&p.ID, &p.TxnID, &p.UserID, &p.UserName, &p.ProcessorID, &p.ProcessorDetail,
		&p.Email, &p.Mobile, &p.Amount, &p.Currency, &p.Description, &p.Status, &p.CreatedAt, &p.ModifiedAt)
	return p, err
}

func insertArgs(p models.Payout) []any {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	var created any
	if !p.CreatedAt.IsZero() {
		created = p.CreatedAt
	}
	return []any{p.ID, p.TxnID, p.UserID, p.UserName, p.ProcessorID, p.ProcessorDetail,
		p.Email, p.Mobile, p.Amount, p.Currency, p.Description, p.Status, created}
}

func (r *payoutsRepo) Create(ctx context.Context, p models.Payout) (models.Payout, error) {
	return scanPayout(r.pool.QueryRow(ctx, insertPayout, insertArgs(p)...))
}

func (r *payoutsRepo) CreateBatch(ctx context.Context, ps []models.Payout) ([]models.Payout, error) {
	out := make([]models.Payout, 0, len(ps))
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		for _, p := range ps {
			created, err := scanPayout(tx.QueryRow(ctx, insertPayout, insertArgs(p)...))
			if err != nil {
				return err
			}
			out = append(out, created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *payoutsRepo) GetByID(ctx context.Context, id string) (models.Payout, error) {
	p, err := scanPayout(r.pool.QueryRow(ctx,
		`SELECT `+payoutColumns+` FROM dragonpay_payouts WHERE id=$1`, id))
	return p, notFound(err)
}

func (r *payoutsRepo) List(ctx context.Context, f models.PayoutFilter) ([]models.Payout, error) {
	var w where
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Completed != nil {
		done := []string{}
		for _, s := range dragonpay.CompletedPayoutStatuses {
			done = append(done, string(s))
		}
		if *f.Completed {
			w.add("status = ANY(?)", done)
		} else {
			w.add("NOT (status = ANY(?))", done)
		}
	}
	if f.Search != "" {
		s := "%" + f.Search + "%"
		w.add("(txn_id ILIKE ? OR user_id ILIKE ? OR user_name ILIKE ? OR email ILIKE ?)", s, s, s, s)
	}
	q := `SELECT ` + payoutColumns + ` FROM dragonpay_payouts` + w.String() +
		` ORDER BY created_at DESC` + w.page(f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, q, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Payout
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *payoutsRepo) UpdateStatus(ctx context.Context, id string, from, to dragonpay.Status) (models.Payout, error) {
	p, err := scanPayout(r.pool.QueryRow(ctx,
		`UPDATE dragonpay_payouts
		    SET status=$3, modified_at=now()
		  WHERE id=$1 AND status=$2
		  RETURNING `+payoutColumns,
		id, from, to))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return models.Payout{}, gerr
		}
		return models.Payout{}, repo.ErrStaleStatus
	}
	return p, err
}

func (r *payoutsRepo) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
