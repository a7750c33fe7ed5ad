package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/baharkarakas/dragonpay-gateway/internal/models"
	repo "github.com/baharkarakas/dragonpay-gateway/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type transactionsRepo struct{ pool *pgxpool.Pool }

const txnColumns = `id, amount, currency, description, email, param1, param2, status, created_at, modified_at`

func scanTxn(row pgx.Row) (models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(&tx.ID, &tx.Amount, &tx.Currency, &tx.Description, &tx.Email,
		&tx.Param1, &tx.Param2, &tx.Status, &tx.CreatedAt, &tx.ModifiedAt)
	return tx, err
}

func (r *transactionsRepo) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	const q = `
INSERT INTO dragonpay_transactions (id, amount, currency, description, email, param1, param2, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING ` + txnColumns
	return scanTxn(r.pool.QueryRow(ctx, q,
		tx.ID, tx.Amount, tx.Currency, tx.Description, tx.Email, tx.Param1, tx.Param2, tx.Status))
}

func (r *transactionsRepo) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	tx, err := scanTxn(r.pool.QueryRow(ctx,
		`SELECT `+txnColumns+` FROM dragonpay_transactions WHERE id=$1`, id))
	return tx, notFound(err)
}

func (r *transactionsRepo) List(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	var w where
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Incomplete {
		w.add("modified_at IS NULL")
	}
	if f.Search != "" {
		w.add("(id ILIKE ? OR email ILIKE ?)", "%"+f.Search+"%", "%"+f.Search+"%")
	}
	q := `SELECT ` + txnColumns + ` FROM dragonpay_transactions` + w.String() +
		` ORDER BY created_at DESC` + w.page(f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, q, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		tx, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *transactionsRepo) UpdateStatus(ctx context.Context, id string, from, to dragonpay.Status, at time.Time) (models.Transaction, error) {
	tx, err := scanTxn(r.pool.QueryRow(ctx,
		`UPDATE dragonpay_transactions
		    SET status=$3, modified_at=$4
		  WHERE id=$1 AND status=$2
		  RETURNING `+txnColumns,
		id, from, to, at))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return models.Transaction{}, gerr
		}
		return models.Transaction{}, repo.ErrStaleStatus
	}
	return tx, err
}
