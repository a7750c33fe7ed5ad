package postgres

import (
	"context"

	"github.com/baharkarakas/dragonpay-gateway/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type statusChangesRepo struct{ pool *pgxpool.Pool }

func (r *statusChangesRepo) Create(ctx context.Context, c models.StatusChange) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO dragonpay_status_changes(entity_type, entity_id, from_status, to_status, source, details)
		 VALUES($1,$2,$3,$4,$5,$6)`,
		c.EntityType, c.EntityID, c.From, c.To, c.Source, c.Details)
	return err
}

func (r *statusChangesRepo) ListByEntity(ctx context.Context, entity models.EntityType, id string) ([]models.StatusChange, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, entity_type, entity_id, from_status, to_status, source, details, created_at
		   FROM dragonpay_status_changes
		  WHERE entity_type=$1 AND entity_id=$2
		  ORDER BY created_at, id`,
		entity, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StatusChange
	for rows.Next() {
		var c models.StatusChange
		if err := rows.Scan(&c.ID, &c.EntityType, &c.EntityID, &c.From, &c.To, &c.Source, &c.Details, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
