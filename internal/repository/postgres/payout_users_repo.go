package postgres

import (
	"context"

	"github.com/baharkarakas/dragonpay-gateway/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type payoutUsersRepo struct{ pool *pgxpool.Pool }

func (r *payoutUsersRepo) Create(ctx context.Context, u models.PayoutUser) (models.PayoutUser, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO dragonpay_payout_users(id, first_name, middle_name, last_name, email, birthdate,
		   mobile, address1, address2, city, state, country, zip)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		u.ID, u.FirstName, u.MiddleName, u.LastName, u.Email, u.Birthdate,
		u.Mobile, u.Address1, u.Address2, u.City, u.State, u.Country, u.Zip,
	)
	if err != nil {
		return models.PayoutUser{}, err
	}
	return r.GetByID(ctx, u.ID)
}

func (r *payoutUsersRepo) GetByID(ctx context.Context, id string) (models.PayoutUser, error) {
	var u models.PayoutUser
	err := r.pool.QueryRow(ctx,
		`SELECT id, first_name, middle_name, last_name, email, birthdate, mobile,
		        address1, address2, city, state, country, zip
		   FROM dragonpay_payout_users WHERE id=$1`, id,
	).Scan(&u.ID, &u.FirstName, &u.MiddleName, &u.LastName, &u.Email, &u.Birthdate, &u.Mobile,
		&u.Address1, &u.Address2, &u.City, &u.State, &u.Country, &u.Zip)
	return u, notFound(err)
}
