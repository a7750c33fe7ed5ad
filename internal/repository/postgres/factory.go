package postgres

import (
	repo "github.com/baharkarakas/dragonpay-gateway/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Transactions  repo.Transactions
	Payouts       repo.Payouts
	PayoutUsers   repo.PayoutUsers
	StatusChanges repo.StatusChanges
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Transactions:  &transactionsRepo{pool},
		Payouts:       &payoutsRepo{pool},
		PayoutUsers:   &payoutUsersRepo{pool},
		StatusChanges: &statusChangesRepo{pool},
	}
}
