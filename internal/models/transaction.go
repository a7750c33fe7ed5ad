package models

import (
	"time"

	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/shopspring/decimal"
)

// Transaction is an inbound payment keyed by the gateway transaction id.
type Transaction struct {
	ID          string           `json:"id"`
	Amount      decimal.Decimal  `json:"amount"`
	Currency    string           `json:"currency"`
	Description string           `json:"description"`
	Email       string           `json:"email"`
	Param1      *string          `json:"param1,omitempty"`
	Param2      *string          `json:"param2,omitempty"`
	Status      dragonpay.Status `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	ModifiedAt  *time.Time       `json:"modified_at,omitempty"`
}

// IsCompleted reports whether a callback or poll has updated the status at least once.
func (t Transaction) IsCompleted() bool { return t.ModifiedAt != nil }

type TransactionFilter struct {
	Status     dragonpay.Status
	Incomplete bool   // no callback or poll has updated it yet
	Search     string // txn id or email
	Limit      int
	Offset     int
}
