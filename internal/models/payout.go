package models

import (
	"time"

	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/shopspring/decimal"
)

// Payout is an outbound payment. TxnID is merchant-assigned and not unique;
// ID is the row key.
type Payout struct {
	ID              string           `json:"id"`
	TxnID           string           `json:"txn_id"`
	UserID          *string          `json:"user_id,omitempty"`
	UserName        *string          `json:"user_name,omitempty"`
	ProcessorID     *string          `json:"processor_id,omitempty"`
	ProcessorDetail *string          `json:"processor_detail,omitempty"`
	Email           *string          `json:"email,omitempty"`
	Mobile          *string          `json:"mobile,omitempty"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	Description     string           `json:"description"`
	Status          dragonpay.Status `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	ModifiedAt      time.Time        `json:"modified_at"`
}

// IsCompleted depends on status only; batch payouts may never see a callback.
func (p Payout) IsCompleted() bool { return p.Status.In(dragonpay.CompletedPayoutStatuses) }

type PayoutFilter struct {
	Status    dragonpay.Status
	Completed *bool
	Search    string // txn id, user id, user name or email
	Limit     int
	Offset    int
}
