package models

import (
	"time"

	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
)

type EntityType string

const (
	EntityTransaction EntityType = "transaction"
	EntityPayout      EntityType = "payout"
)

// ChangeSource tells whether a status came in by callback or by polling.
type ChangeSource string

const (
	SourceCallback ChangeSource = "callback"
	SourcePoll     ChangeSource = "poll"
)

// StatusChange is the audit record written for every old -> new transition.
type StatusChange struct {
	ID         int64            `json:"id"`
	EntityType EntityType       `json:"entity_type"`
	EntityID   string           `json:"entity_id"`
	From       dragonpay.Status `json:"from"`
	To         dragonpay.Status `json:"to"`
	Source     ChangeSource     `json:"source"`
	Details    map[string]any   `json:"details,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
