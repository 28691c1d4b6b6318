package models

import (
	"encoding/json"
	"time"
)

// Economy event types published to Kafka after a successful commit.
const (
	EventPackOpened          = "pack.opened"
	EventTradeCreated        = "trade.created"
	EventTradeSettled        = "trade.settled"
	EventTradeRejected       = "trade.rejected"
	EventTradeCancelled      = "trade.cancelled"
	EventTradeExpired        = "trade.expired"
	EventAdminCreditsGranted = "admin.credits_granted"
	EventAdminCardsGranted   = "admin.cards_granted"
	EventAdminSettingChanged = "admin.setting_changed"
)

type EconomyEvent struct {
	Type       string          `json:"type"`
	UserID     string          `json:"user_id"`
	RefID      string          `json:"ref_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}
