package models

import "time"

const (
	SettingCreditMultiplier        = "credit_multiplier"
	SettingDropRateEventMultiplier = "drop_rate_event_multiplier"
	SettingTradeLocked             = "trade_locked"
)

// Settings is the snapshot of admin-tunable globals read once per operation.
// Nothing caches it beyond the operation that loaded it.
type Settings struct {
	CreditMultiplier        float64 `json:"creditMultiplier"`
	DropRateEventMultiplier float64 `json:"dropRateEventMultiplier"`
	TradeLocked             bool    `json:"tradeLocked"`
}

func DefaultSettings() Settings {
	return Settings{
		CreditMultiplier:        1,
		DropRateEventMultiplier: 1,
		TradeLocked:             false,
	}
}

// AdminEvent is an immutable audit row written for every admin mutation.
type AdminEvent struct {
	ID          string    `db:"id" json:"id"`
	AdminUserID string    `db:"admin_user_id" json:"adminUserId"`
	Action      string    `db:"action" json:"action"`
	PayloadJSON string    `db:"payload_json" json:"payloadJson"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
