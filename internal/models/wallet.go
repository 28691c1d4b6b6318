package models

import "time"

// Database model
type Wallet struct {
	UserID         string     `db:"user_id" json:"userId"`
	Credits        int64      `db:"credits" json:"credits"`
	OpenedCount    int64      `db:"opened_count" json:"openedCount"`
	StreakDays     int        `db:"streak_days" json:"streakDays"`
	LastOpenAt     *time.Time `db:"last_open_at" json:"lastOpenAt,omitempty"`
	LastFreePackAt *time.Time `db:"last_free_pack_at" json:"lastFreePackAt,omitempty"`
	LastStreakDay  string     `db:"last_streak_day" json:"lastStreakDay,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"-"`
	UpdatedAt      time.Time  `db:"updated_at" json:"-"`
}

type LedgerReason string

// Closed set of ledger reasons so reconciliation code can be exhaustive.
const (
	ReasonPackOpenReward LedgerReason = "pack_open_reward"
	ReasonTradeReserve   LedgerReason = "trade_reserve"
	ReasonTradeRelease   LedgerReason = "trade_release"
	ReasonTradeReceive   LedgerReason = "trade_receive"
	ReasonTradePay       LedgerReason = "trade_pay"
	ReasonAdminGrant     LedgerReason = "admin_grant"
	ReasonAdminRevoke    LedgerReason = "admin_revoke"
)

// LedgerEntry is append-only; rows are never updated or deleted. The sum of a
// user's deltas always equals the wallet's current credits.
type LedgerEntry struct {
	ID           string       `db:"id" json:"id"`
	UserID       string       `db:"user_id" json:"userId"`
	DeltaCredits int64        `db:"delta_credits" json:"deltaCredits"`
	Reason       LedgerReason `db:"reason" json:"reason"`
	RefID        string       `db:"ref_id" json:"refId,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
}
