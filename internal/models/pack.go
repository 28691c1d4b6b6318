package models

import "time"

// OpenEvent is the idempotency record for a pack opening. At most one row per
// idempotency key; replays return the stored result verbatim.
type OpenEvent struct {
	OpenID         string    `db:"open_id"`
	UserID         string    `db:"user_id"`
	GuildID        string    `db:"guild_id"`
	SetCode        string    `db:"set_code"`
	ProductCode    string    `db:"product_code"`
	ResultJSON     string    `db:"result_json"`
	IdempotencyKey string    `db:"idempotency_key"`
	CreatedAt      time.Time `db:"created_at"`
}

type MintedCard struct {
	InstanceID string `json:"instanceId"`
	CardID     string `json:"cardId"`
	Name       string `json:"name"`
	SetCode    string `json:"setCode"`
	RarityTier int    `json:"rarityTier"`
}

type RewardBreakdown struct {
	Base        int64 `json:"base"`
	StreakBonus int64 `json:"streakBonus"`
	Earned      int64 `json:"earned"`
	StreakDays  int   `json:"streakDays"`
}

type OpenResult struct {
	OpenID      string          `json:"openId"`
	UserID      string          `json:"userId"`
	SetCode     string          `json:"setCode"`
	ProductCode string          `json:"productCode"`
	MintBatchID string          `json:"mintBatchId"`
	Cards       []MintedCard    `json:"cards"`
	Reward      RewardBreakdown `json:"reward"`

	// Replayed is true when the result was served from a stored OpenEvent.
	// Excluded from JSON so replayed payloads stay byte-identical.
	Replayed bool `json:"-"`
}
