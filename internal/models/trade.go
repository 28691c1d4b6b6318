package models

import "time"

type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusSettled   TradeStatus = "settled"
	TradeStatusRejected  TradeStatus = "rejected"
	TradeStatusCancelled TradeStatus = "cancelled"
	TradeStatusExpired   TradeStatus = "expired"
)

// Trade transitions pending -> settled | rejected | cancelled | expired.
// Once non-pending a trade is immutable.
type Trade struct {
	TradeID        string      `json:"tradeId"`
	OfferedBy      string      `json:"offeredBy"`
	OfferedTo      string      `json:"offeredTo"`
	OfferCardIDs   []string    `json:"offerCardIds"`
	RequestCardIDs []string    `json:"requestCardIds"`
	OfferCredits   int64       `json:"offerCredits"`
	RequestCredits int64       `json:"requestCredits"`
	Status         TradeStatus `json:"status"`
	ExpiresAt      time.Time   `json:"expiresAt"`
	CreatedAt      time.Time   `json:"createdAt"`
	ResolvedAt     *time.Time  `json:"resolvedAt,omitempty"`
}
