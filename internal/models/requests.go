package models

// Transport request/response models.

type OpenPackRequest struct {
	IdempotencyKey string `json:"idempotencyKey" validate:"required"`
	UserID         string `json:"userId" validate:"required"`
	GuildID        string `json:"guildId"`
	SetCode        string `json:"setCode" validate:"required"`
	ProductCode    string `json:"productCode" validate:"required"`

	// Draws are catalog cards already resolved by the caller. When empty the
	// handler resolves them from the stored pack slot profiles.
	Draws []Card `json:"draws"`
}

type CreateOfferRequest struct {
	OfferedBy      string   `json:"offeredBy" validate:"required"`
	OfferedTo      string   `json:"offeredTo" validate:"required"`
	OfferCardIDs   []string `json:"offerCardIds" validate:"required,min=1"`
	RequestCardIDs []string `json:"requestCardIds"`
	OfferCredits   int64    `json:"offerCredits" validate:"min=0"`
	RequestCredits int64    `json:"requestCredits" validate:"min=0"`
}

type TradeActionRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type SetMultiplierRequest struct {
	Key   string  `json:"key" validate:"required,oneof=credit_multiplier drop_rate_event_multiplier"`
	Value float64 `json:"value" validate:"gt=0"`
}

type SetTradeLockedRequest struct {
	Enabled bool `json:"enabled"`
}

type GrantCreditsRequest struct {
	UserID string `json:"userId" validate:"required"`
	Delta  int64  `json:"delta" validate:"required"`
	Reason string `json:"reason"`
}

type GrantCardsRequest struct {
	UserID  string   `json:"userId" validate:"required"`
	CardIDs []string `json:"cardIds" validate:"required,min=1"`
	Source  string   `json:"source"`
}

type InventoryPage struct {
	Items    []InventoryItem `json:"items"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
	Total    int64           `json:"total"`
	HasMore  bool            `json:"hasMore"`
}

type Overview struct {
	Wallet                   *Wallet `json:"wallet"`
	InventoryCount           int64   `json:"inventoryCount"`
	FreePackAvailable        bool    `json:"freePackAvailable"`
	FreePackCooldownSeconds  int64   `json:"freePackCooldownSeconds"`
}
