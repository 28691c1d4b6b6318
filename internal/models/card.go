package models

import "time"

// Catalog models. The catalog is populated by an external sync collaborator;
// the engine only reads it (plus upserts exposed for that collaborator).
type CardSet struct {
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

type Card struct {
	CardID        string  `db:"card_id" json:"cardId" validate:"required"`
	SetCode       string  `db:"set_code" json:"setCode"`
	Name          string  `db:"name" json:"name"`
	RarityTier    int     `db:"rarity_tier" json:"rarityTier" validate:"min=1,max=6"`
	MarketPrice   float64 `db:"market_price" json:"marketPrice"`
	FallbackPrice float64 `db:"fallback_price" json:"fallbackPrice"`
}

// PackSlot describes one draw slot of a pack product: how many cards it draws
// and the rarity-tier range those draws come from.
type PackSlot struct {
	SetCode     string `db:"set_code" json:"setCode"`
	ProductCode string `db:"product_code" json:"productCode"`
	SlotIndex   int    `db:"slot_index" json:"slotIndex"`
	MinTier     int    `db:"min_tier" json:"minTier"`
	MaxTier     int    `db:"max_tier" json:"maxTier"`
	DrawCount   int    `db:"draw_count" json:"drawCount"`
}

const (
	InstanceStateOwned       = "owned"
	InstanceStateTradeLocked = "trade_locked"
)

const (
	MintSourcePackOpen   = "pack_open"
	MintSourceAdminGrant = "admin_grant"
)

type CardInstance struct {
	InstanceID  string    `db:"instance_id" json:"instanceId"`
	CardID      string    `db:"card_id" json:"cardId"`
	OwnerUserID string    `db:"owner_user_id" json:"ownerUserId"`
	MintedAt    time.Time `db:"minted_at" json:"mintedAt"`
	MintSource  string    `db:"mint_source" json:"mintSource"`
	MintBatchID string    `db:"mint_batch_id" json:"mintBatchId"`
	State       string    `db:"state" json:"state"`
	LockTradeID string    `db:"lock_trade_id" json:"lockTradeId,omitempty"`
}

// InventoryItem is a card instance joined with its catalog card for listing.
type InventoryItem struct {
	InstanceID string    `db:"instance_id" json:"instanceId"`
	CardID     string    `db:"card_id" json:"cardId"`
	Name       string    `db:"name" json:"name"`
	SetCode    string    `db:"set_code" json:"setCode"`
	RarityTier int       `db:"rarity_tier" json:"rarityTier"`
	State      string    `db:"state" json:"state"`
	MintedAt   time.Time `db:"minted_at" json:"mintedAt"`
}
