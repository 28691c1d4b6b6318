package sqliterepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"economy-service/internal/models"
)

// Catalog writes are for the external sync collaborator; the engine itself
// only reads these tables.

func (s *Store) UpsertCardSet(ctx context.Context, set *models.CardSet) error {
	query := `
		INSERT INTO card_sets (code, name) VALUES (?, ?)
		ON CONFLICT(code) DO UPDATE SET name = excluded.name
	`

	if _, err := s.db.ExecContext(ctx, query, set.Code, set.Name); err != nil {
		return fmt.Errorf("failed to upsert card set: %w", err)
	}

	return nil
}

func (s *Store) UpsertCard(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO cards (card_id, set_code, name, rarity_tier, market_price, fallback_price)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(card_id) DO UPDATE SET
			set_code = excluded.set_code,
			name = excluded.name,
			rarity_tier = excluded.rarity_tier,
			market_price = excluded.market_price,
			fallback_price = excluded.fallback_price
	`

	_, err := s.db.ExecContext(ctx, query,
		card.CardID, card.SetCode, card.Name, card.RarityTier, card.MarketPrice, card.FallbackPrice,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert card: %w", err)
	}

	return nil
}

func (s *Store) UpsertPackSlot(ctx context.Context, slot *models.PackSlot) error {
	query := `
		INSERT INTO pack_slots (set_code, product_code, slot_index, min_tier, max_tier, draw_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(set_code, product_code, slot_index) DO UPDATE SET
			min_tier = excluded.min_tier,
			max_tier = excluded.max_tier,
			draw_count = excluded.draw_count
	`

	_, err := s.db.ExecContext(ctx, query,
		slot.SetCode, slot.ProductCode, slot.SlotIndex, slot.MinTier, slot.MaxTier, slot.DrawCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pack slot: %w", err)
	}

	return nil
}

func (s *Store) GetCard(ctx context.Context, cardID string) (*models.Card, error) {
	var card models.Card

	query := `
		SELECT card_id, set_code, name, rarity_tier, market_price, fallback_price
		FROM cards WHERE card_id = ?
	`

	if err := s.db.GetContext(ctx, &card, query, cardID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	return &card, nil
}

// ListPackSlots returns the slot profile of a pack product in slot order.
func (s *Store) ListPackSlots(ctx context.Context, setCode, productCode string) ([]models.PackSlot, error) {
	query := `
		SELECT set_code, product_code, slot_index, min_tier, max_tier, draw_count
		FROM pack_slots
		WHERE set_code = ? AND product_code = ?
		ORDER BY slot_index ASC
	`

	var slots []models.PackSlot
	if err := s.db.SelectContext(ctx, &slots, query, setCode, productCode); err != nil {
		return nil, fmt.Errorf("failed to list pack slots: %w", err)
	}

	return slots, nil
}

// ListCardsByTier returns all cards of a set in a rarity tier.
func (s *Store) ListCardsByTier(ctx context.Context, setCode string, tier int) ([]models.Card, error) {
	query := `
		SELECT card_id, set_code, name, rarity_tier, market_price, fallback_price
		FROM cards
		WHERE set_code = ? AND rarity_tier = ?
		ORDER BY card_id ASC
	`

	var cards []models.Card
	if err := s.db.SelectContext(ctx, &cards, query, setCode, tier); err != nil {
		return nil, fmt.Errorf("failed to list cards by tier: %w", err)
	}

	return cards, nil
}

// ListCardsByTierRange returns all cards of a set within a rarity tier range.
func (s *Store) ListCardsByTierRange(ctx context.Context, setCode string, minTier, maxTier int) ([]models.Card, error) {
	query := `
		SELECT card_id, set_code, name, rarity_tier, market_price, fallback_price
		FROM cards
		WHERE set_code = ? AND rarity_tier BETWEEN ? AND ?
		ORDER BY rarity_tier ASC, card_id ASC
	`

	var cards []models.Card
	if err := s.db.SelectContext(ctx, &cards, query, setCode, minTier, maxTier); err != nil {
		return nil, fmt.Errorf("failed to list cards by tier range: %w", err)
	}

	return cards, nil
}
