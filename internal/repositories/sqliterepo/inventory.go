package sqliterepo

import (
	"context"
	"fmt"

	"economy-service/internal/models"
)

// CountInstancesByOwner counts a user's card instances.
func (s *Store) CountInstancesByOwner(ctx context.Context, userID string) (int64, error) {
	var count int64

	query := `SELECT COUNT(*) FROM card_instances WHERE owner_user_id = ?`

	if err := s.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count card instances: %w", err)
	}

	return count, nil
}

// ListInventoryPage returns one page of a user's inventory joined with the
// catalog, newest mints first, with optional set and name filters.
func (s *Store) ListInventoryPage(ctx context.Context, userID string, limit, offset int, setCode, nameFilter string) ([]models.InventoryItem, int64, error) {
	where := `WHERE ci.owner_user_id = ?`
	args := []interface{}{userID}

	if setCode != "" {
		where += ` AND c.set_code = ?`
		args = append(args, setCode)
	}
	if nameFilter != "" {
		where += ` AND c.name LIKE ?`
		args = append(args, "%"+nameFilter+"%")
	}

	countQuery := `
		SELECT COUNT(*)
		FROM card_instances ci
		JOIN cards c ON c.card_id = ci.card_id
	` + where

	var total int64
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count inventory: %w", err)
	}

	pageQuery := `
		SELECT ci.instance_id, ci.card_id, c.name, c.set_code, c.rarity_tier, ci.state, ci.minted_at
		FROM card_instances ci
		JOIN cards c ON c.card_id = ci.card_id
	` + where + `
		ORDER BY ci.minted_at DESC, ci.instance_id DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, limit, offset)

	var items []models.InventoryItem
	if err := s.db.SelectContext(ctx, &items, pageQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list inventory page: %w", err)
	}

	return items, total, nil
}
