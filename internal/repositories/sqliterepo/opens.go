package sqliterepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"economy-service/internal/models"
)

// GetOpenEventByKey looks the idempotency record up inside the transaction so
// the check and the later insert are one atomic unit.
func (t *Tx) GetOpenEventByKey(ctx context.Context, idempotencyKey string) (*models.OpenEvent, error) {
	var event models.OpenEvent

	query := `
		SELECT open_id, user_id, guild_id, set_code, product_code, result_json, idempotency_key, created_at
		FROM open_events WHERE idempotency_key = ?
	`

	if err := t.tx.GetContext(ctx, &event, query, idempotencyKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOpenEventNotFound
		}
		return nil, fmt.Errorf("failed to get open event: %w", err)
	}

	return &event, nil
}

// GetOpenEventByKey reads the idempotency record outside a transaction.
func (s *Store) GetOpenEventByKey(ctx context.Context, idempotencyKey string) (*models.OpenEvent, error) {
	var event models.OpenEvent

	query := `
		SELECT open_id, user_id, guild_id, set_code, product_code, result_json, idempotency_key, created_at
		FROM open_events WHERE idempotency_key = ?
	`

	if err := s.db.GetContext(ctx, &event, query, idempotencyKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOpenEventNotFound
		}
		return nil, fmt.Errorf("failed to get open event: %w", err)
	}

	return &event, nil
}

// InsertOpenEvent persists the idempotency record. The unique index on
// idempotency_key is the last line of defense against duplicate opens.
func (t *Tx) InsertOpenEvent(ctx context.Context, event *models.OpenEvent) error {
	query := `
		INSERT INTO open_events (open_id, user_id, guild_id, set_code, product_code, result_json, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := t.tx.ExecContext(ctx, query,
		event.OpenID,
		event.UserID,
		event.GuildID,
		event.SetCode,
		event.ProductCode,
		event.ResultJSON,
		event.IdempotencyKey,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert open event: %w", err)
	}

	return nil
}

// CountInstancesForBatch counts instances minted under one batch id.
func (s *Store) CountInstancesForBatch(ctx context.Context, mintBatchID string) (int64, error) {
	var count int64

	query := `SELECT COUNT(*) FROM card_instances WHERE mint_batch_id = ?`

	if err := s.db.GetContext(ctx, &count, query, mintBatchID); err != nil {
		return 0, fmt.Errorf("failed to count batch instances: %w", err)
	}

	return count, nil
}
