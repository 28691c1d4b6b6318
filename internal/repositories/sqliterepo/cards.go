package sqliterepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"economy-service/internal/models"
)

// GetCard looks a catalog card up inside the transaction.
func (t *Tx) GetCard(ctx context.Context, cardID string) (*models.Card, error) {
	var card models.Card

	query := `
		SELECT card_id, set_code, name, rarity_tier, market_price, fallback_price
		FROM cards WHERE card_id = ?
	`

	if err := t.tx.GetContext(ctx, &card, query, cardID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	return &card, nil
}

// InsertCardInstance mints one card instance.
func (t *Tx) InsertCardInstance(ctx context.Context, inst *models.CardInstance) error {
	query := `
		INSERT INTO card_instances (instance_id, card_id, owner_user_id, minted_at, mint_source, mint_batch_id, state, lock_trade_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := t.tx.ExecContext(ctx, query,
		inst.InstanceID,
		inst.CardID,
		inst.OwnerUserID,
		inst.MintedAt,
		inst.MintSource,
		inst.MintBatchID,
		inst.State,
		inst.LockTradeID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card instance: %w", err)
	}

	return nil
}

// GetInstance reads one card instance inside the transaction.
func (t *Tx) GetInstance(ctx context.Context, instanceID string) (*models.CardInstance, error) {
	var inst models.CardInstance

	query := `
		SELECT instance_id, card_id, owner_user_id, minted_at, mint_source, mint_batch_id, state, lock_trade_id
		FROM card_instances WHERE instance_id = ?
	`

	if err := t.tx.GetContext(ctx, &inst, query, instanceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to get card instance: %w", err)
	}

	return &inst, nil
}

// LockInstance moves an owned instance into trade_locked for the given trade.
// The state guard in the WHERE clause is what makes concurrent offers on the
// same card impossible: only one update can match.
func (t *Tx) LockInstance(ctx context.Context, instanceID, ownerUserID, tradeID string) error {
	query := `
		UPDATE card_instances
		SET state = ?, lock_trade_id = ?
		WHERE instance_id = ? AND owner_user_id = ? AND state = ?
	`

	result, err := t.tx.ExecContext(ctx, query,
		models.InstanceStateTradeLocked, tradeID,
		instanceID, ownerUserID, models.InstanceStateOwned,
	)
	if err != nil {
		return fmt.Errorf("failed to lock card instance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrInstanceUnavailable
	}

	return nil
}

// TransferLockedInstance moves a trade-locked instance to its new owner and
// releases the lock. Guarded on the lock belonging to the given trade.
func (t *Tx) TransferLockedInstance(ctx context.Context, instanceID, fromUserID, toUserID, tradeID string) error {
	query := `
		UPDATE card_instances
		SET owner_user_id = ?, state = ?, lock_trade_id = ''
		WHERE instance_id = ? AND owner_user_id = ? AND state = ? AND lock_trade_id = ?
	`

	result, err := t.tx.ExecContext(ctx, query,
		toUserID, models.InstanceStateOwned,
		instanceID, fromUserID, models.InstanceStateTradeLocked, tradeID,
	)
	if err != nil {
		return fmt.Errorf("failed to transfer locked card instance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrInstanceUnavailable
	}

	return nil
}

// TransferOwnedInstance moves an unlocked owned instance to a new owner.
// Used for the request side of a trade, which is never escrow-locked.
func (t *Tx) TransferOwnedInstance(ctx context.Context, instanceID, fromUserID, toUserID string) error {
	query := `
		UPDATE card_instances
		SET owner_user_id = ?
		WHERE instance_id = ? AND owner_user_id = ? AND state = ?
	`

	result, err := t.tx.ExecContext(ctx, query,
		toUserID, instanceID, fromUserID, models.InstanceStateOwned,
	)
	if err != nil {
		return fmt.Errorf("failed to transfer card instance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrInstanceUnavailable
	}

	return nil
}

// UnlockInstancesForTrade releases every instance locked by the given trade.
func (t *Tx) UnlockInstancesForTrade(ctx context.Context, tradeID string) (int64, error) {
	query := `
		UPDATE card_instances
		SET state = ?, lock_trade_id = ''
		WHERE lock_trade_id = ? AND state = ?
	`

	result, err := t.tx.ExecContext(ctx, query,
		models.InstanceStateOwned, tradeID, models.InstanceStateTradeLocked,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to unlock card instances: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
