package services

import (
	"context"
	"encoding/json"
	"time"

	"economy-service/internal/logger"
	"economy-service/internal/models"
	"economy-service/internal/repositories/kafkarepo"
	"economy-service/internal/repositories/redisrepo"
	"economy-service/internal/repositories/sqliterepo"

	"github.com/google/uuid"
)

// creditDelta applies a ledger-recorded balance change inside the caller's
// transaction: it reads (or lazily creates) the wallet, rejects any change
// that would take credits below zero, and writes the new balance plus one
// append-only ledger entry.
func creditDelta(ctx context.Context, tx *sqliterepo.Tx, userID string, delta int64, reason models.LedgerReason, refID string, now time.Time) (*models.Wallet, error) {
	wallet, err := tx.EnsureWallet(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	if wallet.Credits+delta < 0 {
		return nil, ErrInsufficientCredits
	}

	wallet.Credits += delta
	wallet.UpdatedAt = now

	if err := tx.UpdateWallet(ctx, wallet); err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		ID:           uuid.New().String(),
		UserID:       userID,
		DeltaCredits: delta,
		Reason:       reason,
		RefID:        refID,
		CreatedAt:    now,
	}
	if err := tx.InsertLedgerEntry(ctx, entry); err != nil {
		return nil, err
	}

	return wallet, nil
}

// cacheCredits refreshes the wallet cache after a commit. Best effort: the
// cache is never the source of truth, so errors are only logged.
func cacheCredits(cache *redisrepo.WalletRepository, userID string, credits int64) {
	if cache == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := cache.SetCredits(ctx, userID, credits); err != nil {
			logger.Sugar().Warnw("failed to update credits cache", "user_id", userID, "error", err)
		}
	}()
}

// publishEvent emits an economy event after a commit. Best effort: events are
// notifications for external collaborators, never part of the atomic unit.
func publishEvent(events *kafkarepo.EventRepository, eventType, userID, refID string, payload interface{}) {
	if events == nil {
		return
	}

	var raw json.RawMessage
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			raw = b
		}
	}

	event := models.EconomyEvent{
		Type:       eventType,
		UserID:     userID,
		RefID:      refID,
		Payload:    raw,
		OccurredAt: time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := events.Publish(ctx, event); err != nil {
			logger.Sugar().Warnw("failed to publish economy event", "type", eventType, "user_id", userID, "error", err)
		}
	}()
}
