package sqliterepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"economy-service/internal/models"
)

// GetWallet reads a wallet outside a transaction.
func (s *Store) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet models.Wallet

	query := `
		SELECT user_id, credits, opened_count, streak_days, last_open_at,
		       last_free_pack_at, last_streak_day, created_at, updated_at
		FROM wallets WHERE user_id = ?
	`

	if err := s.db.GetContext(ctx, &wallet, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &wallet, nil
}

// EnsureWallet reads the wallet inside the transaction, creating a zeroed row
// on first access. Wallets are created lazily and never deleted.
func (t *Tx) EnsureWallet(ctx context.Context, userID string, now time.Time) (*models.Wallet, error) {
	var wallet models.Wallet

	query := `
		SELECT user_id, credits, opened_count, streak_days, last_open_at,
		       last_free_pack_at, last_streak_day, created_at, updated_at
		FROM wallets WHERE user_id = ?
	`

	err := t.tx.GetContext(ctx, &wallet, query, userID)
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	insert := `
		INSERT INTO wallets (user_id, credits, opened_count, streak_days, last_streak_day, created_at, updated_at)
		VALUES (?, 0, 0, 1, '', ?, ?)
	`
	if _, err := t.tx.ExecContext(ctx, insert, userID, now, now); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	wallet = models.Wallet{
		UserID:     userID,
		StreakDays: 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return &wallet, nil
}

// UpdateWallet writes the full wallet row.
func (t *Tx) UpdateWallet(ctx context.Context, wallet *models.Wallet) error {
	query := `
		UPDATE wallets
		SET credits = ?, opened_count = ?, streak_days = ?, last_open_at = ?,
		    last_free_pack_at = ?, last_streak_day = ?, updated_at = ?
		WHERE user_id = ?
	`

	result, err := t.tx.ExecContext(ctx, query,
		wallet.Credits,
		wallet.OpenedCount,
		wallet.StreakDays,
		wallet.LastOpenAt,
		wallet.LastFreePackAt,
		wallet.LastStreakDay,
		wallet.UpdatedAt,
		wallet.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrWalletNotFound
	}

	return nil
}

// InsertLedgerEntry appends an immutable ledger row.
func (t *Tx) InsertLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, user_id, delta_credits, reason, ref_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := t.tx.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.DeltaCredits,
		entry.Reason,
		entry.RefID,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return nil
}

// SumLedgerDeltas returns the sum of a user's ledger deltas. Used by the
// reconciliation check: the sum must equal the wallet's current credits.
func (s *Store) SumLedgerDeltas(ctx context.Context, userID string) (int64, error) {
	var sum int64

	query := `SELECT COALESCE(SUM(delta_credits), 0) FROM ledger_entries WHERE user_id = ?`

	if err := s.db.GetContext(ctx, &sum, query, userID); err != nil {
		return 0, fmt.Errorf("failed to sum ledger deltas: %w", err)
	}

	return sum, nil
}

// ListLedgerEntries returns a user's most recent ledger entries.
func (s *Store) ListLedgerEntries(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error) {
	query := `
		SELECT id, user_id, delta_credits, reason, ref_id, created_at
		FROM ledger_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	var entries []models.LedgerEntry
	if err := s.db.SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	return entries, nil
}
