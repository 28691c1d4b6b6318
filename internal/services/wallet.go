package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"economy-service/internal/models"
	"economy-service/internal/repositories/redisrepo"
	"economy-service/internal/repositories/sqliterepo"
)

type WalletService struct {
	store *sqliterepo.Store
	cache *redisrepo.WalletRepository

	now func() time.Time
}

func NewWalletService(store *sqliterepo.Store, cache *redisrepo.WalletRepository) *WalletService {
	return &WalletService{
		store: store,
		cache: cache,
		now:   time.Now,
	}
}

// GetWallet returns the user's wallet, creating a zeroed one on first access.
func (s *WalletService) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	wallet, err := s.store.GetWallet(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, sqliterepo.ErrWalletNotFound) {
		return nil, err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	wallet, err = tx.EnsureWallet(ctx, userID, s.now().UTC())
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return nil, fmt.Errorf("ensure wallet error: %w, rollback error: %v", err, rollbackErr)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return wallet, nil
}

// AdjustCredits applies a ledger-recorded credit change. Rejects with
// ErrInsufficientCredits when the delta would take the balance negative.
func (s *WalletService) AdjustCredits(ctx context.Context, userID string, delta int64, reason models.LedgerReason, refID string) (*models.Wallet, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	wallet, err := creditDelta(ctx, tx, userID, delta, reason, refID, s.now().UTC())
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return nil, fmt.Errorf("adjust credits error: %w, rollback error: %v", err, rollbackErr)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	cacheCredits(s.cache, userID, wallet.Credits)

	return wallet, nil
}

// ListLedger returns a user's most recent ledger entries for audit.
func (s *WalletService) ListLedger(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListLedgerEntries(ctx, userID, limit)
}
