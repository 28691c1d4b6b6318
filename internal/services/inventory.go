package services

import (
	"context"
	"errors"
	"time"

	"economy-service/internal/logger"
	"economy-service/internal/models"
	"economy-service/internal/repositories/redisrepo"
	"economy-service/internal/repositories/sqliterepo"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type InventoryService struct {
	store *sqliterepo.Store
	cache *redisrepo.WalletRepository

	freePackCooldown time.Duration
	now              func() time.Time
}

func NewInventoryService(store *sqliterepo.Store, cache *redisrepo.WalletRepository, freePackCooldown time.Duration) *InventoryService {
	return &InventoryService{
		store:            store,
		cache:            cache,
		freePackCooldown: freePackCooldown,
		now:              time.Now,
	}
}

// GetInventoryPage returns one page of the user's inventory, newest first,
// optionally filtered by set code and a card-name substring.
func (s *InventoryService) GetInventoryPage(ctx context.Context, userID string, page, pageSize int, setCode, nameFilter string) (*models.InventoryPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	offset := (page - 1) * pageSize

	items, total, err := s.store.ListInventoryPage(ctx, userID, pageSize, offset, setCode, nameFilter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.InventoryItem{}
	}

	return &models.InventoryPage{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasMore:  int64(offset+len(items)) < total,
	}, nil
}

// GetOverview summarizes the user's wallet, inventory size and free-pack
// cooldown. Credits are served from the cache when warm; the durable store is
// always read for the rest and refreshes the cache on a miss.
func (s *InventoryService) GetOverview(ctx context.Context, userID string) (*models.Overview, error) {
	wallet, err := s.store.GetWallet(ctx, userID)
	if err != nil {
		if !errors.Is(err, sqliterepo.ErrWalletNotFound) {
			return nil, err
		}
		wallet = &models.Wallet{UserID: userID, StreakDays: 1}
	} else if s.cache != nil {
		if credits, cacheErr := s.cache.GetCredits(ctx, userID); cacheErr == nil {
			wallet.Credits = credits
		} else {
			if !errors.Is(cacheErr, redisrepo.ErrCreditsNotFound) {
				logger.Sugar().Warnw("credits cache read failed", "user_id", userID, "error", cacheErr)
			}
			cacheCredits(s.cache, userID, wallet.Credits)
		}
	}

	count, err := s.store.CountInstancesByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	var cooldownRemaining time.Duration
	if wallet.LastFreePackAt != nil {
		elapsed := s.now().UTC().Sub(*wallet.LastFreePackAt)
		if elapsed < s.freePackCooldown {
			cooldownRemaining = s.freePackCooldown - elapsed
		}
	}

	return &models.Overview{
		Wallet:                  wallet,
		InventoryCount:          count,
		FreePackAvailable:       cooldownRemaining == 0,
		FreePackCooldownSeconds: int64(cooldownRemaining / time.Second),
	}, nil
}
