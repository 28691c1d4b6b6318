package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"economy-service/internal/models"
	"economy-service/internal/repositories/kafkarepo"
	"economy-service/internal/repositories/redisrepo"
	"economy-service/internal/repositories/sqliterepo"

	"github.com/google/uuid"
)

const (
	baseReward        = 25
	streakBonusPerDay = 10
	maxStreakDays     = 7
	dayKeyFormat      = "2006-01-02"
)

type PackService struct {
	store  *sqliterepo.Store
	cache  *redisrepo.WalletRepository
	events *kafkarepo.EventRepository

	now func() time.Time
}

func NewPackService(store *sqliterepo.Store, cache *redisrepo.WalletRepository, events *kafkarepo.EventRepository) *PackService {
	return &PackService{
		store:  store,
		cache:  cache,
		events: events,
		now:    time.Now,
	}
}

// OpenPack mints the drawn cards, credits the streak-adjusted reward and
// records the idempotency key, all in one transaction. A request that replays
// a known idempotency key returns the stored result verbatim and mints
// nothing.
func (s *PackService) OpenPack(ctx context.Context, req models.OpenPackRequest) (*models.OpenResult, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	result, wallet, err := s.openInTx(ctx, tx, req)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return nil, fmt.Errorf("open pack error: %w, rollback error: %v", err, rollbackErr)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if !result.Replayed && wallet != nil {
		cacheCredits(s.cache, req.UserID, wallet.Credits)
		publishEvent(s.events, models.EventPackOpened, req.UserID, result.OpenID, result)
	}

	return result, nil
}

func (s *PackService) openInTx(ctx context.Context, tx *sqliterepo.Tx, req models.OpenPackRequest) (*models.OpenResult, *models.Wallet, error) {
	now := s.now().UTC()

	// Replay semantics: the idempotency lookup and the insert below live in
	// the same transaction, so two racing opens on one key cannot both mint.
	event, err := tx.GetOpenEventByKey(ctx, req.IdempotencyKey)
	if err == nil {
		var result models.OpenResult
		if err := json.Unmarshal([]byte(event.ResultJSON), &result); err != nil {
			return nil, nil, fmt.Errorf("failed to decode stored open result: %w", err)
		}
		result.Replayed = true
		return &result, nil, nil
	}
	if !errors.Is(err, sqliterepo.ErrOpenEventNotFound) {
		return nil, nil, err
	}

	if len(req.Draws) == 0 {
		return nil, nil, ErrNoCardsForSet
	}

	settings, err := tx.GetSettings(ctx)
	if err != nil {
		return nil, nil, err
	}

	wallet, err := tx.EnsureWallet(ctx, req.UserID, now)
	if err != nil {
		return nil, nil, err
	}

	streak, dayKey := nextStreak(wallet.LastStreakDay, wallet.StreakDays, now)

	openID := uuid.New().String()
	batchID := uuid.New().String()

	minted := make([]models.MintedCard, 0, len(req.Draws))
	for _, card := range req.Draws {
		inst := &models.CardInstance{
			InstanceID:  uuid.New().String(),
			CardID:      card.CardID,
			OwnerUserID: req.UserID,
			MintedAt:    now,
			MintSource:  models.MintSourcePackOpen,
			MintBatchID: batchID,
			State:       models.InstanceStateOwned,
		}
		if err := tx.InsertCardInstance(ctx, inst); err != nil {
			return nil, nil, err
		}

		minted = append(minted, models.MintedCard{
			InstanceID: inst.InstanceID,
			CardID:     card.CardID,
			Name:       card.Name,
			SetCode:    card.SetCode,
			RarityTier: card.RarityTier,
		})
	}

	base := int64(math.Round(baseReward * settings.CreditMultiplier))
	bonus := int64(math.Round(streakBonusPerDay * settings.CreditMultiplier * float64(max(0, streak-1))))
	earned := base + bonus

	wallet, err = creditDelta(ctx, tx, req.UserID, earned, models.ReasonPackOpenReward, openID, now)
	if err != nil {
		return nil, nil, err
	}

	openedAt := now
	wallet.OpenedCount++
	wallet.StreakDays = streak
	wallet.LastStreakDay = dayKey
	wallet.LastOpenAt = &openedAt
	wallet.LastFreePackAt = &openedAt
	wallet.UpdatedAt = now
	if err := tx.UpdateWallet(ctx, wallet); err != nil {
		return nil, nil, err
	}

	result := &models.OpenResult{
		OpenID:      openID,
		UserID:      req.UserID,
		SetCode:     req.SetCode,
		ProductCode: req.ProductCode,
		MintBatchID: batchID,
		Cards:       minted,
		Reward: models.RewardBreakdown{
			Base:        base,
			StreakBonus: bonus,
			Earned:      earned,
			StreakDays:  streak,
		},
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode open result: %w", err)
	}

	openEvent := &models.OpenEvent{
		OpenID:         openID,
		UserID:         req.UserID,
		GuildID:        req.GuildID,
		SetCode:        req.SetCode,
		ProductCode:    req.ProductCode,
		ResultJSON:     string(resultJSON),
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      now,
	}
	if err := tx.InsertOpenEvent(ctx, openEvent); err != nil {
		return nil, nil, err
	}

	return result, wallet, nil
}

// OpenPackFromCatalog resolves the draws from the stored pack slot profiles
// before opening. Known idempotency keys skip resolution entirely so replays
// still work against an emptied catalog.
func (s *PackService) OpenPackFromCatalog(ctx context.Context, req models.OpenPackRequest) (*models.OpenResult, error) {
	_, err := s.store.GetOpenEventByKey(ctx, req.IdempotencyKey)
	if err == nil {
		req.Draws = nil
		return s.OpenPack(ctx, req)
	}
	if !errors.Is(err, sqliterepo.ErrOpenEventNotFound) {
		return nil, err
	}

	draws, err := s.ResolveDraws(ctx, req.SetCode, req.ProductCode)
	if err != nil {
		return nil, err
	}
	req.Draws = draws

	return s.OpenPack(ctx, req)
}

// ResolveDraws rolls each configured pack slot within its rarity-tier range.
// The drop-rate event multiplier weights the roll toward the slot's top tier.
func (s *PackService) ResolveDraws(ctx context.Context, setCode, productCode string) ([]models.Card, error) {
	slots, err := s.store.ListPackSlots(ctx, setCode, productCode)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, ErrNoCardsForSet
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	cardsByTier := make(map[int][]models.Card)

	var draws []models.Card
	for _, slot := range slots {
		for i := 0; i < slot.DrawCount; i++ {
			tier := rollTier(slot.MinTier, slot.MaxTier, settings.DropRateEventMultiplier)

			cards, ok := cardsByTier[tier]
			if !ok {
				cards, err = s.store.ListCardsByTier(ctx, setCode, tier)
				if err != nil {
					return nil, err
				}
				cardsByTier[tier] = cards
			}

			if len(cards) == 0 {
				cards, err = s.store.ListCardsByTierRange(ctx, setCode, slot.MinTier, slot.MaxTier)
				if err != nil {
					return nil, err
				}
				if len(cards) == 0 {
					return nil, ErrNoCardsForSet
				}
			}

			draws = append(draws, cards[rand.Intn(len(cards))])
		}
	}

	return draws, nil
}

// rollTier picks a tier in [minTier, maxTier]. Every tier has weight 1 except
// the top tier, whose weight is the event multiplier.
func rollTier(minTier, maxTier int, multiplier float64) int {
	if maxTier <= minTier {
		return minTier
	}
	if multiplier <= 0 {
		multiplier = 1
	}

	total := float64(maxTier-minTier) + multiplier
	roll := rand.Float64() * total

	for tier := minTier; tier < maxTier; tier++ {
		roll -= 1
		if roll < 0 {
			return tier
		}
	}
	return maxTier
}

// nextStreak recomputes the login streak from the stored UTC day key: first
// open ever starts at 1, a second open on the same day keeps the streak, the
// next calendar day increments it capped at maxStreakDays, any gap resets it.
func nextStreak(lastDay string, current int, now time.Time) (int, string) {
	today := now.Format(dayKeyFormat)

	if lastDay == "" {
		return 1, today
	}
	if lastDay == today {
		if current < 1 {
			current = 1
		}
		if current > maxStreakDays {
			current = maxStreakDays
		}
		return current, today
	}

	prev, err := time.Parse(dayKeyFormat, lastDay)
	if err != nil {
		return 1, today
	}
	cur, err := time.Parse(dayKeyFormat, today)
	if err != nil {
		return 1, today
	}

	if int(cur.Sub(prev).Hours()/24) == 1 {
		next := current + 1
		if next > maxStreakDays {
			next = maxStreakDays
		}
		return next, today
	}

	return 1, today
}
