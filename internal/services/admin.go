package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"economy-service/internal/models"
	"economy-service/internal/repositories/kafkarepo"
	"economy-service/internal/repositories/redisrepo"
	"economy-service/internal/repositories/sqliterepo"

	"github.com/google/uuid"
)

type AdminService struct {
	store  *sqliterepo.Store
	cache  *redisrepo.WalletRepository
	events *kafkarepo.EventRepository

	now func() time.Time
}

func NewAdminService(store *sqliterepo.Store, cache *redisrepo.WalletRepository, events *kafkarepo.EventRepository) *AdminService {
	return &AdminService{
		store:  store,
		cache:  cache,
		events: events,
		now:    time.Now,
	}
}

// SetMultiplier writes one of the multiplier settings and audits the change.
func (s *AdminService) SetMultiplier(ctx context.Context, adminID, key string, value float64) error {
	if key != models.SettingCreditMultiplier && key != models.SettingDropRateEventMultiplier {
		return fmt.Errorf("unknown multiplier setting: %s", key)
	}
	if value <= 0 {
		return fmt.Errorf("multiplier must be positive")
	}

	return s.writeSetting(ctx, adminID, key, strconv.FormatFloat(value, 'f', -1, 64), "set_multiplier")
}

// SetTradeLocked toggles the global trade lock and audits the change.
func (s *AdminService) SetTradeLocked(ctx context.Context, adminID string, enabled bool) error {
	return s.writeSetting(ctx, adminID, models.SettingTradeLocked, strconv.FormatBool(enabled), "set_trade_locked")
}

func (s *AdminService) writeSetting(ctx context.Context, adminID, key, value, action string) error {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}

	now := s.now().UTC()

	if err := tx.UpsertSetting(ctx, key, value); err != nil {
		_ = tx.Rollback()
		return err
	}

	payload, _ := json.Marshal(map[string]string{"key": key, "value": value})
	if err := tx.InsertAdminEvent(ctx, &models.AdminEvent{
		ID:          uuid.New().String(),
		AdminUserID: adminID,
		Action:      action,
		PayloadJSON: string(payload),
		CreatedAt:   now,
	}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	publishEvent(s.events, models.EventAdminSettingChanged, adminID, key, map[string]string{"key": key, "value": value})

	return nil
}

// GrantCredits adjusts a user's balance through the ledger and audits it.
func (s *AdminService) GrantCredits(ctx context.Context, adminID, userID string, delta int64, reason string) (*models.Wallet, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	ledgerReason := models.ReasonAdminGrant
	if delta < 0 {
		ledgerReason = models.ReasonAdminRevoke
	}

	grantID := uuid.New().String()
	wallet, err := creditDelta(ctx, tx, userID, delta, ledgerReason, grantID, now)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return nil, fmt.Errorf("grant credits error: %w, rollback error: %v", err, rollbackErr)
		}
		return nil, err
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"user_id": userID,
		"delta":   delta,
		"reason":  reason,
	})
	if err := tx.InsertAdminEvent(ctx, &models.AdminEvent{
		ID:          grantID,
		AdminUserID: adminID,
		Action:      "grant_credits",
		PayloadJSON: string(payload),
		CreatedAt:   now,
	}); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	cacheCredits(s.cache, userID, wallet.Credits)
	publishEvent(s.events, models.EventAdminCreditsGranted, userID, grantID, map[string]int64{"delta": delta})

	return wallet, nil
}

// GrantCards mints one instance per card id into the user's inventory. The
// whole batch aborts on the first card id missing from the catalog.
func (s *AdminService) GrantCards(ctx context.Context, adminID, userID string, cardIDs []string, source string) ([]models.CardInstance, error) {
	if len(cardIDs) == 0 {
		return nil, fmt.Errorf("no card ids to grant")
	}
	if source == "" {
		source = models.MintSourceAdminGrant
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	instances, err := s.grantCardsInTx(ctx, tx, adminID, userID, cardIDs, source)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return nil, fmt.Errorf("grant cards error: %w, rollback error: %v", err, rollbackErr)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	publishEvent(s.events, models.EventAdminCardsGranted, userID, "", map[string]interface{}{"card_ids": cardIDs})

	return instances, nil
}

func (s *AdminService) grantCardsInTx(ctx context.Context, tx *sqliterepo.Tx, adminID, userID string, cardIDs []string, source string) ([]models.CardInstance, error) {
	now := s.now().UTC()
	batchID := uuid.New().String()

	instances := make([]models.CardInstance, 0, len(cardIDs))
	for _, cardID := range cardIDs {
		// A grant referencing a card missing from the catalog is a data
		// integrity bug; abort instead of skipping the card.
		if _, err := tx.GetCard(ctx, cardID); err != nil {
			if errors.Is(err, sqliterepo.ErrCardNotFound) {
				return nil, ErrUnknownCardID
			}
			return nil, err
		}

		inst := models.CardInstance{
			InstanceID:  uuid.New().String(),
			CardID:      cardID,
			OwnerUserID: userID,
			MintedAt:    now,
			MintSource:  source,
			MintBatchID: batchID,
			State:       models.InstanceStateOwned,
		}
		if err := tx.InsertCardInstance(ctx, &inst); err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":  userID,
		"card_ids": cardIDs,
		"source":   source,
		"batch_id": batchID,
	})
	if err := tx.InsertAdminEvent(ctx, &models.AdminEvent{
		ID:          uuid.New().String(),
		AdminUserID: adminID,
		Action:      "grant_cards",
		PayloadJSON: string(payload),
		CreatedAt:   now,
	}); err != nil {
		return nil, err
	}

	return instances, nil
}

// ListAdminEvents returns the most recent admin audit rows.
func (s *AdminService) ListAdminEvents(ctx context.Context, limit int) ([]models.AdminEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListAdminEvents(ctx, limit)
}
