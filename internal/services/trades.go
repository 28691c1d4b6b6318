package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"economy-service/internal/models"
	"economy-service/internal/repositories/kafkarepo"
	"economy-service/internal/repositories/redisrepo"
	"economy-service/internal/repositories/sqliterepo"

	"github.com/google/uuid"
)

const tradeTTL = 15 * time.Minute

type TradeService struct {
	store  *sqliterepo.Store
	cache  *redisrepo.WalletRepository
	events *kafkarepo.EventRepository

	now func() time.Time
}

func NewTradeService(store *sqliterepo.Store, cache *redisrepo.WalletRepository, events *kafkarepo.EventRepository) *TradeService {
	return &TradeService{
		store:  store,
		cache:  cache,
		events: events,
		now:    time.Now,
	}
}

// CreateOffer locks every offered card and escrows the offered credits, then
// inserts the pending trade. Any failure aborts with no partial locks.
func (s *TradeService) CreateOffer(ctx context.Context, req models.CreateOfferRequest) (*models.Trade, error) {
	if len(req.OfferCardIDs) == 0 {
		return nil, fmt.Errorf("offer must include at least one card")
	}
	if req.OfferCredits < 0 || req.RequestCredits < 0 {
		return nil, fmt.Errorf("trade credits must be non-negative")
	}
	if req.OfferedBy == req.OfferedTo {
		return nil, fmt.Errorf("cannot trade with yourself")
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	trade, offererWallet, err := s.createInTx(ctx, tx, req)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return nil, fmt.Errorf("create offer error: %w, rollback error: %v", err, rollbackErr)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if offererWallet != nil {
		cacheCredits(s.cache, req.OfferedBy, offererWallet.Credits)
	}
	publishEvent(s.events, models.EventTradeCreated, req.OfferedBy, trade.TradeID, trade)

	return trade, nil
}

func (s *TradeService) createInTx(ctx context.Context, tx *sqliterepo.Tx, req models.CreateOfferRequest) (*models.Trade, *models.Wallet, error) {
	now := s.now().UTC()

	settings, err := tx.GetSettings(ctx)
	if err != nil {
		return nil, nil, err
	}
	if settings.TradeLocked {
		return nil, nil, ErrTradingLocked
	}

	tradeID := uuid.New().String()

	for _, instanceID := range req.OfferCardIDs {
		if err := tx.LockInstance(ctx, instanceID, req.OfferedBy, tradeID); err != nil {
			if errors.Is(err, sqliterepo.ErrInstanceUnavailable) || errors.Is(err, sqliterepo.ErrInstanceNotFound) {
				return nil, nil, ErrCardUnavailable
			}
			return nil, nil, err
		}
	}

	var offererWallet *models.Wallet
	if req.OfferCredits > 0 {
		offererWallet, err = creditDelta(ctx, tx, req.OfferedBy, -req.OfferCredits, models.ReasonTradeReserve, tradeID, now)
		if err != nil {
			return nil, nil, err
		}
	}

	trade := &models.Trade{
		TradeID:        tradeID,
		OfferedBy:      req.OfferedBy,
		OfferedTo:      req.OfferedTo,
		OfferCardIDs:   req.OfferCardIDs,
		RequestCardIDs: req.RequestCardIDs,
		OfferCredits:   req.OfferCredits,
		RequestCredits: req.RequestCredits,
		Status:         models.TradeStatusPending,
		ExpiresAt:      now.Add(tradeTTL),
		CreatedAt:      now,
	}
	if err := tx.InsertTrade(ctx, trade); err != nil {
		return nil, nil, err
	}

	return trade, offererWallet, nil
}

// AcceptOffer settles a pending trade. Ownership of every card on both sides
// is re-validated here rather than trusted from creation time, because
// ownership can change between offer and accept.
func (s *TradeService) AcceptOffer(ctx context.Context, tradeID, accepterID string) (*models.Trade, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	trade, err := tx.GetTrade(ctx, tradeID)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return nil, fmt.Errorf("accept offer error: %w, rollback error: %v", err, rollbackErr)
		}
		return nil, err
	}

	if trade.OfferedTo != accepterID {
		_ = tx.Rollback()
		return nil, ErrNotAuthorizedForTrade
	}
	if trade.Status != models.TradeStatusPending {
		_ = tx.Rollback()
		return nil, ErrTradeNotPending
	}

	// The expiry comparison happens inside the same transaction as the
	// settle, so a racing sweep and accept agree on a single outcome.
	if now.After(trade.ExpiresAt) {
		if _, err := s.releaseInTx(ctx, tx, trade, models.TradeStatusExpired, now); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		publishEvent(s.events, models.EventTradeExpired, trade.OfferedBy, trade.TradeID, nil)
		return nil, ErrTradeExpired
	}

	accepterWallet, offererWallet, err := s.settleInTx(ctx, tx, trade, accepterID, now)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return nil, fmt.Errorf("accept offer error: %w, rollback error: %v", err, rollbackErr)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if accepterWallet != nil {
		cacheCredits(s.cache, accepterID, accepterWallet.Credits)
	}
	if offererWallet != nil {
		cacheCredits(s.cache, trade.OfferedBy, offererWallet.Credits)
	}

	trade.Status = models.TradeStatusSettled
	trade.ResolvedAt = &now
	publishEvent(s.events, models.EventTradeSettled, accepterID, trade.TradeID, trade)

	return trade, nil
}

func (s *TradeService) settleInTx(ctx context.Context, tx *sqliterepo.Tx, trade *models.Trade, accepterID string, now time.Time) (*models.Wallet, *models.Wallet, error) {
	// Offer side must still be locked to this trade and owned by the offerer.
	for _, instanceID := range trade.OfferCardIDs {
		inst, err := tx.GetInstance(ctx, instanceID)
		if err != nil {
			if errors.Is(err, sqliterepo.ErrInstanceNotFound) {
				return nil, nil, ErrCardUnavailable
			}
			return nil, nil, err
		}
		if inst.State != models.InstanceStateTradeLocked || inst.LockTradeID != trade.TradeID || inst.OwnerUserID != trade.OfferedBy {
			return nil, nil, ErrCardUnavailable
		}
	}

	// Request side must still be plainly owned by the accepter.
	for _, instanceID := range trade.RequestCardIDs {
		inst, err := tx.GetInstance(ctx, instanceID)
		if err != nil {
			if errors.Is(err, sqliterepo.ErrInstanceNotFound) {
				return nil, nil, ErrCardUnavailable
			}
			return nil, nil, err
		}
		if inst.State != models.InstanceStateOwned || inst.OwnerUserID != accepterID {
			return nil, nil, ErrCardUnavailable
		}
	}

	var accepterWallet, offererWallet *models.Wallet
	var err error

	if trade.RequestCredits > 0 {
		accepterWallet, err = creditDelta(ctx, tx, accepterID, -trade.RequestCredits, models.ReasonTradePay, trade.TradeID, now)
		if err != nil {
			return nil, nil, err
		}
		offererWallet, err = creditDelta(ctx, tx, trade.OfferedBy, trade.RequestCredits, models.ReasonTradeReceive, trade.TradeID, now)
		if err != nil {
			return nil, nil, err
		}
	}

	if trade.OfferCredits > 0 {
		accepterWallet, err = creditDelta(ctx, tx, accepterID, trade.OfferCredits, models.ReasonTradeRelease, trade.TradeID, now)
		if err != nil {
			return nil, nil, err
		}
	}

	for _, instanceID := range trade.OfferCardIDs {
		if err := tx.TransferLockedInstance(ctx, instanceID, trade.OfferedBy, accepterID, trade.TradeID); err != nil {
			if errors.Is(err, sqliterepo.ErrInstanceUnavailable) {
				return nil, nil, ErrCardUnavailable
			}
			return nil, nil, err
		}
	}
	for _, instanceID := range trade.RequestCardIDs {
		if err := tx.TransferOwnedInstance(ctx, instanceID, accepterID, trade.OfferedBy); err != nil {
			if errors.Is(err, sqliterepo.ErrInstanceUnavailable) {
				return nil, nil, ErrCardUnavailable
			}
			return nil, nil, err
		}
	}

	if err := tx.UpdateTradeStatus(ctx, trade.TradeID, models.TradeStatusPending, models.TradeStatusSettled, now); err != nil {
		if errors.Is(err, sqliterepo.ErrTradeStatusChanged) {
			return nil, nil, ErrTradeNotPending
		}
		return nil, nil, err
	}

	return accepterWallet, offererWallet, nil
}

// RejectOffer releases a pending trade's escrow. Only the counterparty may
// reject.
func (s *TradeService) RejectOffer(ctx context.Context, tradeID, userID string) (*models.Trade, error) {
	return s.resolveOffer(ctx, tradeID, userID, models.TradeStatusRejected)
}

// CancelOffer releases a pending trade's escrow. Only the offerer may cancel.
func (s *TradeService) CancelOffer(ctx context.Context, tradeID, userID string) (*models.Trade, error) {
	return s.resolveOffer(ctx, tradeID, userID, models.TradeStatusCancelled)
}

func (s *TradeService) resolveOffer(ctx context.Context, tradeID, userID string, to models.TradeStatus) (*models.Trade, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	trade, err := tx.GetTrade(ctx, tradeID)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return nil, fmt.Errorf("resolve offer error: %w, rollback error: %v", err, rollbackErr)
		}
		return nil, err
	}

	switch to {
	case models.TradeStatusRejected:
		if trade.OfferedTo != userID {
			_ = tx.Rollback()
			return nil, ErrNotAuthorizedForTrade
		}
	case models.TradeStatusCancelled:
		if trade.OfferedBy != userID {
			_ = tx.Rollback()
			return nil, ErrNotAuthorizedForTrade
		}
	}

	if trade.Status != models.TradeStatusPending {
		_ = tx.Rollback()
		return nil, ErrTradeNotPending
	}

	offererWallet, err := s.releaseInTx(ctx, tx, trade, to, now)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return nil, fmt.Errorf("resolve offer error: %w, rollback error: %v", err, rollbackErr)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if offererWallet != nil {
		cacheCredits(s.cache, trade.OfferedBy, offererWallet.Credits)
	}

	eventType := models.EventTradeRejected
	if to == models.TradeStatusCancelled {
		eventType = models.EventTradeCancelled
	}
	publishEvent(s.events, eventType, userID, trade.TradeID, nil)

	trade.Status = to
	trade.ResolvedAt = &now
	return trade, nil
}

// releaseInTx unlocks every offer-side instance and refunds the escrowed
// credits, then moves the trade out of pending. Shared by reject, cancel and
// expire, which differ only in the terminal status.
func (s *TradeService) releaseInTx(ctx context.Context, tx *sqliterepo.Tx, trade *models.Trade, to models.TradeStatus, now time.Time) (*models.Wallet, error) {
	if _, err := tx.UnlockInstancesForTrade(ctx, trade.TradeID); err != nil {
		return nil, err
	}

	var offererWallet *models.Wallet
	if trade.OfferCredits > 0 {
		var err error
		offererWallet, err = creditDelta(ctx, tx, trade.OfferedBy, trade.OfferCredits, models.ReasonTradeRelease, trade.TradeID, now)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.UpdateTradeStatus(ctx, trade.TradeID, models.TradeStatusPending, to, now); err != nil {
		if errors.Is(err, sqliterepo.ErrTradeStatusChanged) {
			return nil, ErrTradeNotPending
		}
		return nil, err
	}

	return offererWallet, nil
}

// GetTrade returns the trade, lazily expiring it first when due.
func (s *TradeService) GetTrade(ctx context.Context, tradeID string) (*models.Trade, error) {
	return s.ExpireIfDue(ctx, tradeID)
}

// ExpireIfDue expires a pending trade past its deadline, releasing escrow.
// Any other state is returned unchanged.
func (s *TradeService) ExpireIfDue(ctx context.Context, tradeID string) (*models.Trade, error) {
	trade, err := s.store.GetTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if trade.Status != models.TradeStatusPending || !now.After(trade.ExpiresAt) {
		return trade, nil
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	// Re-read inside the transaction; another caller may have resolved it.
	trade, err = tx.GetTrade(ctx, tradeID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if trade.Status != models.TradeStatusPending {
		_ = tx.Rollback()
		return trade, nil
	}

	offererWallet, err := s.releaseInTx(ctx, tx, trade, models.TradeStatusExpired, now)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return nil, fmt.Errorf("expire trade error: %w, rollback error: %v", err, rollbackErr)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if offererWallet != nil {
		cacheCredits(s.cache, trade.OfferedBy, offererWallet.Credits)
	}
	publishEvent(s.events, models.EventTradeExpired, trade.OfferedBy, trade.TradeID, nil)

	trade.Status = models.TradeStatusExpired
	trade.ResolvedAt = &now
	return trade, nil
}

// SweepExpired expires stale pending trades in one batch. Called by the
// periodic sweeper; individual races with accept/cancel are benign because
// the status transition is guarded.
func (s *TradeService) SweepExpired(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	ids, err := s.store.ListExpiredPending(ctx, s.now().UTC(), batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, tradeID := range ids {
		trade, err := s.ExpireIfDue(ctx, tradeID)
		if err != nil {
			if errors.Is(err, ErrTradeNotPending) {
				continue
			}
			return expired, err
		}
		if trade.Status == models.TradeStatusExpired {
			expired++
		}
	}

	return expired, nil
}

// ListTradesForUser returns the user's recent trades, either side.
func (s *TradeService) ListTradesForUser(ctx context.Context, userID string, limit int) ([]models.Trade, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListTradesForUser(ctx, userID, limit)
}
