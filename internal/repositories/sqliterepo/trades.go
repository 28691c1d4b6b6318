package sqliterepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"economy-service/internal/models"
)

// tradeRow is the persisted shape of a trade. The card id lists are JSON text
// columns; the domain model exposes them as ordered slices.
type tradeRow struct {
	TradeID          string             `db:"trade_id"`
	OfferedBy        string             `db:"offered_by"`
	OfferedTo        string             `db:"offered_to"`
	OfferCardsJSON   string             `db:"offer_cards_json"`
	RequestCardsJSON string             `db:"request_cards_json"`
	OfferCredits     int64              `db:"offer_credits"`
	RequestCredits   int64              `db:"request_credits"`
	Status           models.TradeStatus `db:"status"`
	ExpiresAt        time.Time          `db:"expires_at"`
	CreatedAt        time.Time          `db:"created_at"`
	ResolvedAt       *time.Time         `db:"resolved_at"`
}

func (r *tradeRow) toTrade() (*models.Trade, error) {
	trade := &models.Trade{
		TradeID:        r.TradeID,
		OfferedBy:      r.OfferedBy,
		OfferedTo:      r.OfferedTo,
		OfferCredits:   r.OfferCredits,
		RequestCredits: r.RequestCredits,
		Status:         r.Status,
		ExpiresAt:      r.ExpiresAt,
		CreatedAt:      r.CreatedAt,
		ResolvedAt:     r.ResolvedAt,
	}

	if err := json.Unmarshal([]byte(r.OfferCardsJSON), &trade.OfferCardIDs); err != nil {
		return nil, fmt.Errorf("failed to decode offer cards: %w", err)
	}
	if err := json.Unmarshal([]byte(r.RequestCardsJSON), &trade.RequestCardIDs); err != nil {
		return nil, fmt.Errorf("failed to decode request cards: %w", err)
	}

	return trade, nil
}

const tradeColumns = `trade_id, offered_by, offered_to, offer_cards_json, request_cards_json,
	offer_credits, request_credits, status, expires_at, created_at, resolved_at`

// InsertTrade persists a new pending trade.
func (t *Tx) InsertTrade(ctx context.Context, trade *models.Trade) error {
	offerJSON, err := json.Marshal(emptyIfNil(trade.OfferCardIDs))
	if err != nil {
		return fmt.Errorf("failed to encode offer cards: %w", err)
	}
	requestJSON, err := json.Marshal(emptyIfNil(trade.RequestCardIDs))
	if err != nil {
		return fmt.Errorf("failed to encode request cards: %w", err)
	}

	query := `
		INSERT INTO trades (trade_id, offered_by, offered_to, offer_cards_json, request_cards_json,
			offer_credits, request_credits, status, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = t.tx.ExecContext(ctx, query,
		trade.TradeID,
		trade.OfferedBy,
		trade.OfferedTo,
		string(offerJSON),
		string(requestJSON),
		trade.OfferCredits,
		trade.RequestCredits,
		trade.Status,
		trade.ExpiresAt,
		trade.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	return nil
}

// GetTrade reads a trade inside the transaction.
func (t *Tx) GetTrade(ctx context.Context, tradeID string) (*models.Trade, error) {
	var row tradeRow

	query := `SELECT ` + tradeColumns + ` FROM trades WHERE trade_id = ?`

	if err := t.tx.GetContext(ctx, &row, query, tradeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	return row.toTrade()
}

// GetTrade reads a trade outside a transaction.
func (s *Store) GetTrade(ctx context.Context, tradeID string) (*models.Trade, error) {
	var row tradeRow

	query := `SELECT ` + tradeColumns + ` FROM trades WHERE trade_id = ?`

	if err := s.db.GetContext(ctx, &row, query, tradeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	return row.toTrade()
}

// UpdateTradeStatus moves a trade from one status to another. The from-status
// guard plus the RowsAffected check is the check-and-set that makes racing
// transitions (double accept, accept vs cancel) impossible.
func (t *Tx) UpdateTradeStatus(ctx context.Context, tradeID string, from, to models.TradeStatus, resolvedAt time.Time) error {
	query := `
		UPDATE trades
		SET status = ?, resolved_at = ?
		WHERE trade_id = ? AND status = ?
	`

	result, err := t.tx.ExecContext(ctx, query, to, resolvedAt, tradeID, from)
	if err != nil {
		return fmt.Errorf("failed to update trade status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrTradeStatusChanged
	}

	return nil
}

// ListExpiredPending returns ids of pending trades past their expiry, oldest
// first, for the periodic sweep.
func (s *Store) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]string, error) {
	query := `
		SELECT trade_id FROM trades
		WHERE status = ? AND expires_at < ?
		ORDER BY expires_at ASC
		LIMIT ?
	`

	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query, models.TradeStatusPending, now, limit); err != nil {
		return nil, fmt.Errorf("failed to list expired trades: %w", err)
	}

	return ids, nil
}

// ListTradesForUser returns trades where the user is offerer or counterparty.
func (s *Store) ListTradesForUser(ctx context.Context, userID string, limit int) ([]models.Trade, error) {
	query := `
		SELECT ` + tradeColumns + ` FROM trades
		WHERE offered_by = ? OR offered_to = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	var rows []tradeRow
	if err := s.db.SelectContext(ctx, &rows, query, userID, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}

	trades := make([]models.Trade, 0, len(rows))
	for i := range rows {
		trade, err := rows[i].toTrade()
		if err != nil {
			return nil, err
		}
		trades = append(trades, *trade)
	}

	return trades, nil
}

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
