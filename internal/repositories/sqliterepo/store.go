package sqliterepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrCardNotFound        = errors.New("card not found")
	ErrInstanceNotFound    = errors.New("card instance not found")
	ErrInstanceUnavailable = errors.New("card instance not in expected state")
	ErrTradeNotFound       = errors.New("trade not found")
	ErrTradeStatusChanged  = errors.New("trade not in expected status")
	ErrOpenEventNotFound   = errors.New("open event not found")
)

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// BeginTx starts a transaction and returns a transactional repository.
// Every multi-step engine mutation runs through exactly one Tx.
func (s *Store) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

type Tx struct {
	tx *sqlx.Tx
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}
