package services

import "errors"

// Engine error kinds. Every multi-step operation either fully applies or
// returns one of these with all entities unchanged.
var (
	ErrInsufficientCredits   = errors.New("insufficient credits")
	ErrCardUnavailable       = errors.New("card unavailable")
	ErrTradeNotPending       = errors.New("trade is not pending")
	ErrTradeExpired          = errors.New("trade has expired")
	ErrNotAuthorizedForTrade = errors.New("user is not authorized for this trade")
	ErrUnknownCardID         = errors.New("unknown card id")
	ErrNoCardsForSet         = errors.New("no cards available for set")
	ErrTradingLocked         = errors.New("trading is locked")
)
