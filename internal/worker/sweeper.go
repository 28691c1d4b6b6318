package worker

import (
	"context"
	"time"

	"economy-service/internal/logger"
	"economy-service/internal/services"
)

// Sweeper periodically expires stale pending trades. Expiry stays cooperative:
// reads also expire lazily, the sweeper just bounds how long escrow can sit on
// an abandoned offer.
type Sweeper struct {
	trades    *services.TradeService
	interval  time.Duration
	batchSize int
}

func NewSweeper(trades *services.TradeService, interval time.Duration, batchSize int) *Sweeper {
	return &Sweeper{
		trades:    trades,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Sugar().Infow("trade sweeper started", "interval", s.interval, "batch_size", s.batchSize)

	for {
		select {
		case <-ctx.Done():
			logger.Sugar().Info("trade sweeper stopped")
			return

		case <-ticker.C:
			expired, err := s.trades.SweepExpired(ctx, s.batchSize)
			if err != nil {
				logger.Sugar().Errorw("trade sweep failed", "error", err)
				continue
			}
			if expired > 0 {
				logger.Sugar().Infow("expired stale trades", "count", expired)
			}
		}
	}
}
