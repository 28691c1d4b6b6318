package redisrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	expiration = 5 * time.Minute
)

var (
	ErrCreditsNotFound = errors.New("credits not found in cache")
)

// WalletRepository is a best-effort read cache for wallet credits. The durable
// store stays the source of truth; cache misses and errors fall through to it.
type WalletRepository struct {
	client *redis.Client
	prefix string
}

func NewWalletRepository(client *redis.Client) *WalletRepository {
	return &WalletRepository{
		client: client,
		prefix: "wallet:",
	}
}

func (r *WalletRepository) SetCredits(ctx context.Context, userID string, credits int64) error {
	key := r.creditsKey(userID)

	creditsStr := strconv.FormatInt(credits, 10)

	if err := r.client.Set(ctx, key, creditsStr, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set credits in redis: %w", err)
	}

	return nil
}

func (r *WalletRepository) GetCredits(ctx context.Context, userID string) (int64, error) {
	key := r.creditsKey(userID)

	creditsStr, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, ErrCreditsNotFound
		}
		return 0, fmt.Errorf("failed to get credits from redis: %w", err)
	}

	credits, err := strconv.ParseInt(creditsStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse credits from redis: %w", err)
	}

	return credits, nil
}

func (r *WalletRepository) DeleteCredits(ctx context.Context, userID string) error {
	key := r.creditsKey(userID)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete credits from redis: %w", err)
	}

	return nil
}

func (r *WalletRepository) creditsKey(userID string) string {
	return r.prefix + userID + ":credits"
}
