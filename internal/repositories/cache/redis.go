// Package cache provides the redis-backed read-side cache for wallets. The
// cache is never consulted inside a unit of work; correctness always comes
// from the database transaction, the cache only shortens read paths.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"safarpay/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NewRedisClient builds a redis client from config.
func NewRedisClient(cfg *RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// WalletCache caches whole wallet aggregates keyed by user id.
type WalletCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewWalletCache(client *redis.Client, ttl time.Duration) *WalletCache {
	return &WalletCache{client: client, ttl: ttl}
}

func walletKey(userID uint) string {
	return fmt.Sprintf("wallet:%d", userID)
}

// GetWallet returns the cached wallet for a user, or an error on miss.
func (c *WalletCache) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	val, err := c.client.Get(ctx, walletKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	var wallet models.Wallet
	if err := json.Unmarshal([]byte(val), &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}

// SetWallet stores the wallet aggregate for its TTL.
func (c *WalletCache) SetWallet(ctx context.Context, wallet *models.Wallet) error {
	data, err := json.Marshal(wallet)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, walletKey(wallet.UserID), data, c.ttl).Err()
}

// InvalidateWallet drops the cached wallet after a committed mutation.
func (c *WalletCache) InvalidateWallet(ctx context.Context, userID uint) error {
	return c.client.Del(ctx, walletKey(userID)).Err()
}

// Close releases the underlying redis connection.
func (c *WalletCache) Close() error {
	return c.client.Close()
}
