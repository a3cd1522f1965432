package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/storesync/reconciliation-backend/internal/domain/errors"
	"github.com/storesync/reconciliation-backend/internal/infrastructure/config"
)

const runLockKey = "reconciliation:run_lock"

// ErrLockHeld is returned when another run currently holds the lock
var ErrLockHeld error = errors.ErrRunInProgress

// RunLock serializes reconciliation runs across processes with a Redis
// SETNX lock. The TTL bounds how long a crashed holder can block new runs;
// the stale report sweep handles the orphaned report row itself.
type RunLock struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRunLock creates a run lock backed by the given Redis configuration
func NewRunLock(cfg *config.RedisConfig, ttl time.Duration, logger *zap.Logger) (*RunLock, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.URL,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("run lock initialized",
		zap.String("addr", cfg.URL),
		zap.Duration("ttl", ttl))

	return &RunLock{client: client, ttl: ttl, logger: logger}, nil
}

// NewRunLockWithClient wraps an existing Redis client (used in tests)
func NewRunLockWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RunLock {
	return &RunLock{client: client, ttl: ttl, logger: logger}
}

// Acquire takes the lock or returns ErrLockHeld when a run is in flight.
// The returned release function is safe to call more than once.
func (l *RunLock) Acquire(ctx context.Context) (func(), error) {
	ok, err := l.client.SetNX(ctx, runLockKey, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring run lock: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	var released bool
	release := func() {
		if released {
			return
		}
		released = true
		if err := l.client.Del(context.Background(), runLockKey).Err(); err != nil {
			l.logger.Warn("failed to release run lock", zap.Error(err))
		}
	}

	return release, nil
}

// Close releases the underlying Redis client
func (l *RunLock) Close() error {
	return l.client.Close()
}
