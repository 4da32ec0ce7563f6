package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/multiverse-fugitive/pkg/save"
	"github.com/jwebster45206/multiverse-fugitive/pkg/storage"
)

const (
	saveKeyPrefix = "save:"
	saveIndexKey  = "saves" // sorted set of slots scored by save time
)

// RedisStorage keeps snapshots in Redis under save:<slot>, indexed by a
// sorted set so listings don't need to scan keys.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// Ensure RedisStorage implements SaveStore interface
var _ storage.SaveStore = (*RedisStorage)(nil)

// NewRedisStorage creates a Redis-backed store. A ttl of zero keeps saves
// forever.
func NewRedisStorage(redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisStorage, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStorage{
		client: redis.NewClient(opt),
		logger: logger,
		ttl:    ttl,
	}, nil
}

func saveKey(slot string) string {
	return saveKeyPrefix + slot
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Debug("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Debug("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Snapshot operations

func (r *RedisStorage) SaveSnapshot(ctx context.Context, slot string, snap *save.Snapshot) error {
	if snap == nil {
		return errors.New("snapshot cannot be nil")
	}
	if err := save.ValidateSlot(slot); err != nil {
		return err
	}
	data, err := save.Encode(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, saveKey(slot), data, r.ttl)
	pipe.ZAdd(ctx, saveIndexKey, redis.Z{Score: float64(toMillis(snap.SavedAt)), Member: slot})
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to save snapshot", "slot", slot, "error", err)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSnapshot(ctx context.Context, slot string) (*save.Snapshot, error) {
	data, err := r.client.Get(ctx, saveKey(slot)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load snapshot", "slot", slot, "error", err)
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	snap, err := save.Decode(data)
	if err != nil {
		r.logger.Warn("Stored snapshot is corrupt", "slot", slot, "error", err)
		return nil, err
	}
	return snap, nil
}

func (r *RedisStorage) DeleteSnapshot(ctx context.Context, slot string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, saveKey(slot))
	pipe.ZRem(ctx, saveIndexKey, slot)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to delete snapshot", "slot", slot, "error", err)
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// ListSnapshots walks the index. Index entries whose key has expired are
// pruned as they are found.
func (r *RedisStorage) ListSnapshots(ctx context.Context) ([]save.SlotInfo, error) {
	entries, err := r.client.ZRangeWithScores(ctx, saveIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var infos []save.SlotInfo
	for _, entry := range entries {
		slot, ok := entry.Member.(string)
		if !ok {
			continue
		}
		snap, err := r.LoadSnapshot(ctx, slot)
		var corrupt *save.SaveCorruptError
		switch {
		case errors.As(err, &corrupt):
			infos = append(infos, save.Unreadable(slot, fromMillis(int64(entry.Score)), err))
			continue
		case err != nil:
			return nil, err
		case snap == nil:
			if err := r.client.ZRem(ctx, saveIndexKey, slot).Err(); err != nil {
				r.logger.Warn("Failed to prune expired save from index", "slot", slot, "error", err)
			}
			continue
		}
		infos = append(infos, save.Summarize(slot, snap))
	}
	save.SortBySlot(infos)
	return infos, nil
}
