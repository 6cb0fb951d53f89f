package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Only delete if we own the lock
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// AcquireGameLock attempts to acquire a lock for a game.
// Returns true if lock was acquired, false if already locked.
func (r *RedisStorage) AcquireGameLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, lockKeyPrefix+id.String(), owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire game lock: %w", err)
	}
	return ok, nil
}

// ReleaseGameLock releases the lock if owner still holds it.
func (r *RedisStorage) ReleaseGameLock(ctx context.Context, id uuid.UUID, owner string) error {
	if err := releaseScript.Run(ctx, r.client, []string{lockKeyPrefix + id.String()}, owner).Err(); err != nil {
		r.logger.Error("Failed to release game lock", "error", err, "game_id", id.String())
		return fmt.Errorf("failed to release game lock: %w", err)
	}
	return nil
}
