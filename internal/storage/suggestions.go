package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/route-tycoon/pkg/suggest"
)

func (r *RedisStorage) SaveSuggestions(ctx context.Context, id uuid.UUID, res *suggest.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}
	if err := r.client.Set(ctx, suggestionKeyPrefix+id.String(), data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save suggestions", "game_id", id, "error", err)
		return fmt.Errorf("failed to save suggestions: %w", err)
	}
	return nil
}

// LoadSuggestions returns nil, nil if no suggestion set is stored.
func (r *RedisStorage) LoadSuggestions(ctx context.Context, id uuid.UUID) (*suggest.Result, error) {
	data, err := r.client.Get(ctx, suggestionKeyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load suggestions: %w", err)
	}

	var res suggest.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal suggestions: %w", err)
	}
	return &res, nil
}
