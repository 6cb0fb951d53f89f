package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/route-tycoon/pkg/state"
)

// GameState operations

// SaveGameState writes the game with a fresh TTL and marks it active.
func (r *RedisStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}

	data, err := json.Marshal(gs)
	if err != nil {
		r.logger.Error("Failed to marshal gamestate", "game_id", id, "error", err)
		return fmt.Errorf("failed to marshal gamestate: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, gameKeyPrefix+id.String(), data, r.ttl)
	pipe.SAdd(ctx, activeGamesKey, id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to save gamestate", "game_id", id, "error", err)
		return fmt.Errorf("failed to save gamestate: %w", err)
	}

	return nil
}

// LoadGameState returns nil, nil if the game does not exist.
func (r *RedisStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	data, err := r.client.Get(ctx, gameKeyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Gamestate not found", "game_id", id)
			return nil, nil
		}
		r.logger.Error("Failed to load gamestate", "game_id", id, "error", err)
		return nil, fmt.Errorf("failed to load gamestate: %w", err)
	}

	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		r.logger.Error("Failed to unmarshal gamestate", "game_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}

	return &gs, nil
}

func (r *RedisStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, gameKeyPrefix+id.String(), suggestionKeyPrefix+id.String())
	pipe.SRem(ctx, activeGamesKey, id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to delete gamestate", "game_id", id, "error", err)
		return fmt.Errorf("failed to delete gamestate: %w", err)
	}
	return nil
}

// ListActiveGames returns the ids in the active set, pruning entries whose
// game document has expired.
func (r *RedisStorage) ListActiveGames(ctx context.Context) ([]uuid.UUID, error) {
	members, err := r.client.SMembers(ctx, activeGamesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active games: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			r.logger.Warn("Dropping malformed active game id", "member", m)
			r.client.SRem(ctx, activeGamesKey, m)
			continue
		}
		n, err := r.client.Exists(ctx, gameKeyPrefix+m).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check game %s: %w", m, err)
		}
		if n == 0 {
			r.logger.Debug("Pruning expired game from active set", "game_id", m)
			r.client.SRem(ctx, activeGamesKey, m)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
