package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/route-tycoon/pkg/state"
	"github.com/jwebster45206/route-tycoon/pkg/suggest"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeRouteUpgraded     EventType = "route.upgraded"
	EventTypeRouteBuilt        EventType = "route.built"
	EventTypeZoneUnlocked      EventType = "zone.unlocked"
	EventTypeIncomeTick        EventType = "income.tick"
	EventTypePlayerLevelUp     EventType = "player.level_up"
	EventTypeGameWon           EventType = "game.won"
	EventTypeSuggestionsReady  EventType = "suggestions.ready"
	EventTypeSuggestionsFailed EventType = "suggestions.failed"
)

// Event represents a generic event structure
type Event struct {
	Type   EventType              `json:"type"`
	GameID string                 `json:"game_id,omitempty"`
	Time   time.Time              `json:"time"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// Channel is the pub/sub channel carrying a game's events.
func Channel(gameID uuid.UUID) string {
	return fmt.Sprintf("game-events:%s", gameID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE and WebSocket distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Subscribe opens a subscription to a game's channel. The caller must Close it.
func (b *Broadcaster) Subscribe(ctx context.Context, gameID uuid.UUID) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, Channel(gameID))
}

// PublishOutcome publishes the event for a successful mutation, followed by
// level-up and win events when the outcome carries them.
func (b *Broadcaster) PublishOutcome(ctx context.Context, gs *state.GameState, t EventType, out state.Outcome) error {
	data := map[string]interface{}{
		"player": gs.Player,
	}
	if out.RouteID != "" {
		data["route_id"] = out.RouteID
		if r, ok := gs.Route(out.RouteID); ok {
			data["route"] = r
		}
	}
	if out.Zone != "" {
		data["zone"] = out.Zone
	}
	if out.Cost != 0 {
		data["cost"] = out.Cost
	}
	if t == EventTypeIncomeTick {
		data["income"] = out.Income
		data["tick"] = gs.Tick
	}

	if err := b.publishToGame(ctx, gs.ID, Event{Type: t, Data: data}); err != nil {
		return err
	}

	if out.LevelsGained > 0 {
		err := b.publishToGame(ctx, gs.ID, Event{
			Type: EventTypePlayerLevelUp,
			Data: map[string]interface{}{
				"level":         gs.Player.Level,
				"levels_gained": out.LevelsGained,
			},
		})
		if err != nil {
			return err
		}
	}

	if out.JustWon {
		return b.publishToGame(ctx, gs.ID, Event{
			Type: EventTypeGameWon,
			Data: map[string]interface{}{
				"currency": gs.Player.Currency,
				"won_at":   gs.WonAt,
			},
		})
	}
	return nil
}

// PublishSuggestionsReady publishes a suggestions.ready event
func (b *Broadcaster) PublishSuggestionsReady(ctx context.Context, gameID uuid.UUID, res *suggest.Result) error {
	return b.publishToGame(ctx, gameID, Event{
		Type: EventTypeSuggestionsReady,
		Data: map[string]interface{}{
			"suggestions": res.Suggestions,
			"reasoning":   res.Reasoning,
		},
	})
}

// PublishSuggestionsFailed publishes a suggestions.failed event
func (b *Broadcaster) PublishSuggestionsFailed(ctx context.Context, gameID uuid.UUID, errorMsg string) error {
	return b.publishToGame(ctx, gameID, Event{
		Type: EventTypeSuggestionsFailed,
		Data: map[string]interface{}{
			"error": errorMsg,
		},
	})
}

// publishToGame publishes an event to the game-specific channel
func (b *Broadcaster) publishToGame(ctx context.Context, gameID uuid.UUID, event Event) error {
	channel := Channel(gameID)
	event.GameID = gameID.String()
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)

	return nil
}
