package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/route-tycoon/internal/services/events"
)

const keepaliveInterval = 30 * time.Second

// EventSource opens a subscription to a game's event channel.
// events.Broadcaster implements it.
type EventSource interface {
	Subscribe(ctx context.Context, gameID uuid.UUID) *redis.PubSub
}

// EventsHandler handles Server-Sent Events (SSE) for real-time game updates
type EventsHandler struct {
	games  GameService
	source EventSource
	logger *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(games GameService, source EventSource, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		games:  games,
		source: source,
		logger: logger,
	}
}

// ServeHTTP handles SSE requests for game events
// GET /v1/games/{id}/events
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r, h.logger)
	if !ok {
		return
	}
	if _, err := h.games.Get(r.Context(), gameID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("SSE connection established",
		"game_id", gameID.String(),
		"remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flush(w)

	pubsub := h.source.Subscribe(r.Context(), gameID)
	defer func() {
		if err := pubsub.Close(); err != nil {
			h.logger.Error("Failed to close pubsub", "error", err)
		}
	}()

	// Wait for the subscription so no event published after "connected" is lost.
	if _, err := pubsub.Receive(r.Context()); err != nil {
		h.logger.Error("Failed to subscribe to game events", "error", err, "game_id", gameID.String())
		return
	}
	msgChan := pubsub.Channel()

	keepaliveTicker := time.NewTicker(keepaliveInterval)
	defer keepaliveTicker.Stop()

	h.sendSSE(w, "connected", map[string]interface{}{
		"game_id": gameID.String(),
		"message": "Connected to event stream",
	})

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected",
				"game_id", gameID.String())
			return

		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			var event events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Error("Failed to unmarshal event", "error", err, "payload", msg.Payload)
				continue
			}
			h.sendSSE(w, string(event.Type), event.Data)

		case <-keepaliveTicker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				h.logger.Error("Failed to write keepalive", "error", err)
				return
			}
			flush(w)
		}
	}
}

// sendSSE sends a Server-Sent Event to the client
func (h *EventsHandler) sendSSE(w http.ResponseWriter, eventType string, data interface{}) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		h.logger.Error("Failed to write event type", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", string(dataJSON)); err != nil {
		h.logger.Error("Failed to write event data", "error", err)
		return
	}
	flush(w)
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
