package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jwebster45206/route-tycoon/internal/services/events"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 2048,
	// Origins are filtered by the CORS middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler streams game events as JSON frames.
// GET /v1/games/{id}/ws
type WebSocketHandler struct {
	games  GameService
	source EventSource
	logger *slog.Logger
}

func NewWebSocketHandler(games GameService, source EventSource, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{games: games, source: source, logger: logger}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r, h.logger)
	if !ok {
		return
	}
	if _, err := h.games.Get(r.Context(), gameID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	log := h.logger.With("game_id", gameID.String(), "remote_addr", r.RemoteAddr)
	log.Info("WebSocket connection established")

	ctx := r.Context()
	pubsub := h.source.Subscribe(ctx, gameID)
	defer func() {
		if err := pubsub.Close(); err != nil {
			log.Error("Failed to close pubsub", "error", err)
		}
	}()
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Error("Failed to subscribe to game events", "error", err)
		return
	}
	msgChan := pubsub.Channel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, events.Event{
		Type:   "connected",
		GameID: gameID.String(),
		Time:   time.Now(),
	}); err != nil {
		log.Warn("Failed to send connected frame", "error", err)
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			log.Info("WebSocket client disconnected")
			return

		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			var event events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error("Failed to unmarshal event", "error", err, "payload", msg.Payload)
				continue
			}
			if err := h.write(conn, event); err != nil {
				log.Warn("Failed to write event", "error", err)
				return
			}

		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) write(conn *websocket.Conn, event events.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(event)
}
