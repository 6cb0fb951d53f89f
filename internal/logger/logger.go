package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/jwebster45206/route-tycoon/internal/config"
)

// Setup configures the global slog logger based on environment
func Setup(cfg *config.Config) *slog.Logger {
	return setup(os.Stdout, cfg)
}

func setup(w io.Writer, cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// WithRequestID adds request ID to logger context
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With("request_id", requestID)
}

// WithGame adds the game id to logger context
func WithGame(logger *slog.Logger, gameID string) *slog.Logger {
	return logger.With("game_id", gameID)
}
