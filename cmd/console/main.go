package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jwebster45206/route-tycoon/internal/handlers"
	"github.com/jwebster45206/route-tycoon/pkg/state"
)

type ConsoleConfig struct {
	APIBaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	Timeout    time.Duration `env:"CONSOLE_TIMEOUT" envDefault:"90s"`
	// GameID resumes an existing game instead of starting a new one.
	GameID string `env:"GAME_ID"`
}

func main() {
	var cfg ConsoleConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Suggestion calls can take a while, so the client timeout is generous.
	api := NewAPIClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.Timeout})

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := api.Health(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	rules := state.DefaultRules()
	if catalog, err := api.Catalog(ctx); err == nil {
		rules = catalog.Rules
	}

	game, err := startGame(ctx, api, cfg.GameID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start game: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(&cfg, api, game, rules), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Game ID: %s\nResume with GAME_ID=%s\n", game.Game.ID, game.Game.ID)
}

func startGame(ctx context.Context, api *APIClient, gameID string) (*handlers.GameResponse, error) {
	if gameID == "" {
		return api.CreateGame(ctx)
	}
	id, err := uuid.Parse(gameID)
	if err != nil {
		return nil, fmt.Errorf("invalid GAME_ID: %w", err)
	}
	return api.GetGame(ctx, id)
}
