package suggest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwebster45206/route-tycoon/pkg/state"
)

// Upgrade types a suggestion may carry.
const (
	UpgradeCapacity = "capacity"
	UpgradeNewRoute = "new_route"
)

var (
	ErrNoJSON            = errors.New("reply contains no JSON object")
	ErrMalformedReply    = errors.New("malformed suggestion reply")
	ErrInvalidSuggestion = errors.New("invalid suggestion")
)

// Request is what the model is asked about. Both fields are JSON documents
// embedded as strings.
type Request struct {
	NetworkData     string `json:"networkData"`
	PlayerResources string `json:"playerResources"`
}

// Response is the raw reply shape. SuggestedUpgrades is itself a JSON encoded
// array of Suggestion.
type Response struct {
	SuggestedUpgrades string `json:"suggestedUpgrades"`
	Reasoning         string `json:"reasoning"`
}

// Suggestion is one recommended action. For new_route suggestions From and To
// name the cities to connect; RouteID may be a placeholder.
type Suggestion struct {
	RouteID     string `json:"routeId"`
	UpgradeType string `json:"upgradeType"`
	Cost        int    `json:"cost"`
	Reason      string `json:"reason,omitempty"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
}

// Result is a parsed, validated suggestion set.
type Result struct {
	Suggestions []Suggestion `json:"suggestions"`
	Reasoning   string       `json:"reasoning"`
	Model       string       `json:"model,omitempty"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

// PlayerResources is the player snapshot sent with a request.
type PlayerResources struct {
	state.Player
	IncomePerTick int          `json:"incomePerTick"`
	UnlockedZones []state.Zone `json:"unlockedZones"`
}

// NewRequest serializes the network and player of a game.
func NewRequest(gs *state.GameState) (Request, error) {
	network, err := json.Marshal(gs.Network())
	if err != nil {
		return Request{}, fmt.Errorf("failed to marshal network: %w", err)
	}

	res := PlayerResources{Player: gs.Player, IncomePerTick: gs.Income()}
	for _, z := range state.Zones {
		if gs.ZoneUnlocked(z) {
			res.UnlockedZones = append(res.UnlockedZones, z)
		}
	}
	player, err := json.Marshal(res)
	if err != nil {
		return Request{}, fmt.Errorf("failed to marshal player resources: %w", err)
	}

	return Request{NetworkData: string(network), PlayerResources: string(player)}, nil
}

// Affordable reports whether the player can pay for the suggestion.
func (s Suggestion) Affordable(currency int) bool {
	return s.Cost <= currency
}

// Endpoints returns the cities a new_route suggestion connects, reading
// From/To first and falling back to a "c1-c3" style route id.
func (s Suggestion) Endpoints() (string, string, bool) {
	if s.From != "" && s.To != "" {
		return s.From, s.To, true
	}
	for _, sep := range []string{"-", "_", ":", ">"} {
		if a, b, ok := strings.Cut(s.RouteID, sep); ok && a != "" && b != "" {
			return strings.TrimSpace(a), strings.TrimSpace(b), true
		}
	}
	return "", "", false
}

// Validate checks the shape of a single suggestion.
func (s Suggestion) Validate() error {
	if strings.TrimSpace(s.RouteID) == "" {
		return fmt.Errorf("%w: empty routeId", ErrInvalidSuggestion)
	}
	switch s.UpgradeType {
	case UpgradeCapacity, UpgradeNewRoute:
	default:
		return fmt.Errorf("%w: route %s: unknown upgradeType %q", ErrInvalidSuggestion, s.RouteID, s.UpgradeType)
	}
	if s.Cost < 0 {
		return fmt.Errorf("%w: route %s: negative cost", ErrInvalidSuggestion, s.RouteID)
	}
	return nil
}
