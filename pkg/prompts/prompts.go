package prompts

import (
	"fmt"

	"github.com/jwebster45206/route-tycoon/pkg/state"
)

// SuggestionSystemPrompt frames the model as an advisor for the route network.
const SuggestionSystemPrompt = `You are an expert network optimization consultant for a resource transport game. Based on the current network state and the player's resources, suggest the best route upgrades to improve resource flow and increase the player's income. Provide your suggestions in JSON format.

### Game rules
%s

### Consider these factors:
- Current resource flow and bottlenecks
- Demand in different cities
- Cost of upgrades
- Player's available resources

Suggestions may only reference routes and cities that appear in the network data. Locked routes and cities cannot be upgraded or connected.`

// SuggestionUserPrompt carries the two snapshots.
const SuggestionUserPrompt = `Network Data: %s
Player Resources: %s`

// SuggestionFormatPrompt is appended last so the output format is the final instruction the model sees.
const SuggestionFormatPrompt = `Your response must be a single JSON object with two keys and no other text:
- suggestedUpgrades: a string containing a JSON array. Each element is {"routeId": string, "upgradeType": "capacity" | "new_route", "cost": number, "reason": string}. For "new_route" also include "from" and "to" city ids.
- reasoning: a string explaining why you are making these suggestions.

Make sure the suggestedUpgrades field is a valid JSON string, and the reasoning field is a well written explanation.`

// RulesPrompt describes the economy so costs in suggestions line up with the game.
func RulesPrompt(r state.Rules) string {
	return fmt.Sprintf(`- Upgrading a route costs %d times its current level and adds %d capacity.
- Building a new route between two unlocked cities costs %d and starts at level 1 with capacity %d.
- Unlocking a zone costs %d.
- Each route earns level x capacity x %d every %d ms while both of its cities are unlocked.
- Only one route may connect any pair of cities.`,
		r.UpgradeCost, r.CapacityIncrement,
		r.BuildRouteCost, r.BaseCapacity,
		r.UnlockCost,
		r.IncomeMultiplier, r.IncomeIntervalMS,
	)
}
