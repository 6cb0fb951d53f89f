package state

import (
	"time"

	"github.com/google/uuid"
)

// Tunable game constants.
const (
	UpgradeCost       = 1500 // multiplied by the route's current level
	UnlockCost        = 5000
	BuildRouteCost    = 2500
	CapacityIncrement = 5
	BaseCapacity      = 5
	IncomeMultiplier  = 2
	StartingCurrency  = 2000

	UpgradeXP = 25
	UnlockXP  = 100
	BuildXP   = 50

	WinCurrency  = 100_000
	StartingZone = ZoneA

	IncomeInterval = 2 * time.Second
)

// Rules is the wire form of the constants above, served to clients so they can
// show costs without hardcoding them.
type Rules struct {
	UpgradeCost       int    `json:"upgradeCost"`
	UnlockCost        int    `json:"unlockCost"`
	BuildRouteCost    int    `json:"buildRouteCost"`
	CapacityIncrement int    `json:"capacityIncrement"`
	BaseCapacity      int    `json:"baseCapacity"`
	IncomeMultiplier  int    `json:"incomeMultiplier"`
	StartingCurrency  int    `json:"startingCurrency"`
	UpgradeXP         int    `json:"upgradeXp"`
	UnlockXP          int    `json:"unlockXp"`
	BuildXP           int    `json:"buildXp"`
	WinCurrency       int    `json:"winCurrency"`
	StartingZone      Zone   `json:"startingZone"`
	IncomeIntervalMS  int64  `json:"incomeIntervalMs"`
	Zones             []Zone `json:"zones"`
}

// DefaultRules returns the rules the game is played with.
func DefaultRules() Rules {
	return Rules{
		UpgradeCost:       UpgradeCost,
		UnlockCost:        UnlockCost,
		BuildRouteCost:    BuildRouteCost,
		CapacityIncrement: CapacityIncrement,
		BaseCapacity:      BaseCapacity,
		IncomeMultiplier:  IncomeMultiplier,
		StartingCurrency:  StartingCurrency,
		UpgradeXP:         UpgradeXP,
		UnlockXP:          UnlockXP,
		BuildXP:           BuildXP,
		WinCurrency:       WinCurrency,
		StartingZone:      StartingZone,
		IncomeIntervalMS:  IncomeInterval.Milliseconds(),
		Zones:             append([]Zone(nil), Zones...),
	}
}

// City is a node on the map.
type City struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Demand     int     `json:"demand"`
	IsUnlocked bool    `json:"isUnlocked"`
	Zone       Zone    `json:"zone"`
}

// Route links two cities. It is stored with a direction but behaves as undirected.
type Route struct {
	ID         string `json:"id"`
	From       string `json:"from"`
	To         string `json:"to"`
	Level      int    `json:"level"`
	Capacity   int    `json:"capacity"`
	IsUnlocked bool   `json:"isUnlocked"`
}

// Connects reports whether the route links a and b in either direction.
func (r Route) Connects(a, b string) bool {
	return (r.From == a && r.To == b) || (r.From == b && r.To == a)
}

// UpgradeCost is the price of taking the route to its next level.
func (r Route) UpgradeCost() int {
	return UpgradeCost * r.Level
}

// Player holds the balance and progression.
type Player struct {
	Currency int `json:"currency"`
	Level    int `json:"level"`
	XP       int `json:"xp"`
}

// NetworkData is the map portion of a game, as serialized for clients and prompts.
type NetworkData struct {
	Cities []City  `json:"cities"`
	Routes []Route `json:"routes"`
}

// GameState is one player's game session.
type GameState struct {
	ID        uuid.UUID  `json:"id"`
	Cities    []City     `json:"cities"`
	Routes    []Route    `json:"routes"`
	Player    Player     `json:"player"`
	Tick      int        `json:"tick"`
	Won       bool       `json:"won"`
	WonAt     *time.Time `json:"wonAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewGameState starts a session from the catalog. A nil catalog uses the default one.
func NewGameState(c *Catalog) *GameState {
	if c == nil {
		c = DefaultCatalog()
	}
	cp := c.Clone()
	now := time.Now()
	return &GameState{
		ID:     uuid.New(),
		Cities: cp.Cities,
		Routes: cp.Routes,
		Player: Player{
			Currency: StartingCurrency,
			Level:    1,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	out := *gs
	out.Cities = append([]City(nil), gs.Cities...)
	out.Routes = append([]Route(nil), gs.Routes...)
	if gs.WonAt != nil {
		t := *gs.WonAt
		out.WonAt = &t
	}
	return &out
}

// Network returns a copy of the map for serialization.
func (gs *GameState) Network() NetworkData {
	return NetworkData{
		Cities: append([]City(nil), gs.Cities...),
		Routes: append([]Route(nil), gs.Routes...),
	}
}

// City looks up a city by id.
func (gs *GameState) City(id string) (City, bool) {
	if i := gs.cityIndex(id); i >= 0 {
		return gs.Cities[i], true
	}
	return City{}, false
}

// Route looks up a route by id.
func (gs *GameState) Route(id string) (Route, bool) {
	if i := gs.routeIndex(id); i >= 0 {
		return gs.Routes[i], true
	}
	return Route{}, false
}

// ZoneUnlocked reports whether every city in the zone is unlocked.
// A zone with no cities is never unlocked.
func (gs *GameState) ZoneUnlocked(z Zone) bool {
	found := false
	for _, c := range gs.Cities {
		if c.Zone != z {
			continue
		}
		found = true
		if !c.IsUnlocked {
			return false
		}
	}
	return found
}

func (gs *GameState) cityIndex(id string) int {
	for i := range gs.Cities {
		if gs.Cities[i].ID == id {
			return i
		}
	}
	return -1
}

func (gs *GameState) routeIndex(id string) int {
	for i := range gs.Routes {
		if gs.Routes[i].ID == id {
			return i
		}
	}
	return -1
}

func (gs *GameState) cityUnlocked(id string) bool {
	c, ok := gs.City(id)
	return ok && c.IsUnlocked
}
