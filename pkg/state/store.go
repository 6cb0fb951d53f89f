package state

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jwebster45206/route-tycoon/pkg/progression"
)

// Outcome summarizes what a successful mutation changed. Callers use it to
// publish events and show notifications.
type Outcome struct {
	RouteID      string `json:"routeId,omitempty"`
	Zone         Zone   `json:"zone,omitempty"`
	Cost         int    `json:"cost,omitempty"`
	Income       int    `json:"income,omitempty"`
	XPAwarded    int    `json:"xpAwarded,omitempty"`
	LevelsGained int    `json:"levelsGained,omitempty"`
	JustWon      bool   `json:"justWon,omitempty"`
}

// UpgradeRoute raises an unlocked route by one level for UpgradeCost times its
// current level. State is unchanged on error.
func (gs *GameState) UpgradeRoute(routeID string) (Outcome, error) {
	i := gs.routeIndex(routeID)
	if i < 0 {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownRoute, routeID)
	}
	r := &gs.Routes[i]
	if !r.IsUnlocked {
		return Outcome{}, fmt.Errorf("%w: %s", ErrRouteLocked, routeID)
	}

	cost := r.UpgradeCost()
	if err := gs.canAfford(cost); err != nil {
		return Outcome{}, err
	}

	gs.Player.Currency -= cost
	r.Level++
	r.Capacity += CapacityIncrement

	out := Outcome{RouteID: r.ID, Cost: cost}
	gs.award(&out, UpgradeXP)
	out.JustWon = gs.checkWin()
	gs.touch()
	return out, nil
}

// UnlockZone unlocks every city in the zone, then recomputes every route's
// unlocked flag from the updated city set.
func (gs *GameState) UnlockZone(z Zone) (Outcome, error) {
	if !z.Valid() {
		return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidZone, z)
	}
	if gs.ZoneUnlocked(z) {
		return Outcome{}, fmt.Errorf("%w: %s", ErrZoneUnlocked, z)
	}
	hasCities := false
	for _, c := range gs.Cities {
		if c.Zone == z {
			hasCities = true
			break
		}
	}
	if !hasCities {
		return Outcome{}, fmt.Errorf("%w: zone %s has no cities", ErrInvalidZone, z)
	}
	if err := gs.canAfford(UnlockCost); err != nil {
		return Outcome{}, err
	}

	gs.Player.Currency -= UnlockCost
	for i := range gs.Cities {
		if gs.Cities[i].Zone == z {
			gs.Cities[i].IsUnlocked = true
		}
	}
	gs.recomputeRouteLocks()

	out := Outcome{Zone: z, Cost: UnlockCost}
	gs.award(&out, UnlockXP)
	out.JustWon = gs.checkWin()
	gs.touch()
	return out, nil
}

// BuildRoute connects two unlocked cities with a new level 1 route. Only one
// route may join any unordered pair of cities.
func (gs *GameState) BuildRoute(fromID, toID string) (Outcome, error) {
	if fromID == toID {
		return Outcome{}, fmt.Errorf("%w: %s", ErrSameCity, fromID)
	}
	for _, id := range []string{fromID, toID} {
		c, ok := gs.City(id)
		if !ok {
			return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownCity, id)
		}
		if !c.IsUnlocked {
			return Outcome{}, fmt.Errorf("%w: %s", ErrCityLocked, id)
		}
	}
	for _, r := range gs.Routes {
		if r.Connects(fromID, toID) {
			return Outcome{}, fmt.Errorf("%w: %s", ErrDuplicateRoute, r.ID)
		}
	}
	if err := gs.canAfford(BuildRouteCost); err != nil {
		return Outcome{}, err
	}

	gs.Player.Currency -= BuildRouteCost
	r := Route{
		ID:         gs.nextRouteID(),
		From:       fromID,
		To:         toID,
		Level:      1,
		Capacity:   BaseCapacity,
		IsUnlocked: true,
	}
	gs.Routes = append(gs.Routes, r)

	out := Outcome{RouteID: r.ID, Cost: BuildRouteCost}
	gs.award(&out, BuildXP)
	out.JustWon = gs.checkWin()
	gs.touch()
	return out, nil
}

// Income is what the next tick will pay: level * capacity * IncomeMultiplier
// summed over routes that are unlocked and whose endpoints are both unlocked.
func (gs *GameState) Income() int {
	income := 0
	for _, r := range gs.Routes {
		if !r.IsUnlocked || !gs.cityUnlocked(r.From) || !gs.cityUnlocked(r.To) {
			continue
		}
		income += r.Level * r.Capacity * IncomeMultiplier
	}
	return income
}

// TickIncome credits one period of income.
func (gs *GameState) TickIncome() Outcome {
	income := gs.Income()
	gs.Player.Currency += income
	gs.Tick++

	out := Outcome{Income: income}
	out.JustWon = gs.checkWin()
	gs.touch()
	return out
}

// AwardExperience adds xp, rolling overflow into levels. It returns the
// number of levels gained.
func (gs *GameState) AwardExperience(amount int) int {
	level, xp, gained := progression.Apply(gs.Player.Level, gs.Player.XP, amount)
	gs.Player.Level = level
	gs.Player.XP = xp
	return gained
}

// WinConditionMet reports whether every city outside the starting zone is
// unlocked and the balance has reached WinCurrency.
func (gs *GameState) WinConditionMet() bool {
	if gs.Player.Currency < WinCurrency {
		return false
	}
	for _, c := range gs.Cities {
		if c.Zone != StartingZone && !c.IsUnlocked {
			return false
		}
	}
	return true
}

// checkWin flags the won state the first time the condition holds. It
// returns true only on that first transition.
func (gs *GameState) checkWin() bool {
	if gs.Won || !gs.WinConditionMet() {
		return false
	}
	now := time.Now()
	gs.Won = true
	gs.WonAt = &now
	return true
}

func (gs *GameState) canAfford(cost int) error {
	if gs.Player.Currency < cost {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, cost, gs.Player.Currency)
	}
	return nil
}

func (gs *GameState) award(out *Outcome, xp int) {
	out.XPAwarded = xp
	out.LevelsGained = gs.AwardExperience(xp)
}

func (gs *GameState) recomputeRouteLocks() {
	unlocked := make(map[string]bool, len(gs.Cities))
	for _, c := range gs.Cities {
		unlocked[c.ID] = c.IsUnlocked
	}
	for i := range gs.Routes {
		r := &gs.Routes[i]
		r.IsUnlocked = unlocked[r.From] && unlocked[r.To]
	}
}

// nextRouteID returns r<N> where N is one more than the highest numeric suffix in use.
func (gs *GameState) nextRouteID() string {
	maxN := 0
	for _, r := range gs.Routes {
		n, err := strconv.Atoi(strings.TrimPrefix(r.ID, "r"))
		if err == nil && n > maxN {
			maxN = n
		}
	}
	return "r" + strconv.Itoa(maxN+1)
}

func (gs *GameState) touch() {
	gs.UpdatedAt = time.Now()
}
