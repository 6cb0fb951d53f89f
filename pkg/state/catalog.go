package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Catalog is the fixed starting map: cities and routes before any play.
type Catalog struct {
	Cities []City  `json:"cities"`
	Routes []Route `json:"routes"`
}

// DefaultCatalog returns a fresh copy of the built-in map.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Cities: []City{
			{ID: "c1", Name: "Aethelburg", X: 15, Y: 20, Demand: 5, IsUnlocked: true, Zone: ZoneA},
			{ID: "c2", Name: "Westford", X: 25, Y: 45, Demand: 8, IsUnlocked: true, Zone: ZoneA},
			{ID: "c3", Name: "Northbridge", X: 10, Y: 70, Demand: 6, IsUnlocked: true, Zone: ZoneA},

			{ID: "c4", Name: "Stonewall", X: 45, Y: 15, Demand: 12, Zone: ZoneB},
			{ID: "c5", Name: "Ironstead", X: 60, Y: 35, Demand: 15, Zone: ZoneB},
			{ID: "c6", Name: "Goldhaven", X: 50, Y: 65, Demand: 10, Zone: ZoneB},

			{ID: "c7", Name: "Silvercoast", X: 85, Y: 25, Demand: 20, Zone: ZoneC},
			{ID: "c8", Name: "Port Azure", X: 90, Y: 50, Demand: 25, Zone: ZoneC},
			{ID: "c9", Name: "Crystal Falls", X: 80, Y: 80, Demand: 18, Zone: ZoneC},
		},
		Routes: []Route{
			{ID: "r1", From: "c1", To: "c2", Level: 1, Capacity: BaseCapacity, IsUnlocked: true},
			{ID: "r2", From: "c2", To: "c3", Level: 1, Capacity: BaseCapacity, IsUnlocked: true},

			{ID: "r3", From: "c1", To: "c4", Level: 1, Capacity: BaseCapacity},
			{ID: "r4", From: "c2", To: "c5", Level: 1, Capacity: BaseCapacity},
			{ID: "r5", From: "c4", To: "c5", Level: 1, Capacity: BaseCapacity},
			{ID: "r6", From: "c5", To: "c6", Level: 1, Capacity: BaseCapacity},
			{ID: "r7", From: "c3", To: "c6", Level: 1, Capacity: BaseCapacity},

			{ID: "r8", From: "c5", To: "c7", Level: 1, Capacity: BaseCapacity},
			{ID: "r9", From: "c7", To: "c8", Level: 1, Capacity: BaseCapacity},
			{ID: "r10", From: "c6", To: "c9", Level: 1, Capacity: BaseCapacity},
			{ID: "r11", From: "c8", To: "c9", Level: 1, Capacity: BaseCapacity},
		},
	}
}

// LoadCatalog reads a catalog from a JSON file and validates it.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return &c, nil
}

// Clone returns a deep copy.
func (c *Catalog) Clone() *Catalog {
	return &Catalog{
		Cities: append([]City(nil), c.Cities...),
		Routes: append([]Route(nil), c.Routes...),
	}
}

// Validate checks the structural invariants of a starting map and returns
// every problem found, joined.
func (c *Catalog) Validate() error {
	var errs []error

	if len(c.Cities) == 0 {
		errs = append(errs, errors.New("catalog has no cities"))
	}

	cities := make(map[string]City, len(c.Cities))
	for _, city := range c.Cities {
		if city.ID == "" {
			errs = append(errs, fmt.Errorf("city %q has no id", city.Name))
			continue
		}
		if _, dup := cities[city.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate city id %q", city.ID))
		}
		if !city.Zone.Valid() {
			errs = append(errs, fmt.Errorf("city %q: %w %q", city.ID, ErrInvalidZone, city.Zone))
		}
		if city.Zone == StartingZone && !city.IsUnlocked {
			errs = append(errs, fmt.Errorf("city %q is in the starting zone but locked", city.ID))
		}
		if city.Demand < 0 {
			errs = append(errs, fmt.Errorf("city %q has negative demand", city.ID))
		}
		cities[city.ID] = city
	}

	routeIDs := make(map[string]bool, len(c.Routes))
	for i, r := range c.Routes {
		if r.ID == "" {
			errs = append(errs, fmt.Errorf("route at index %d has no id", i))
		} else if routeIDs[r.ID] {
			errs = append(errs, fmt.Errorf("duplicate route id %q", r.ID))
		}
		routeIDs[r.ID] = true

		from, okFrom := cities[r.From]
		to, okTo := cities[r.To]
		if !okFrom || !okTo {
			errs = append(errs, fmt.Errorf("route %q: %w (%s-%s)", r.ID, ErrUnknownCity, r.From, r.To))
			continue
		}
		if r.From == r.To {
			errs = append(errs, fmt.Errorf("route %q: %w", r.ID, ErrSameCity))
		}
		if r.Level < 1 {
			errs = append(errs, fmt.Errorf("route %q has level %d, must be at least 1", r.ID, r.Level))
		}
		if r.Capacity < 0 {
			errs = append(errs, fmt.Errorf("route %q has negative capacity", r.ID))
		}
		if r.IsUnlocked && !(from.IsUnlocked && to.IsUnlocked) {
			errs = append(errs, fmt.Errorf("route %q is unlocked but an endpoint is locked", r.ID))
		}
		for _, prev := range c.Routes[:i] {
			if prev.Connects(r.From, r.To) {
				errs = append(errs, fmt.Errorf("route %q: %w (%s)", r.ID, ErrDuplicateRoute, prev.ID))
				break
			}
		}
	}

	return errors.Join(errs...)
}
