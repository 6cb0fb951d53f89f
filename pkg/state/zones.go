package state

import (
	"fmt"
	"strings"
)

// Zone is one of the fixed partitions of the city set. Zones unlock as a group.
type Zone string

const (
	ZoneA Zone = "A"
	ZoneB Zone = "B"
	ZoneC Zone = "C"
)

// Zones lists every zone in unlock order.
var Zones = []Zone{ZoneA, ZoneB, ZoneC}

// ParseZone accepts "b", "B", "zone-b" or "Zone B".
func ParseZone(s string) (Zone, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "ZONE")
	v = strings.TrimLeft(v, " -_")
	z := Zone(v)
	if !z.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidZone, s)
	}
	return z, nil
}

// Valid reports whether z is a known zone.
func (z Zone) Valid() bool {
	for _, known := range Zones {
		if z == known {
			return true
		}
	}
	return false
}
