// Package progression computes player levels from accumulated experience.
package progression

import "math"

// BaseThreshold is the experience needed to leave level 1.
const BaseThreshold = 100

// Threshold returns the experience required to advance past the given level.
// The curve is 100 * level^1.5, floored.
func Threshold(level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Floor(BaseThreshold * math.Pow(float64(level), 1.5)))
}

// Apply adds amount to xp and rolls any overflow into level increments,
// repeating for multi-level jumps. It returns the new level, the remaining
// experience within that level, and how many levels were gained.
//
// Negative amounts are ignored so that level never decreases.
func Apply(level, xp, amount int) (int, int, int) {
	if level < 1 {
		level = 1
	}
	if xp < 0 {
		xp = 0
	}
	if amount > 0 {
		xp += amount
	}

	gained := 0
	for xp >= Threshold(level) {
		xp -= Threshold(level)
		level++
		gained++
	}
	return level, xp, gained
}

// Progress returns the fraction of the current level completed, in [0, 1).
func Progress(level, xp int) float64 {
	need := Threshold(level)
	if need <= 0 || xp <= 0 {
		return 0
	}
	p := float64(xp) / float64(need)
	if p >= 1 {
		return 0.999
	}
	return p
}
