package state

import "errors"

// Insufficient funds. Returned whenever a spend is larger than the balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Invalid targets.
var (
	ErrUnknownRoute   = errors.New("unknown route")
	ErrUnknownCity    = errors.New("unknown city")
	ErrDuplicateRoute = errors.New("route already connects these cities")
	ErrSameCity       = errors.New("route endpoints must differ")
	ErrCityLocked     = errors.New("city is locked")
	ErrRouteLocked    = errors.New("route is locked")
	ErrInvalidZone    = errors.New("invalid zone")
	ErrZoneUnlocked   = errors.New("zone already unlocked")
)

// IsInvalidTarget reports whether err names a target that does not exist or
// cannot take the requested action.
func IsInvalidTarget(err error) bool {
	for _, target := range []error{
		ErrUnknownRoute, ErrUnknownCity, ErrDuplicateRoute, ErrSameCity,
		ErrCityLocked, ErrRouteLocked, ErrInvalidZone, ErrZoneUnlocked,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
