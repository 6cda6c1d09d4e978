package domain

import "time"

// MostRecent returns the later of two timestamps.
// A zero time counts as "not given": if exactly one side is set, that side
// is returned; if neither is set, ErrNoTimeToCompare is returned.
func MostRecent(a, b time.Time) (time.Time, error) {
	switch {
	case a.IsZero() && b.IsZero():
		return time.Time{}, ErrNoTimeToCompare
	case a.IsZero():
		return b, nil
	case b.IsZero():
		return a, nil
	case b.After(a):
		return b, nil
	default:
		return a, nil
	}
}
