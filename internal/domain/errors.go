package domain

import "errors"

// ErrNotFound is returned when a requested resource (guide content,
// manifest) does not exist in the local mirror.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrNoTimeToCompare is returned by MostRecent when neither of the two
// timestamps being compared is a valid point in time. It is always fatal:
// silently defaulting to "now" would erase staleness history and make
// every future comparison meaningless.
var ErrNoTimeToCompare = errors.New("no time given to compare")
