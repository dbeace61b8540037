package recommend

import "errors"

// Sentinel errors returned by the recommendation engine. All are caller
// misuse, not transient faults; none are retried or swallowed.
var (
	// ErrNotReady indicates the catalog has not been prepared, or the
	// similarity index has not been built, before a query.
	ErrNotReady = errors.New("recommender not prepared")

	// ErrNotFound indicates the seed track id is absent from the catalog.
	ErrNotFound = errors.New("track not found")

	// ErrUnknownMood, ErrUnknownTempo and ErrUnknownMethod indicate an
	// invalid rule or method name; the wrapped message names the valid set.
	ErrUnknownMood   = errors.New("unknown mood")
	ErrUnknownTempo  = errors.New("unknown tempo")
	ErrUnknownMethod = errors.New("unknown similarity method")
)
