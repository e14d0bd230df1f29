package progression

import "errors"

// Sentinel kinds for progression errors.
var (
	ErrUnknownPolicy  = errors.New("unknown aggregation policy")
	ErrUnknownSortKey = errors.New("unknown sort key")
	ErrInvalidPage    = errors.New("invalid page size")
)
