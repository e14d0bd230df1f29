package scraper

import "errors"

// Sentinel kinds for scrape errors.
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrLoginFailed        = errors.New("login failed")
	ErrNotRankRow         = errors.New("not a rank row")
	ErrUnknownRace        = errors.New("no known race in row")
	ErrMalformedRow       = errors.New("malformed rank row")
)
