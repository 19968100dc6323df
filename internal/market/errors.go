package market

import "errors"

var (
	// ErrNoMarket means the venue returned no market for the identifier.
	ErrNoMarket = errors.New("no market found")

	// ErrUntradableQuote means the venue's data yields a yes-probability
	// at or outside the open unit interval.
	ErrUntradableQuote = errors.New("quote probability is not tradable")

	// ErrBadPayload means the venue response had an unexpected shape.
	ErrBadPayload = errors.New("unexpected venue payload")
)
