package arbitrage

import (
	"github.com/pkg/errors"
)

// data-quality errors: the offending pair is skipped and the run continues
var (
	// ErrEmptyOrderBook is returned when a pair has no usable asks or no usable bids
	ErrEmptyOrderBook = errors.New("order book has no usable asks or bids")
	// ErrInvalidPair is returned when the pair metadata breaks an invariant (e.g. base == quote)
	ErrInvalidPair = errors.New("invalid pair metadata")
)

// structural errors: the run is aborted and no model is written
var (
	// ErrReconcileMismatch is returned when the two sides of a pair could not be aligned on common volume buckets
	ErrReconcileMismatch = errors.New("reconciled order book sides are misaligned")
	// ErrKeyCollision is returned when two entries of the depth matrix share the same key
	ErrKeyCollision = errors.New("depth matrix key collision")
	// ErrInvalidMatrix is returned when the volume intervals of an edge do not partition [0, +Inf)
	ErrInvalidMatrix = errors.New("invalid depth matrix")
)

// ErrUnknownReference is returned when the reference currency does not trade on any edge of the depth matrix
var ErrUnknownReference = errors.New("reference currency does not appear in the depth matrix")

// IsDataQuality is true for errors that only invalidate a single pair
func IsDataQuality(e error) bool {
	c := errors.Cause(e)
	return c == ErrEmptyOrderBook || c == ErrInvalidPair
}

// IsStructural is true for errors that invalidate the whole run
func IsStructural(e error) bool {
	c := errors.Cause(e)
	return c == ErrReconcileMismatch || c == ErrKeyCollision || c == ErrInvalidMatrix
}
