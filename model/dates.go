package model

import (
	"math"
	"time"
)

// Timestamp is millis since epoch
type Timestamp int64

// MakeTimestamp creates a new Timestamp
func MakeTimestamp(ts int64) *Timestamp {
	timestamp := Timestamp(ts)
	return &timestamp
}

// MakeTimestampFromUnixSeconds converts Kraken's fractional unix seconds to a Timestamp
func MakeTimestampFromUnixSeconds(seconds float64) *Timestamp {
	return MakeTimestamp(int64(math.Round(seconds * 1000)))
}

// AsInt64 is a convenience method
func (t Timestamp) AsInt64() int64 {
	return int64(t)
}

// AsTime converts the Timestamp to a time.Time
func (t Timestamp) AsTime() time.Time {
	return time.Unix(0, int64(t)*int64(time.Millisecond))
}

// String is the stringer function
func (t *Timestamp) String() string {
	return t.AsTime().UTC().Format(time.RFC3339)
}
