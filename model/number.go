package model

import (
	"fmt"
	"log"
	"math"
	"strconv"
)

// Number is a float with the number of decimals the exchange quoted it with
type Number struct {
	value     float64
	precision int8
}

// AsFloat gives a float64 representation
func (n Number) AsFloat() float64 {
	return n.value
}

// Precision gives the precision of the Number
func (n Number) Precision() int8 {
	return n.precision
}

// AsString gives a string representation
func (n Number) AsString() string {
	return fmt.Sprintf(fmt.Sprintf("%%.%df", n.Precision()), n.AsFloat())
}

// IsUsable is false for zero, negative, NaN and infinite values, none of which can be traded
func (n Number) IsUsable() bool {
	return n.value > 0 && !math.IsNaN(n.value) && !math.IsInf(n.value, 0)
}

// String is the Stringer interface impl.
func (n Number) String() string {
	return n.AsString()
}

// NumberFromFloat makes a Number from a float by rounding to the precision
func NumberFromFloat(f float64, precision int8) *Number {
	return &Number{
		value:     toFixed(f, precision),
		precision: precision,
	}
}

// NumberFromString makes a Number from a string, the precision is the number of decimals in the string
func NumberFromString(s string) (*Number, error) {
	parsed, e := strconv.ParseFloat(s, 64)
	if e != nil {
		return nil, e
	}
	return &Number{
		value:     parsed,
		precision: decimalsInString(s),
	}, nil
}

// MustNumberFromString panics when there's an error
func MustNumberFromString(s string) *Number {
	parsed, e := NumberFromString(s)
	if e != nil {
		log.Fatal(e)
	}
	return parsed
}

func decimalsInString(s string) int8 {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return int8(len(s) - i - 1)
		}
	}
	return 0
}

func toFixed(num float64, precision int8) float64 {
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return num
	}
	pow := math.Pow(10, float64(precision))
	return math.Round(num*pow) / pow
}
