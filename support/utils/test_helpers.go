package utils

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var epsilon = 0.00000001

// AssertFloatEquals is a float comparison within a pre-defined epsilon error
func AssertFloatEquals(t *testing.T, want float64, actual float64) {
	if want == 0.0 {
		assert.True(t, math.Abs(want-actual) <= epsilon, fmt.Sprintf("expected: %g, actual: %g", want, actual))
	} else {
		assert.InEpsilon(t, want, actual, epsilon)
	}
}
