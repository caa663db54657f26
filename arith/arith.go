package arith

import (
	"math"
	"math/bits"
)

const (
	INT64_MIN int64 = math.MinInt64
	INT64_MAX int64 = math.MaxInt64
)

//*******************************************
// saturating arithmetic
//*******************************************

// Saturated addition, clamps to INT64_MIN/INT64_MAX instead of wrapping.
func CapAdd(a int64, b int64) int64 {
	if b > 0 && a > INT64_MAX-b {
		return INT64_MAX
	}
	if b < 0 && a < INT64_MIN-b {
		return INT64_MIN
	}
	return a + b
}

// Saturated subtraction.
func CapSub(a int64, b int64) int64 {
	if b < 0 && a > INT64_MAX+b {
		return INT64_MAX
	}
	if b > 0 && a < INT64_MIN+b {
		return INT64_MIN
	}
	return a - b
}

// Saturated negation, CapOpp(INT64_MIN) is INT64_MAX.
func CapOpp(a int64) int64 {
	if a == INT64_MIN {
		return INT64_MAX
	}
	return -a
}

// Saturated multiplication.
func CapProd(a int64, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	same_sign := (a > 0) == (b > 0)
	// An INT64_MIN factor makes the quotient check below ill-defined, but
	// the product always saturates (or is INT64_MIN itself).
	if a == INT64_MIN || b == INT64_MIN {
		if same_sign {
			return INT64_MAX
		}
		return INT64_MIN
	}
	c := a * b
	if c/b != a {
		if same_sign {
			return INT64_MAX
		}
		return INT64_MIN
	}
	return c
}

// Position of the most significant set bit, -1 for 0.
func MSBPosition32(n int32) int {
	return bits.Len32(uint32(n)) - 1
}
