package safe

import (
	"math"
)

// Int is any int64-backed fixed-point type (quant.Cents, quant.Units, ...).
type Int interface {
	~int64
}

// Add performs addition and panics on overflow/underflow.
func Add[T Int](a, b T) T {
	if (b > 0 && a > T(math.MaxInt64)-b) || (b < 0 && a < T(math.MinInt64)-b) {
		panic("CORE_SAFE_ADD_OVERFLOW")
	}
	return a + b
}

// Sub performs subtraction and panics on overflow/underflow.
func Sub[T Int](a, b T) T {
	if (b > 0 && a < T(math.MinInt64)+b) || (b < 0 && a > T(math.MaxInt64)+b) {
		panic("CORE_SAFE_SUB_OVERFLOW")
	}
	return a - b
}

// Div performs division and panics on division by zero.
func Div[T Int](a, b T) T {
	if b == 0 {
		panic("CORE_SAFE_DIV_BY_ZERO")
	}
	if a == T(math.MinInt64) && b == -1 {
		panic("CORE_SAFE_DIV_OVERFLOW")
	}
	return a / b
}
