package math

import "math"

// Default tolerance values.
const (
	DefaultEpsilon           = 1e-3
	DefaultSignificantDigits = 5
)

// Tolerance controls how near-zero quantities are treated.
//
// Signed distances are computed from two terms that are each rounded to
// SignificantDigits before being summed. This removes drift that builds up
// from decimal coordinates written as text. A SignificantDigits of zero or
// less disables rounding.
type Tolerance struct {
	Epsilon           float64 `yaml:"epsilon"`
	SignificantDigits int     `yaml:"significant_digits"`
}

// DefaultTolerance returns the tolerance used when none is configured.
func DefaultTolerance() Tolerance {
	return Tolerance{
		Epsilon:           DefaultEpsilon,
		SignificantDigits: DefaultSignificantDigits,
	}
}

// Round rounds x to the configured number of significant digits.
func (t Tolerance) Round(x float64) float64 {
	return RoundSignificant(x, t.SignificantDigits)
}

// IsZero reports whether |x| is below epsilon.
func (t Tolerance) IsZero(x float64) bool {
	return math.Abs(x) < t.Epsilon
}

// RoundSignificant rounds x to the given number of significant digits,
// half to even. Zero, NaN, Inf and digits <= 0 return x unchanged.
func RoundSignificant(x float64, digits int) float64 {
	if digits <= 0 || x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	magnitude := int(math.Floor(math.Log10(math.Abs(x)))) + 1
	shift := digits - magnitude
	if shift > 300 || shift < -300 {
		return x
	}
	if shift >= 0 {
		m := math.Pow(10, float64(shift))
		return math.RoundToEven(x*m) / m
	}
	m := math.Pow(10, float64(-shift))
	return math.RoundToEven(x/m) * m
}
