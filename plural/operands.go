package plural

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Operands are the CLDR plural operands of a decimal number.
//
// For more information, see:
// https://unicode.org/reports/tr35/tr35-numbers.html#Operands
type Operands struct {
	N float64 // Absolute value.
	I int64   // Integer digits.
	V int     // Number of visible fraction digits, with trailing zeros.
	W int     // Number of visible fraction digits, without trailing zeros.
	F int64   // Visible fraction digits, with trailing zeros.
	T int64   // Visible fraction digits, without trailing zeros.

	// C and E are the compact decimal exponent.
	// They are not supported and always 0.
	C, E int
}

// OperandsFromInt returns the operands of an integer.
func OperandsFromInt(n int64) Operands {
	if n < 0 {
		n = -n
	}
	return Operands{N: float64(n), I: n}
}

// OperandsFromFloat returns the operands of f in its shortest
// decimal representation, so 1.50 yields v = 1.
// Use OperandsFromString to keep trailing zeros.
func OperandsFromFloat(f float64) Operands {
	o, err := OperandsFromString(strconv.FormatFloat(f, 'f', -1, 64))
	if err != nil {
		// Only reachable for NaN and infinities.
		return Operands{N: math.Abs(f)}
	}
	return o
}

// OperandsFromString returns the operands of a decimal number such as "-1.50".
func OperandsFromString(s string) (Operands, error) {
	num := strings.TrimPrefix(s, "-")
	intPart, frac, hasFrac := strings.Cut(num, ".")
	if intPart == "" || !isDigits(intPart) || (hasFrac && (frac == "" || !isDigits(frac))) {
		return Operands{}, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Operands{}, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	i, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Operands{}, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	o := Operands{N: n, I: i, V: len(frac)}
	if o.V == 0 {
		return o, nil
	}

	// Fraction digits beyond int64 range can't be represented as f and t.
	if len(frac) > 18 {
		frac = frac[:18]
	}
	o.F, _ = strconv.ParseInt(frac, 10, 64)
	trimmed := strings.TrimRight(frac, "0")
	o.W = len(trimmed)
	if trimmed != "" {
		o.T, _ = strconv.ParseInt(trimmed, 10, 64)
	}
	return o, nil
}

// MustOperands is like OperandsFromString but panics on error.
func MustOperands(s string) Operands {
	o, err := OperandsFromString(s)
	if err != nil {
		panic(err)
	}
	return o
}

func (o Operands) value(operand byte) float64 {
	switch operand {
	case 'n':
		return o.N
	case 'i':
		return float64(o.I)
	case 'v':
		return float64(o.V)
	case 'w':
		return float64(o.W)
	case 'f':
		return float64(o.F)
	case 't':
		return float64(o.T)
	case 'c':
		return float64(o.C)
	case 'e':
		return float64(o.E)
	}
	return 0
}

func isDigits(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
