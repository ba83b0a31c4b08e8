// Package core holds the domain model: money values in minor units,
// money maps with their accounts, transactions and monthly statements,
// and the calendar-month window arithmetic the statement engine runs on.
//
// Nothing in this package performs I/O; all conversions between cents
// and decimal representations happen at the system boundary.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is a monetary value counted in minor currency units (cents).
// It is an immutable value type; all arithmetic stays in integer cents.
type Money struct {
	Cents int64
}

// FromDecimal converts a decimal major-unit amount to Money, rounding
// half away from zero at two decimal places. Negative amounts are valid.
//
// Examples:
//
//	FromDecimal(6.34)   -> Money{634}
//	FromDecimal(-18.84) -> Money{-1884}
func FromDecimal(amount float64) Money {
	return Money{Cents: int64(math.Round(amount * 100))}
}

// Decimal returns the major-unit value as a float64 for serialization
// and display. It is the inverse of FromDecimal for every value
// FromDecimal produces. Use cents for calculations.
func (m Money) Decimal() float64 {
	return float64(m.Cents) / 100.0
}

// Add returns the sum in cents.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns the difference in cents.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Equals reports integer equality of the minor units.
func (m Money) Equals(o Money) bool {
	return m.Cents == o.Cents
}

// ParseDecimal converts a decimal string to Money with half-up rounding
// on the third decimal place. It accepts both dot (12.34) and comma
// (12,34) separators and an optional leading minus sign.
func ParseDecimal(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if s == "" || s == "." {
		return Money{}, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return Money{}, ErrInvalidAmount
	}
	// Take first two fractional digits; half-up rounding on the third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return Money{Cents: cents}, nil
}
