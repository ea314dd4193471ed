// Package core holds the domain model of the expense ledger: money values,
// time windows, category aggregation and budget evaluation.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts user-entered text to Money with half-up rounding on
// the third decimal place.
//
// It tolerates the way people actually type amounts in chat: surrounding
// whitespace, thousands separators as spaces, a trailing currency marker
// ("₽", "р", "руб", "руб.") and either dot or comma as the decimal
// separator. The result must be strictly positive.
//
// Examples:
//
//	ParseAmount("150") -> 15000 cents
//	ParseAmount("99,50") -> 9950 cents
//	ParseAmount("1 500₽") -> 150000 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, "₽")
	s = strings.TrimSuffix(s, "руб.")
	s = strings.TrimSuffix(s, "руб")
	s = strings.TrimSuffix(s, "р")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
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
	if cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}

// Format renders the amount for display: integral values without decimal
// places, fractional values with exactly two. The same rule applies
// everywhere an amount is shown.
//
//	Money{Cents: 10000}.Format() -> "100₽"
//	Money{Cents: 9950}.Format()  -> "99.50₽"
func (m Money) Format() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatInt(cents/100, 10))
	if r := cents % 100; r != 0 {
		b.WriteByte('.')
		if r < 10 {
			b.WriteByte('0')
		}
		b.WriteString(strconv.FormatInt(r, 10))
	}
	b.WriteString("₽")
	return b.String()
}

// Rubles returns the ruble value as a float64 for percent arithmetic and
// spreadsheet export. Use cents for everything else.
func (m Money) Rubles() float64 {
	return float64(m.Cents) / 100.0
}
