// Package decimals converts between display decimals and the integer
// fixed-point values used on the wire.
package decimals

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ToDisplay returns wire / 10^places.
func ToDisplay(places int32, wire int64) decimal.Decimal {
	return decimal.NewFromInt(wire).Shift(-places)
}

// ToWire returns display * 10^places truncated toward zero. Digits finer than
// the market granularity are dropped silently.
func ToWire(places int32, display decimal.Decimal) int64 {
	return display.Shift(places).Truncate(0).IntPart()
}

// FormatWire renders the fixed-point value of display as a decimal string
// token, e.g. FormatWire(5, 1.23456) == "123456".
// It truncates like ToWire but is not bounded by int64.
func FormatWire(places int32, display decimal.Decimal) string {
	return display.Shift(places).Truncate(0).String()
}

// ParseWire reads an integer wire token such as "123456" and scales it down
// to display precision.
func ParseWire(places int32, token string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse wire value %q: %w", token, err)
	}
	if !d.IsInteger() {
		return decimal.Zero, fmt.Errorf("wire value %q is not an integer", token)
	}
	return d.Shift(-places), nil
}
