package server

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// toTicks converts a boundary decimal price into int64 minor units at the
// configured scale. Prices that do not land exactly on a tick are rejected
// rather than rounded, so no client ever trades at a price it did not ask
// for.
func toTicks(s string, scale int32) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	shifted := d.Shift(scale)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("price %q has more than %d decimal places", s, scale)
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("price %q out of range", s)
	}
	return shifted.IntPart(), nil
}

// fromTicks renders minor units back into a fixed-point decimal string.
func fromTicks(ticks int64, scale int32) string {
	return decimal.New(ticks, -scale).StringFixed(scale)
}
