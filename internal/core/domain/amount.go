package domain

import "github.com/shopspring/decimal"

// NormalizeAmount truncates a raw amount toward zero and returns it as minor
// units. Results that are not positive or do not fit int64 are rejected.
func NormalizeAmount(raw decimal.Decimal) (int64, error) {
	whole := raw.Truncate(0)
	if !whole.IsPositive() || !whole.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return whole.IntPart(), nil
}
