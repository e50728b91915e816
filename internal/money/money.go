package money

import "github.com/shopspring/decimal"

// Scale is the number of decimal places every stored money value carries.
const Scale = 2

// Normalize rounds an amount to the money scale, half up.
// decimal.Round is half-away-from-zero, which is HALF_UP for the
// non-negative amounts this system deals in.
func Normalize(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Scale)
}
