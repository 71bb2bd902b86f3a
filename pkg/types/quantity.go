package types

import "github.com/shopspring/decimal"

// Quantity columns are numeric(18,3).
const (
	QuantityScale     = 3
	quantityPrecision = 18
)

var quantityLimit = decimal.New(1, quantityPrecision-QuantityScale)

// QuantityFits reports whether q is stored without rounding or overflow.
func QuantityFits(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(QuantityScale)) && q.Abs().LessThan(quantityLimit)
}
