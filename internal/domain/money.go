package domain

import "github.com/shopspring/decimal"

// Money rounds a computed amount to cents with banker's rounding. All money
// leaving a formula passes through here so repeated markdowns do not drift.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}
