package settlement

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// The ledger stores whole units scaled by 18 decimal places; one credit per
// verified kilogram of hydrogen.
const creditDecimals = 18

// toUnits scales a human-entered quantity to ledger units. Exact for inputs
// with at most 18 decimal places; anything finer is truncated.
func toUnits(kg decimal.Decimal) *big.Int {
	return kg.Shift(creditDecimals).BigInt()
}

// fromUnits converts a ledger balance back to a human-readable quantity.
func fromUnits(units *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(units, -creditDecimals)
}
