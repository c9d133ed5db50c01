package production

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is a hydrogen-production measurement submitted by a producer. A
// record lives in exactly one of two disjoint sets, unverified or verified,
// and moves between them exactly once.
type Record struct {
	ID             string
	PAN            string
	GST            string
	HydrogenKg     decimal.Decimal
	ElectricityKwh decimal.Decimal
	CreatedAt      time.Time
	Verified       bool
}
