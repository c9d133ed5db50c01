package identity

import "time"

// Company represents a registered hydrogen producer, keyed by its PAN.
type Company struct {
	PAN         string
	GST         string
	Email       string
	CompanyName string
	Address     string
	Phone       string
	Sector      string
	CreatedAt   time.Time
}

// defaults applied when a company logs in before filling out its profile.
const (
	defaultCompanyName = "Default Company"
	defaultAddress     = "Default Address"
	defaultPhone       = "0000000000"
	defaultSector      = "General"
)
