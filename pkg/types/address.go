package types

import "strings"

// Address is the order shipping/billing address, stored as jsonb.
type Address struct {
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// IsDomestic reports whether the address ships within the US.
func (a Address) IsDomestic() bool {
	country := strings.ToUpper(strings.TrimSpace(a.Country))
	return country == "" || country == "US" || country == "USA" || country == "UNITED STATES"
}

// StateCode returns the normalized two-letter state code.
func (a Address) StateCode() string {
	return strings.ToUpper(strings.TrimSpace(a.State))
}
