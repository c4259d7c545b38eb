package checkout

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/shopward/shopward-backend/pkg/types"
)

func TestCalculateTax(t *testing.T) {
	cases := []struct {
		name     string
		address  types.Address
		subtotal string
		want     string
	}{
		{"california", types.Address{Country: "US", State: "CA"}, "100.00", "7.25"},
		{"new york", types.Address{Country: "US", State: "NY"}, "100.00", "8"},
		{"lowercase state", types.Address{Country: "US", State: "ca"}, "200.00", "14.5"},
		{"unknown state", types.Address{Country: "US", State: "ZZ"}, "100.00", "0"},
		{"international", types.Address{Country: "DE", State: "BE"}, "100.00", "0"},
		{"rounded", types.Address{Country: "US", State: "NY"}, "19.99", "1.6"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateTax(tc.address, decimal.RequireFromString(tc.subtotal))
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("tax = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestEstimateShipping(t *testing.T) {
	cases := []struct {
		name     string
		address  types.Address
		subtotal string
		want     string
	}{
		{"domestic flat rate", types.Address{Country: "US", State: "CA"}, "20.00", "5.99"},
		{"domestic free over threshold", types.Address{Country: "US", State: "CA"}, "50.00", "0"},
		{"domestic just under threshold", types.Address{Country: "US", State: "CA"}, "49.99", "5.99"},
		{"international flat rate", types.Address{Country: "FR"}, "20.00", "19.99"},
		{"international no free shipping", types.Address{Country: "FR"}, "500.00", "19.99"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EstimateShipping(tc.address, decimal.RequireFromString(tc.subtotal))
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("shipping = %s, want %s", got, tc.want)
			}
		})
	}
}
