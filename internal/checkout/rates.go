package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/shopward/shopward-backend/pkg/types"
)

var (
	domesticShippingRate      = decimal.NewFromFloat(5.99)
	internationalShippingRate = decimal.NewFromFloat(19.99)
	freeShippingThreshold     = decimal.NewFromInt(50)
)

// stateTaxRates maps US state codes to sales tax rates. States absent from
// the table are untaxed, as is any non-US address.
var stateTaxRates = map[string]decimal.Decimal{
	"CA": decimal.NewFromFloat(0.0725),
	"NY": decimal.NewFromFloat(0.08),
	"TX": decimal.NewFromFloat(0.0625),
	"FL": decimal.NewFromFloat(0.06),
	"WA": decimal.NewFromFloat(0.065),
	"IL": decimal.NewFromFloat(0.0625),
	"PA": decimal.NewFromFloat(0.06),
	"NJ": decimal.NewFromFloat(0.06625),
	"GA": decimal.NewFromFloat(0.04),
	"MA": decimal.NewFromFloat(0.0625),
}

// EstimateShipping returns the flat-rate shipping cost for the address and
// subtotal. Domestic orders at or above the threshold ship free.
func EstimateShipping(address types.Address, subtotal decimal.Decimal) decimal.Decimal {
	if address.IsDomestic() {
		if subtotal.GreaterThanOrEqual(freeShippingThreshold) {
			return decimal.Zero
		}
		return domesticShippingRate
	}
	return internationalShippingRate
}

// CalculateTax returns the sales tax for the address and subtotal, rounded to
// currency precision. Non-US addresses and unlisted states are untaxed.
func CalculateTax(address types.Address, subtotal decimal.Decimal) decimal.Decimal {
	if !address.IsDomestic() {
		return decimal.Zero
	}
	rate, ok := stateTaxRates[address.StateCode()]
	if !ok {
		return decimal.Zero
	}
	return subtotal.Mul(rate).Round(2)
}
