package services

import (
	"math"

	"storefront/internal/models"
)

// ShippingPolicy is the rate table for shipping cost computation. Domestic
// destinations pay the base rate plus a per-weight charge; international
// destinations pay a doubled base rate plus a higher per-weight surcharge.
// Swappable for a live carrier rate service behind the same Calculate
// signature.
type ShippingPolicy struct {
	HomeCountry            string
	BaseRate               float64
	DomesticPerWeight      float64
	InternationalPerWeight float64
}

// TaxPolicy is the region to rate lookup for tax computation. Destinations
// outside the home country are not taxed; unknown home-country regions fall
// back to DefaultRate. TaxShipping controls whether shipping enters the tax
// base, which differs across real jurisdictions and is deliberately a policy
// knob rather than hardcoded law.
type TaxPolicy struct {
	HomeCountry string
	RegionRates map[string]float64
	DefaultRate float64
	TaxShipping bool
}

// DefaultShippingPolicy returns the built-in shipping rate table.
func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{
		HomeCountry:            "US",
		BaseRate:               5.99,
		DomesticPerWeight:      0.5,
		InternationalPerWeight: 1.0,
	}
}

// DefaultTaxPolicy returns the built-in region rate table.
func DefaultTaxPolicy() TaxPolicy {
	return TaxPolicy{
		HomeCountry: "US",
		RegionRates: map[string]float64{
			"CA": 0.0875,
			"NY": 0.08,
			"TX": 0.0625,
			"FL": 0.06,
		},
		DefaultRate: 0.08,
		TaxShipping: false,
	}
}

// Quote is the outcome of a pricing calculation.
type Quote struct {
	Subtotal       float64 `json:"subtotal"`
	ShippingAmount float64 `json:"shipping_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	TotalAmount    float64 `json:"total_amount"`
}

// PricingService computes order totals. Calculate is a pure function of its
// inputs: no I/O, no clock, fully deterministic, which keeps it trivially
// unit-testable.
type PricingService struct {
	shipping ShippingPolicy
	tax      TaxPolicy
}

// NewPricingService creates a new PricingService with the given policies.
func NewPricingService(shipping ShippingPolicy, tax TaxPolicy) *PricingService {
	return &PricingService{
		shipping: shipping,
		tax:      tax,
	}
}

// Calculate computes subtotal, shipping, tax and total for a set of order
// lines and a destination address. The total is rounded once at the end
// using round half to even; per-line amounts are never rounded, so rounding
// error cannot compound across lines.
func (s *PricingService) Calculate(lines []models.OrderLine, destination models.Address) Quote {
	var subtotal, weight float64
	for _, line := range lines {
		subtotal += line.UnitPrice * float64(line.Quantity)
		weight += line.Weight * float64(line.Quantity)
	}

	shipping := s.shippingFor(weight, destination)
	tax := s.taxFor(subtotal, shipping, destination)

	return Quote{
		Subtotal:       subtotal,
		ShippingAmount: shipping,
		TaxAmount:      tax,
		TotalAmount:    roundHalfEven(subtotal + shipping + tax),
	}
}

func (s *PricingService) shippingFor(weight float64, destination models.Address) float64 {
	if destination.Country == s.shipping.HomeCountry {
		return s.shipping.BaseRate + weight*s.shipping.DomesticPerWeight
	}
	return s.shipping.BaseRate*2 + weight*s.shipping.InternationalPerWeight
}

func (s *PricingService) taxFor(subtotal, shipping float64, destination models.Address) float64 {
	if destination.Country != s.tax.HomeCountry {
		return 0
	}
	rate, ok := s.tax.RegionRates[destination.State]
	if !ok {
		rate = s.tax.DefaultRate
	}
	base := subtotal
	if s.tax.TaxShipping {
		base += shipping
	}
	return base * rate
}

// roundHalfEven rounds to 2 decimal places with banker's rounding.
func roundHalfEven(amount float64) float64 {
	return math.RoundToEven(amount*100) / 100
}
