package services_test

import (
	"testing"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
)

func domesticAddress(state string) models.Address {
	return models.Address{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Street:     "1 Analytical Way",
		City:       "Palo Alto",
		State:      state,
		PostalCode: "94301",
		Country:    "US",
	}
}

func TestPricingService_Calculate(t *testing.T) {
	pricing := services.NewPricingService(services.DefaultShippingPolicy(), services.DefaultTaxPolicy())

	// Two units at 10.00, weightless, shipped within the home country to a
	// region taxed at 8%: 20.00 + 5.99 + 1.60 = 27.59.
	lines := []models.OrderLine{
		{ProductID: "p-1", Quantity: 2, UnitPrice: 10.00, LineTotal: 20.00, Weight: 0},
	}

	quote := pricing.Calculate(lines, domesticAddress("NY"))
	assert.Equal(t, 20.00, quote.Subtotal)
	assert.Equal(t, 5.99, quote.ShippingAmount)
	assert.InDelta(t, 1.60, quote.TaxAmount, 0.0001)
	assert.Equal(t, 27.59, quote.TotalAmount)
}

func TestPricingService_Calculate_DomesticWeight(t *testing.T) {
	pricing := services.NewPricingService(services.DefaultShippingPolicy(), services.DefaultTaxPolicy())

	// Weight carries per-unit: 2 units x 2.0 each = 4.0 total shipping
	// weight, charged at the domestic per-weight rate.
	lines := []models.OrderLine{
		{ProductID: "p-1", Quantity: 2, UnitPrice: 10.00, Weight: 2.0},
	}

	quote := pricing.Calculate(lines, domesticAddress("CA"))
	assert.Equal(t, 20.00, quote.Subtotal)
	assert.InDelta(t, 5.99+4.0*0.5, quote.ShippingAmount, 0.0001)
	assert.InDelta(t, 20.00*0.0875, quote.TaxAmount, 0.0001)
	assert.Equal(t, 29.74, quote.TotalAmount)
}

func TestPricingService_Calculate_International(t *testing.T) {
	pricing := services.NewPricingService(services.DefaultShippingPolicy(), services.DefaultTaxPolicy())

	lines := []models.OrderLine{
		{ProductID: "p-1", Quantity: 1, UnitPrice: 50.00, Weight: 3.0},
	}
	destination := domesticAddress("")
	destination.Country = "GB"
	destination.City = "London"

	quote := pricing.Calculate(lines, destination)
	// International shipping doubles the base rate and charges the higher
	// per-weight surcharge; cross-border orders collect no tax.
	assert.InDelta(t, 5.99*2+3.0*1.0, quote.ShippingAmount, 0.0001)
	assert.Equal(t, 0.0, quote.TaxAmount)
	assert.Equal(t, 64.98, quote.TotalAmount)
}

func TestPricingService_Calculate_UnknownRegionFallsBack(t *testing.T) {
	pricing := services.NewPricingService(services.DefaultShippingPolicy(), services.DefaultTaxPolicy())

	lines := []models.OrderLine{
		{ProductID: "p-1", Quantity: 1, UnitPrice: 100.00},
	}

	quote := pricing.Calculate(lines, domesticAddress("WA"))
	assert.InDelta(t, 8.00, quote.TaxAmount, 0.0001)
}

func TestPricingService_Calculate_TaxShipping(t *testing.T) {
	tax := services.DefaultTaxPolicy()
	tax.TaxShipping = true
	pricing := services.NewPricingService(services.DefaultShippingPolicy(), tax)

	lines := []models.OrderLine{
		{ProductID: "p-1", Quantity: 1, UnitPrice: 100.00},
	}

	quote := pricing.Calculate(lines, domesticAddress("NY"))
	assert.InDelta(t, (100.00+5.99)*0.08, quote.TaxAmount, 0.0001)
}

func TestPricingService_Calculate_Deterministic(t *testing.T) {
	pricing := services.NewPricingService(services.DefaultShippingPolicy(), services.DefaultTaxPolicy())

	lines := []models.OrderLine{
		{ProductID: "p-1", Quantity: 3, UnitPrice: 19.99, Weight: 0.4},
		{ProductID: "p-2", Quantity: 1, UnitPrice: 7.25, Weight: 1.1},
	}
	destination := domesticAddress("TX")

	first := pricing.Calculate(lines, destination)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, pricing.Calculate(lines, destination))
	}
}

func TestPricingService_Calculate_RoundsHalfToEven(t *testing.T) {
	// Zeroed policies isolate the final rounding step: the total is exactly
	// the subtotal, and the chosen prices land exactly on a half cent.
	pricing := services.NewPricingService(
		services.ShippingPolicy{HomeCountry: "US"},
		services.TaxPolicy{HomeCountry: "US"},
	)
	destination := domesticAddress("NY")

	// 0.125 rounds down to the even 0.12; 0.375 rounds up to the even 0.38.
	down := pricing.Calculate([]models.OrderLine{{ProductID: "p-1", Quantity: 1, UnitPrice: 0.125}}, destination)
	assert.Equal(t, 0.12, down.TotalAmount)

	up := pricing.Calculate([]models.OrderLine{{ProductID: "p-1", Quantity: 1, UnitPrice: 0.375}}, destination)
	assert.Equal(t, 0.38, up.TotalAmount)
}
