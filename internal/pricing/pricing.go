// Package pricing is the single source of truth for order totals.
// Totals are computed once, at checkout, from current product prices;
// nothing in this repository derives shipping or tax from a stored
// total a second time.
package pricing

import (
	"github.com/anbari/storefront/internal/config"
	"github.com/shopspring/decimal"
)

// LineItem is one (unit price, quantity) pair of a pricing computation.
type LineItem struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

type Calculator struct {
	freeShippingThreshold decimal.Decimal
	shippingFee           decimal.Decimal
	taxRate               decimal.Decimal
}

func NewCalculator(cfg config.PricingConfig) Calculator {
	return Calculator{
		freeShippingThreshold: cfg.FreeShippingThreshold,
		shippingFee:           cfg.ShippingFee,
		taxRate:               cfg.TaxRate,
	}
}

// Compute derives subtotal, shipping, tax, and grand total. Shipping is
// waived once the subtotal reaches the free-shipping threshold. An empty
// line list yields all-zero totals: an empty cart owes nothing, not the
// flat shipping fee.
func (c Calculator) Compute(lines []LineItem) Totals {
	if len(lines) == 0 {
		return Totals{
			Subtotal: decimal.Zero,
			Shipping: decimal.Zero,
			Tax:      decimal.Zero,
			Total:    decimal.Zero,
		}
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	shipping := c.shippingFee
	if subtotal.GreaterThanOrEqual(c.freeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(c.taxRate)

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}
