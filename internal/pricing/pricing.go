// Package pricing computes sale line amounts and totals. It is pure
// arithmetic over exact decimals; stores call it inside their transactions
// so both implementations price identically.
package pricing

import (
	"errors"
	"fmt"

	"lumapos/backend/internal/domain"
	"lumapos/backend/internal/money"
)

// ErrInvalidDiscount reports a discount outside [0, subtotal].
var ErrInvalidDiscount = errors.New("invalid discount")

// Line is one priced sale line before persistence.
type Line struct {
	Product   domain.Product
	Qty       int
	UnitPrice money.Money
	LineTotal money.Money
}

// PriceLine resolves the unit price for a product, preferring the caller's
// override when present, and computes the line total.
func PriceLine(p domain.Product, qty int, override *money.Money) Line {
	unit := p.Price
	if override != nil {
		unit = *override
	}
	return Line{
		Product:   p,
		Qty:       qty,
		UnitPrice: unit,
		LineTotal: unit.MulQty(qty),
	}
}

// Subtotal sums the line totals.
func Subtotal(lines []Line) money.Money {
	sum := money.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal)
	}
	return sum
}

// Totals validates the discount against the subtotal and computes the final
// total. Tax is always zero; the column exists for forward compatibility
// but no rate is ever applied.
func Totals(subtotal money.Money, discount *money.Money) (disc, tax, total money.Money, err error) {
	disc = money.Zero
	if discount != nil {
		disc = *discount
	}
	if disc.IsNegative() {
		return money.Zero, money.Zero, money.Zero,
			fmt.Errorf("%w: discount must be >= 0", ErrInvalidDiscount)
	}
	if disc.GreaterThan(subtotal) {
		return money.Zero, money.Zero, money.Zero,
			fmt.Errorf("%w: discount cannot exceed subtotal", ErrInvalidDiscount)
	}
	tax = money.Zero
	total = subtotal.Sub(disc).Add(tax)
	return disc, tax, total, nil
}
