package models

import (
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// OrderTotal prices one sub-order: commission is applied to the subtotal
// first, then the coupon discount comes off the commissioned amount. The
// ordering is contractual; swapping it changes what promoters earn.
func OrderTotal(subtotal decimal.Decimal, commissionPct float64, discountPct float64, couponValid bool) decimal.Decimal {
	commission := decimal.NewFromFloat(commissionPct).Div(oneHundred)
	total := subtotal.Mul(decimal.NewFromInt(1).Add(commission))

	if couponValid {
		discount := decimal.NewFromFloat(discountPct).Div(oneHundred)
		total = total.Sub(total.Mul(discount))
	}

	return total
}

// Subtotal sums priced line items and resale items.
func Subtotal(items []LineItem, resale []ResaleLineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(decimal.NewFromFloat(li.Price).Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	for _, ri := range resale {
		sum = sum.Add(decimal.NewFromFloat(ri.Price))
	}
	return sum
}

// MinorUnits converts an amount to currency minor units, rounding up so a
// fractional remainder can never under-charge the combined payment intent.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(oneHundred).Ceil().IntPart()
}
