package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderTotal_CommissionThenDiscount(t *testing.T) {
	// 100 subtotal, 10% commission, 20% coupon: 100 * 1.10 * 0.80 = 88
	subtotal := decimal.NewFromInt(100)
	total := OrderTotal(subtotal, 10, 20, true)
	assert.True(t, total.Equal(decimal.NewFromInt(88)), "got %s", total)
}

func TestOrderTotal_InvalidCouponKeepsFullPrice(t *testing.T) {
	subtotal := decimal.NewFromInt(100)
	total := OrderTotal(subtotal, 10, 20, false)
	assert.True(t, total.Equal(decimal.NewFromInt(110)), "got %s", total)
}

func TestOrderTotal_NoCommissionNoCoupon(t *testing.T) {
	subtotal := decimal.NewFromFloat(42.50)
	total := OrderTotal(subtotal, 0, 0, false)
	assert.True(t, total.Equal(subtotal), "got %s", total)
}

func TestSubtotal_MixedItems(t *testing.T) {
	items := []LineItem{
		{Type: "General", Quantity: 2, Price: 20},
		{Type: "VIP", Quantity: 1, Price: 50},
	}
	resale := []ResaleLineItem{
		{TicketID: "t1", Price: 35.5},
	}

	sum := Subtotal(items, resale)
	assert.True(t, sum.Equal(decimal.NewFromFloat(125.5)), "got %s", sum)
}

func TestMinorUnits_RoundsUp(t *testing.T) {
	// 10.111 euro must charge 1012 cents, never 1011.
	assert.Equal(t, int64(1012), MinorUnits(decimal.NewFromFloat(10.111)))
	assert.Equal(t, int64(1000), MinorUnits(decimal.NewFromInt(10)))
	assert.Equal(t, int64(8800), MinorUnits(decimal.NewFromInt(88)))
}

func TestCouponUsable(t *testing.T) {
	now := time.Now()
	c := &Coupon{Code: "SUMMER", EventID: "evt1", DiscountPct: 20, ExpiresAt: now.Add(time.Hour), MaxUses: 1}

	assert.True(t, c.Usable("evt1", 0, now))
	assert.False(t, c.Usable("evt1", 1, now), "exhausted coupon must be unusable")
	assert.False(t, c.Usable("evt2", 0, now), "coupon is scoped to its event")
	assert.False(t, c.Usable("evt1", 0, now.Add(2*time.Hour)), "expired coupon must be unusable")
}

func TestCouponUsable_NoExpiry(t *testing.T) {
	c := &Coupon{Code: "EVERGREEN", EventID: "evt1", MaxUses: 10}
	assert.True(t, c.Usable("evt1", 3, time.Now()))
}

func TestPromocodeValid(t *testing.T) {
	p := &Promocode{Code: "GUEST", EventID: "evt1", RegistrantID: "acc9"}
	assert.True(t, p.Valid("evt1"))
	assert.False(t, p.Valid("evt2"))
}
