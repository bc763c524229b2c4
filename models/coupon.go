package models

import (
	"time"
)

// Coupon is a percentage discount code scoped to one event. Usage accounting
// is derived by counting SUCCEEDED orders that reference the code, so MaxUses
// is a soft limit under concurrent checkouts.
type Coupon struct {
	Code        string    `json:"code"`
	EventID     string    `json:"event_id"`
	DiscountPct float64   `json:"discount_pct"`
	ExpiresAt   time.Time `json:"expires_at"`
	MaxUses     int       `json:"max_uses"`
}

// Usable reports whether the coupon may still discount an order for the given
// event, given how many settled orders already reference it. An unusable
// coupon is ignored at checkout, never a rejection.
func (c *Coupon) Usable(eventID string, used int, now time.Time) bool {
	if c.EventID != eventID {
		return false
	}
	if !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt) {
		return false
	}
	return used < c.MaxUses
}

// Promocode marks a registrant for free or guaranteed entry. It carries no
// discount; checkout only records it when it belongs to the event.
type Promocode struct {
	Code         string `json:"code"`
	EventID      string `json:"event_id"`
	RegistrantID string `json:"registrant_id"`
}

// Valid reports whether the promocode belongs to the event.
func (p *Promocode) Valid(eventID string) bool {
	return p.EventID == eventID
}
