package models

import (
	"time"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderSucceeded OrderStatus = "SUCCEEDED"
	OrderRefunded  OrderStatus = "REFUNDED"
)

// LineItem is a primary-inventory purchase request: quantity units of one
// ticket type at the unit price the event listed when the order was built.
type LineItem struct {
	Type     string  `json:"type"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// ResaleLineItem references an existing ticket being bought off the resale
// market instead of fresh inventory.
type ResaleLineItem struct {
	TicketID string  `json:"ticket_id"`
	Price    float64 `json:"price"`
}

type ContactDetails struct {
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Order is the per-event partition of a checkout. Orders sharing one checkout
// share one payment reference. Once SUCCEEDED an order is immutable except for
// TicketIDs, which settlement fills in.
type Order struct {
	ID          string           `json:"id"`
	AccountID   string           `json:"account_id"`
	EventID     string           `json:"event_id"`
	PromoterID  string           `json:"promoter_id"`
	LineItems   []LineItem       `json:"line_items"`
	ResaleItems []ResaleLineItem `json:"resale_items,omitempty"`
	Contact     ContactDetails   `json:"contact"`
	CouponCode  string           `json:"coupon_code,omitempty"`
	PromoCode   string           `json:"promo_code,omitempty"`
	Total       float64          `json:"total"`
	PaymentRef  string           `json:"payment_ref"`
	Status      OrderStatus      `json:"status"`
	TicketIDs   []string         `json:"ticket_ids,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Quantity sums the units this order asks for, primary and resale.
func (o *Order) Quantity() int {
	n := len(o.ResaleItems)
	for _, li := range o.LineItems {
		n += li.Quantity
	}
	return n
}

type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}
