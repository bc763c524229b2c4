package models

import (
	"time"
)

// EventStatus tracks an event from draft through to the venue doors closing.
type EventStatus string

const (
	EventHold     EventStatus = "HOLD"
	EventCreated  EventStatus = "CREATED"
	EventLaunched EventStatus = "LAUNCHED"
	EventLive     EventStatus = "LIVE"
	EventClosed   EventStatus = "CLOSED"
)

// TicketType is one inventory line in an event's price table. Amount is the
// hard ceiling: tickets ever issued for this type must never exceed it.
type TicketType struct {
	Name   string  `json:"name"`
	Amount int     `json:"amount"`
	Price  float64 `json:"price"`
}

// ResalePolicy controls the secondary market for an event's tickets.
type ResalePolicy struct {
	Enabled    bool    `json:"enabled"`
	MaxPrice   float64 `json:"max_price"`
	RoyaltyPct float64 `json:"royalty_pct"`
}

type Event struct {
	ID               string       `json:"id"`
	PromoterID       string       `json:"promoter_id"`
	Name             string       `json:"name"`
	Capacity         int          `json:"capacity"`
	TicketTypes      []TicketType `json:"ticket_types"`
	CommissionPct    float64      `json:"commission_pct"`
	ResalePolicy     ResalePolicy `json:"resale_policy"`
	AvailableTickets int          `json:"available_tickets"` // per-account purchase cap
	Status           EventStatus  `json:"status"`
	StartsAt         time.Time    `json:"starts_at"`
	EndsAt           time.Time    `json:"ends_at"`
}

// TicketType returns the price-table entry for name, or nil when the event
// does not sell that type.
func (e *Event) TicketType(name string) *TicketType {
	for i := range e.TicketTypes {
		if e.TicketTypes[i].Name == name {
			return &e.TicketTypes[i]
		}
	}
	return nil
}
