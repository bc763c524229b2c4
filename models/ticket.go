package models

import (
	"fmt"
	"time"
)

// TicketStatus is the lifecycle state of a single admission unit.
type TicketStatus string

const (
	TicketPending    TicketStatus = "PENDING"
	TicketProcessing TicketStatus = "PROCESSING"
	TicketOpen       TicketStatus = "OPEN"
	TicketSale       TicketStatus = "SALE"
	TicketClosed     TicketStatus = "CLOSED"
	TicketSold       TicketStatus = "SOLD"
	TicketExpired    TicketStatus = "EXPIRED"
	TicketTransfered TicketStatus = "TRANSFERED"
)

// TicketAction is an event applied against a ticket's current status.
type TicketAction string

const (
	ActionActivate     TicketAction = "ACTIVATE"      // settlement turns a paid stub into a usable ticket
	ActionGrant        TicketAction = "GRANT"         // venue check-in consumes the ticket
	ActionListResale   TicketAction = "LIST_RESALE"   // owner puts the ticket on the resale market
	ActionCancelResale TicketAction = "CANCEL_RESALE" // owner withdraws the resale listing
	ActionResell       TicketAction = "RESELL"        // resale settlement hands the ticket off
	ActionTransfer     TicketAction = "TRANSFER"      // ownership moved outside the marketplace
	ActionExpire       TicketAction = "EXPIRE"        // refund or event end
)

// transitions is the full status machine. A (status, action) pair absent from
// this table is not a valid transition; callers get an error instead of a
// silently-applied write.
var transitions = map[TicketStatus]map[TicketAction]TicketStatus{
	TicketPending: {
		ActionActivate: TicketOpen,
		ActionExpire:   TicketExpired,
	},
	TicketProcessing: {
		ActionActivate: TicketOpen,
		ActionExpire:   TicketExpired,
	},
	TicketOpen: {
		ActionGrant:      TicketClosed,
		ActionListResale: TicketSale,
		ActionTransfer:   TicketTransfered,
		ActionExpire:     TicketExpired,
	},
	TicketSale: {
		ActionCancelResale: TicketOpen,
		ActionResell:       TicketSold,
		ActionExpire:       TicketExpired,
	},
}

// NextStatus resolves the transition table for a (status, action) pair.
func NextStatus(current TicketStatus, action TicketAction) (TicketStatus, error) {
	if actions, ok := transitions[current]; ok {
		if next, ok := actions[action]; ok {
			return next, nil
		}
	}
	return "", fmt.Errorf("no transition from %s via %s", current, action)
}

// CanTransition reports whether action is defined for the current status.
func CanTransition(current TicketStatus, action TicketAction) bool {
	_, err := NextStatus(current, action)
	return err == nil
}

// Terminal reports whether a ticket can never move again.
func (s TicketStatus) Terminal() bool {
	return s == TicketClosed || s == TicketExpired || s == TicketTransfered || s == TicketSold
}

// Activity classifies a history entry.
type Activity string

const (
	ActivityCreated    Activity = "CREATED"
	ActivityGranted    Activity = "GRANTED"
	ActivityDenied     Activity = "DENIED"
	ActivityActivated  Activity = "ACTIVATED"
	ActivityResold     Activity = "RESOLD"
	ActivityTransfered Activity = "TRANSFERED"
	ActivityExpired    Activity = "EXPIRED"
)

// HistoryEntry is one append-only audit record for a ticket. Entries are never
// rewritten once stored.
type HistoryEntry struct {
	ID          string       `json:"id,omitempty"`
	TicketID    string       `json:"ticket_id"`
	Activity    Activity     `json:"activity"`
	Reason      string       `json:"reason"`
	Status      TicketStatus `json:"status"`
	FromAccount string       `json:"from_account,omitempty"`
	ToAccount   string       `json:"to_account,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Resale is the optional listing sub-record on a ticket.
type Resale struct {
	Price    float64   `json:"price"`
	ListedAt time.Time `json:"listed_at"`
}

type Ticket struct {
	ID         string       `json:"id"`
	EventID    string       `json:"event_id"`
	OrderID    string       `json:"order_id"`
	OwnerID    string       `json:"owner_id"`
	PromoterID string       `json:"promoter_id"`
	Type       string       `json:"type"`
	Price      float64      `json:"price"`
	Status     TicketStatus `json:"status"`
	Resale     *Resale      `json:"resale,omitempty"`
	ResaleOf   string       `json:"resale_of,omitempty"` // original ticket when this one was bought off the resale market
	QRPayload  string       `json:"qr_payload,omitempty"`
	ChainMeta  string       `json:"chain_meta,omitempty"` // opaque external-chain anchoring blob, passed through untouched
	CreatedAt  time.Time    `json:"created_at"`
}
