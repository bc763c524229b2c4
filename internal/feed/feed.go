package feed

import (
	"fmt"
	"log/slog"
	"time"

	pubnub "github.com/pubnub/go"

	"tickethub/models"
	"tickethub/monitoring"
)

// Event is one payload destined for a tenant's live-monitoring channel.
// Services build events while mutating state but never publish them inline;
// the dispatcher delivers the batch after the primary transition committed, so
// a feed outage can neither block nor roll back a status change.
type Event struct {
	Channel string
	Payload map[string]any
}

// Publisher delivers feed events. Best effort only.
type Publisher interface {
	Publish(events ...Event)
}

// Outbox accumulates events during a unit of work.
type Outbox struct {
	events []Event
}

func (o *Outbox) Add(ev Event) {
	o.events = append(o.events, ev)
}

// Drain returns the collected events and empties the outbox.
func (o *Outbox) Drain() []Event {
	evs := o.events
	o.events = nil
	return evs
}

func promoterChannel(promoterID string) string {
	return fmt.Sprintf("promoter-%s", promoterID)
}

func redact(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

// AccessScanned reports a check-in decision to the promoter's feed.
func AccessScanned(ticket *models.Ticket, contact models.ContactDetails, newStatus models.TicketStatus, reason string) Event {
	return Event{
		Channel: promoterChannel(ticket.PromoterID),
		Payload: map[string]any{
			"type":        "access_scan",
			"ticket_id":   ticket.ID,
			"order_id":    ticket.OrderID,
			"event_id":    ticket.EventID,
			"promoter_id": ticket.PromoterID,
			"name":        redact(contact.Name),
			"last_name":   redact(contact.LastName),
			"email":       redact(contact.Email),
			"phone":       redact(contact.Phone),
			"status":      string(newStatus),
			"reason":      reason,
			"timestamp":   time.Now().Unix(),
		},
	}
}

// NewUser reports the first order an account placed with a promoter.
func NewUser(promoterID string, account *models.Account) Event {
	return Event{
		Channel: promoterChannel(promoterID),
		Payload: map[string]any{
			"type":        "new_user",
			"promoter_id": promoterID,
			"account_id":  account.ID,
			"name":        redact(account.Name),
			"last_name":   redact(account.LastName),
			"email":       redact(account.Email),
			"timestamp":   time.Now().Unix(),
		},
	}
}

// OrderSettled reports a completed settlement.
func OrderSettled(order *models.Order) Event {
	return Event{
		Channel: promoterChannel(order.PromoterID),
		Payload: map[string]any{
			"type":        "order_settled",
			"order_id":    order.ID,
			"event_id":    order.EventID,
			"promoter_id": order.PromoterID,
			"account_id":  order.AccountID,
			"tickets":     len(order.TicketIDs),
			"total":       order.Total,
			"timestamp":   time.Now().Unix(),
		},
	}
}

// PubNubPublisher pushes events over the tenant feed. Failures are logged and
// counted, never propagated.
type PubNubPublisher struct {
	pn *pubnub.PubNub
}

func NewPubNubPublisher(pn *pubnub.PubNub) *PubNubPublisher {
	return &PubNubPublisher{pn: pn}
}

func (p *PubNubPublisher) Publish(events ...Event) {
	for _, ev := range events {
		_, _, err := p.pn.Publish().
			Channel(ev.Channel).
			Message(ev.Payload).
			Execute()
		if err != nil {
			slog.Error("feed publish failed", "channel", ev.Channel, "error", err)
			monitoring.TrackFeedFailure(ev.Channel)
		}
	}
}
