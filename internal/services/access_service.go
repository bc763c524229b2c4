package services

import (
	"context"
	"errors"
	"log/slog"

	"tickethub/internal/auth"
	"tickethub/internal/feed"
	"tickethub/internal/status"
	"tickethub/monitoring"
	"tickethub/models"
)

const (
	ReasonGranted     = "Access granted."
	ReasonNotFound    = "TICKET NOT FOUND"
	ReasonAlreadyUsed = "Ticket already used."
	ReasonOnSale      = "Ticket is on sale."
	ReasonExpired     = "Ticket is expired."
	ReasonProcessing  = "Processing ticket ..."
	ReasonCheckError  = "ERROR CHECKING YOUR TICKET"
)

// Decision is the scan verdict returned to the access station.
type Decision struct {
	Access bool           `json:"access"`
	Reason string         `json:"reason"`
	Ticket *models.Ticket `json:"ticket,omitempty"`
}

// AccessService decides venue admission. Every path resolves to a Decision;
// on any internal failure the decision is a denial, never an error.
type AccessService struct {
	tickets TicketStore
	orders  OrderStore
	feed    feed.Publisher
}

func NewAccessService(tickets TicketStore, orders OrderStore, publisher feed.Publisher) *AccessService {
	return &AccessService{tickets: tickets, orders: orders, feed: publisher}
}

// Validate runs one scan. The lookup is scoped to the station's promoter and
// event, so a ticket from another tenant is indistinguishable from a missing
// one. An OPEN ticket is consumed with a compare-and-swap; of two stations
// scanning the same ticket at once, exactly one gets the grant.
func (s *AccessService) Validate(ctx context.Context, claims *auth.Claims, ticketID string) Decision {
	var outbox feed.Outbox
	defer func() {
		if s.feed != nil {
			s.feed.Publish(outbox.Drain()...)
		}
	}()

	ticket, err := s.tickets.FindForPromoter(ctx, ticketID, claims.PromoterID)
	if err != nil {
		if errors.Is(err, status.ErrTicketNotFound) {
			monitoring.TrackScan(claims.AccessEventID, "not_found")
			return Decision{Access: false, Reason: ReasonNotFound}
		}
		// storage trouble is not proof of a missing ticket
		slog.Error("scan: ticket lookup failed", "ticket_id", ticketID, "error", err)
		monitoring.TrackScan(claims.AccessEventID, "error")
		return Decision{Access: false, Reason: ReasonCheckError}
	}
	if ticket.EventID != claims.AccessEventID {
		monitoring.TrackScan(claims.AccessEventID, "not_found")
		return Decision{Access: false, Reason: ReasonNotFound}
	}

	contact := s.contactFor(ctx, ticket)

	switch ticket.Status {
	case models.TicketOpen:
		won, err := s.tickets.CasStatus(ctx, ticket.ID, models.TicketOpen, models.TicketClosed)
		if err != nil {
			slog.Error("scan: status swap failed", "ticket_id", ticket.ID, "error", err)
			monitoring.TrackScan(ticket.EventID, "error")
			return Decision{Access: false, Reason: ReasonCheckError}
		}
		if !won {
			// another station consumed it between lookup and swap
			ticket.Status = models.TicketClosed
			return s.deny(ctx, &outbox, ticket, contact, models.TicketClosed, ReasonAlreadyUsed)
		}

		ticket.Status = models.TicketClosed
		s.record(ctx, &outbox, ticket, contact, models.HistoryEntry{
			TicketID: ticket.ID,
			Activity: models.ActivityGranted,
			Reason:   ReasonGranted,
			Status:   models.TicketClosed,
		})
		monitoring.TrackScan(ticket.EventID, "granted")
		return Decision{Access: true, Reason: ReasonGranted, Ticket: ticket}

	case models.TicketClosed:
		return s.deny(ctx, &outbox, ticket, contact, ticket.Status, ReasonAlreadyUsed)
	case models.TicketSale:
		return s.deny(ctx, &outbox, ticket, contact, ticket.Status, ReasonOnSale)
	case models.TicketExpired:
		return s.deny(ctx, &outbox, ticket, contact, ticket.Status, ReasonExpired)
	case models.TicketProcessing:
		return s.deny(ctx, &outbox, ticket, contact, ticket.Status, ReasonProcessing)
	default:
		// PENDING, TRANSFERED, SOLD and anything unmodeled: deny with an
		// audit record rather than guessing.
		return s.deny(ctx, &outbox, ticket, contact, ticket.Status, ReasonCheckError)
	}
}

func (s *AccessService) deny(ctx context.Context, outbox *feed.Outbox, ticket *models.Ticket, contact models.ContactDetails, status models.TicketStatus, reason string) Decision {
	s.record(ctx, outbox, ticket, contact, models.HistoryEntry{
		TicketID: ticket.ID,
		Activity: models.ActivityDenied,
		Reason:   reason,
		Status:   status,
	})
	monitoring.TrackScan(ticket.EventID, "denied")
	return Decision{Access: false, Reason: reason, Ticket: ticket}
}

// record appends the audit entry and queues the feed notification. The scan
// decision is already made; a history write failure is logged, not surfaced.
func (s *AccessService) record(ctx context.Context, outbox *feed.Outbox, ticket *models.Ticket, contact models.ContactDetails, entry models.HistoryEntry) {
	if err := s.tickets.AppendHistory(ctx, &entry); err != nil {
		slog.Error("scan: history append failed", "ticket_id", ticket.ID, "error", err)
	}
	outbox.Add(feed.AccessScanned(ticket, contact, entry.Status, entry.Reason))
}

// contactFor resolves the holder identity for the feed payload. Missing data
// degrades to redacted fields.
func (s *AccessService) contactFor(ctx context.Context, ticket *models.Ticket) models.ContactDetails {
	if ticket.OrderID == "" {
		return models.ContactDetails{}
	}
	order, err := s.orders.FindByID(ctx, ticket.OrderID)
	if err != nil {
		return models.ContactDetails{}
	}
	return order.Contact
}
