package services

import (
	"context"
	"fmt"
	"log/slog"

	"tickethub/internal/feed"
	"tickethub/internal/status"
	"tickethub/monitoring"
	"tickethub/models"
	"tickethub/utils"
)

const (
	activatedReason     = "Ticket activated."
	resaleSettledReason = "Resale purchase completed."
	refundedReason      = "Payment refunded."
)

// SettlementService reacts to payment outcomes. Settle is idempotent per
// order: the PENDING -> SUCCEEDED swap on the order row is the guard, so a
// replayed webhook or a duplicate provider notification changes nothing.
type SettlementService struct {
	orders  OrderStore
	tickets TicketStore
	inv     Reservations
	feed    feed.Publisher
	mailer  Mailer
}

func NewSettlementService(orders OrderStore, tickets TicketStore, inv Reservations, publisher feed.Publisher, mailer Mailer) *SettlementService {
	return &SettlementService{orders: orders, tickets: tickets, inv: inv, feed: publisher, mailer: mailer}
}

// Settle activates every order under a payment reference. Stubs become OPEN
// tickets and receive their QR payload; resale stubs additionally hand the
// original ticket over to the buyer.
func (s *SettlementService) Settle(ctx context.Context, paymentRef string) error {
	orders, err := s.orders.ListByPaymentRef(ctx, paymentRef)
	if err != nil {
		return fmt.Errorf("settle %s: %w", paymentRef, err)
	}
	if len(orders) == 0 {
		return fmt.Errorf("settle %s: %w", paymentRef, status.ErrOrderNotFound)
	}

	var outbox feed.Outbox

	for _, order := range orders {
		settled, err := s.orders.CasStatus(ctx, order.ID, models.OrderPending, models.OrderSucceeded)
		if err != nil {
			return fmt.Errorf("settle order %s: %w", order.ID, err)
		}

		// The activation pass runs even when the swap lost: a previous
		// delivery may have won it and then failed before finishing, leaving
		// paid stubs behind. Activation is conditional per stub, so a replay
		// over already-activated tickets changes nothing.
		if err := s.activateOrder(ctx, order); err != nil {
			return err
		}

		if !settled {
			slog.Info("settlement: order already settled", "order_id", order.ID, "payment_ref", paymentRef)
			monitoring.TrackSettlement("duplicate")
			continue
		}

		order.Status = models.OrderSucceeded
		outbox.Add(feed.OrderSettled(order))
		monitoring.TrackSettlement("succeeded")

		if s.mailer != nil && order.Contact.Email != "" {
			if err := s.mailer.SendOrderConfirmation(ctx, order.Contact.Email, order); err != nil {
				slog.Error("settlement: confirmation mail failed", "order_id", order.ID, "error", err)
			}
		}
	}

	if s.feed != nil {
		s.feed.Publish(outbox.Drain()...)
	}
	return nil
}

func (s *SettlementService) activateOrder(ctx context.Context, order *models.Order) error {
	tickets, err := s.tickets.ListByOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("list tickets for order %s: %w", order.ID, err)
	}

	for _, ticket := range tickets {
		if ticket.Status != models.TicketPending && ticket.Status != models.TicketProcessing {
			continue
		}

		qr, err := qrPayload(ticket)
		if err != nil {
			return fmt.Errorf("generate qr for %s: %w", ticket.ID, err)
		}

		activated, err := s.tickets.ActivateStub(ctx, ticket.ID, qr)
		if err != nil {
			return fmt.Errorf("activate ticket %s: %w", ticket.ID, err)
		}
		if !activated {
			slog.Warn("settlement: stub already activated", "ticket_id", ticket.ID)
			continue
		}

		reason := activatedReason
		if ticket.ResaleOf != "" {
			reason = resaleSettledReason
			if err := s.settleResale(ctx, ticket); err != nil {
				return err
			}
		}

		if err := s.tickets.AppendHistory(ctx, &models.HistoryEntry{
			TicketID: ticket.ID,
			Activity: models.ActivityActivated,
			Reason:   reason,
			Status:   models.TicketOpen,
		}); err != nil {
			slog.Error("settlement: history append failed", "ticket_id", ticket.ID, "error", err)
		}
	}

	return nil
}

// settleResale hands the original listed ticket over: SALE -> SOLD, with a
// from/to ownership snapshot in its history.
func (s *SettlementService) settleResale(ctx context.Context, stub *models.Ticket) error {
	original, err := s.tickets.FindByID(ctx, stub.ResaleOf)
	if err != nil {
		return fmt.Errorf("resale original %s: %w", stub.ResaleOf, err)
	}

	sold, err := s.tickets.CasStatus(ctx, original.ID, models.TicketSale, models.TicketSold)
	if err != nil {
		return fmt.Errorf("mark resold %s: %w", original.ID, err)
	}
	if !sold {
		slog.Warn("settlement: resale original already moved", "ticket_id", original.ID)
		return nil
	}

	if err := s.tickets.AppendHistory(ctx, &models.HistoryEntry{
		TicketID:    original.ID,
		Activity:    models.ActivityResold,
		Reason:      resaleSettledReason,
		Status:      models.TicketSold,
		FromAccount: original.OwnerID,
		ToAccount:   stub.OwnerID,
	}); err != nil {
		slog.Error("settlement: resale history append failed", "ticket_id", original.ID, "error", err)
	}
	return nil
}

// MarkFailed records a failed payment. Orders stay PENDING so the buyer can
// retry against a fresh intent.
func (s *SettlementService) MarkFailed(ctx context.Context, paymentRef string) error {
	orders, err := s.orders.ListByPaymentRef(ctx, paymentRef)
	if err != nil {
		return fmt.Errorf("payment failed %s: %w", paymentRef, err)
	}
	if len(orders) == 0 {
		return fmt.Errorf("payment failed %s: %w", paymentRef, status.ErrOrderNotFound)
	}

	for _, order := range orders {
		slog.Warn("settlement: payment failed, order stays pending",
			"order_id", order.ID, "payment_ref", paymentRef)
	}
	monitoring.TrackSettlement("failed")
	return nil
}

// Refund expires every ticket minted under a payment reference and moves the
// orders to REFUNDED. Tickets already consumed at the door stay CLOSED.
func (s *SettlementService) Refund(ctx context.Context, paymentRef string) error {
	orders, err := s.orders.ListByPaymentRef(ctx, paymentRef)
	if err != nil {
		return fmt.Errorf("refund %s: %w", paymentRef, err)
	}
	if len(orders) == 0 {
		return fmt.Errorf("refund %s: %w", paymentRef, status.ErrOrderNotFound)
	}

	for _, order := range orders {
		tickets, err := s.tickets.ListByOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("refund order %s: %w", order.ID, err)
		}

		expiredByType := map[string]int{}
		expiredTotal := 0

		for _, ticket := range tickets {
			if !models.CanTransition(ticket.Status, models.ActionExpire) {
				continue
			}

			expired, err := s.tickets.CasStatus(ctx, ticket.ID, ticket.Status, models.TicketExpired)
			if err != nil {
				return fmt.Errorf("expire ticket %s: %w", ticket.ID, err)
			}
			if !expired {
				slog.Warn("refund: ticket moved before expiry", "ticket_id", ticket.ID)
				continue
			}
			expiredTotal++
			if ticket.ResaleOf == "" {
				// resale stubs never consumed primary inventory
				expiredByType[ticket.Type]++
			}

			if err := s.tickets.AppendHistory(ctx, &models.HistoryEntry{
				TicketID: ticket.ID,
				Activity: models.ActivityExpired,
				Reason:   refundedReason,
				Status:   models.TicketExpired,
			}); err != nil {
				slog.Error("refund: history append failed", "ticket_id", ticket.ID, "error", err)
			}
		}

		s.releaseRefunded(ctx, order, expiredByType, expiredTotal)

		if refunded, err := s.orders.CasStatus(ctx, order.ID, models.OrderSucceeded, models.OrderRefunded); err != nil {
			return fmt.Errorf("refund order %s: %w", order.ID, err)
		} else if !refunded {
			// refund can land before the success notification
			if _, err := s.orders.CasStatus(ctx, order.ID, models.OrderPending, models.OrderRefunded); err != nil {
				return fmt.Errorf("refund order %s: %w", order.ID, err)
			}
		}
	}

	monitoring.TrackSettlement("refunded")
	return nil
}

// releaseRefunded hands the expired units back to the admission counters.
// Without this the Redis counters keep counting tickets the durable counts
// (which exclude EXPIRED) no longer see, blocking capacity and the buyer's
// cap until a reseed. Failures are logged; the refund itself already stuck.
func (s *SettlementService) releaseRefunded(ctx context.Context, order *models.Order, expiredByType map[string]int, expiredTotal int) {
	if s.inv == nil {
		return
	}

	for typeName, n := range expiredByType {
		if err := s.inv.Release(ctx, order.EventID, typeName, n); err != nil {
			slog.Error("refund: inventory release failed",
				"event_id", order.EventID, "type", typeName, "n", n, "error", err)
		}
	}

	if expiredTotal > 0 {
		if err := s.inv.ReleaseAccount(ctx, order.EventID, order.AccountID, expiredTotal); err != nil {
			slog.Error("refund: account cap release failed",
				"event_id", order.EventID, "account_id", order.AccountID, "error", err)
		}
	}
}

// qrPayload builds the scannable payload for an activated ticket. The random
// component makes payloads unguessable even with knowledge of the ticket id.
func qrPayload(t *models.Ticket) (string, error) {
	code, err := utils.GenerateCode(16)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TKT.%s.%s", t.ID, code), nil
}

// SlogMailer is the default Mailer: it records the send instead of delivering
// anything. Real delivery arrives with an SMTP or provider binding.
type SlogMailer struct{}

func (SlogMailer) SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error {
	slog.Info("mail: order confirmation", "to", to, "order_id", order.ID, "total", order.Total)
	return nil
}
