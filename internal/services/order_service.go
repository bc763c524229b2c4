package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tickethub/internal/feed"
	"tickethub/internal/payments"
	"tickethub/internal/status"
	"tickethub/monitoring"
	"tickethub/models"
	"tickethub/utils"
)

const stubHistoryReason = "Ticket not paid yet."

// SubOrderRequest is one event's slice of a checkout: requested primary
// quantities by type name, plus resale tickets bought off the market.
type SubOrderRequest struct {
	EventID         string   `json:"event_id"`
	Items           []Item   `json:"items"`
	ResaleTicketIDs []string `json:"resale_ticket_ids,omitempty"`
	CouponCode      string   `json:"coupon_code,omitempty"`
	PromoCode       string   `json:"promo_code,omitempty"`
}

type Item struct {
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

// Checkout is the result of a successful order creation: one payment intent
// covering every sub-order.
type Checkout struct {
	PaymentReference string   `json:"payment_reference"`
	ClientSecret     string   `json:"client_secret"`
	AmountMinor      int64    `json:"amount_minor"`
	OrderIDs         []string `json:"order_ids"`
}

// OrderService builds PENDING orders and their ticket stubs, reserves
// inventory, and requests one combined payment intent. Any failure after the
// first side effect unwinds everything already done, so a rejected checkout
// leaves no orders, no stubs, and no held inventory behind.
type OrderService struct {
	events   EventStore
	orders   OrderStore
	tickets  TicketStore
	coupons  CouponStore
	accounts AccountStore
	inv      Reservations
	provider PaymentIntents
	breaker  *utils.CircuitBreaker
	feed     feed.Publisher

	defaultCap int
}

func NewOrderService(
	events EventStore,
	orders OrderStore,
	tickets TicketStore,
	coupons CouponStore,
	accounts AccountStore,
	inv Reservations,
	provider PaymentIntents,
	publisher feed.Publisher,
	defaultCap int,
) *OrderService {
	return &OrderService{
		events:     events,
		orders:     orders,
		tickets:    tickets,
		coupons:    coupons,
		accounts:   accounts,
		inv:        inv,
		provider:   provider,
		breaker:    utils.NewCircuitBreaker("payment-intent"),
		feed:       publisher,
		defaultCap: defaultCap,
	}
}

// saga collects undo steps while a checkout makes progress.
type saga struct {
	steps []func()
}

func (s *saga) add(step func()) {
	s.steps = append(s.steps, step)
}

func (s *saga) compensate() {
	for i := len(s.steps) - 1; i >= 0; i-- {
		s.steps[i]()
	}
}

// Create runs the full checkout. Sub-orders are processed sequentially; the
// first rejection aborts and compensates everything before it.
func (s *OrderService) Create(ctx context.Context, contact models.ContactDetails, subs []SubOrderRequest) (*Checkout, error) {
	if strings.TrimSpace(contact.Email) == "" {
		return nil, status.ErrInvalidContact
	}
	if len(subs) == 0 {
		return nil, status.ErrEmptyOrder
	}

	account, err := s.accounts.FindOrCreateByEmail(ctx, contact)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}

	var (
		comp     saga
		outbox   feed.Outbox
		orderIDs []string
		combined = decimal.Zero
	)

	for _, sub := range subs {
		orderID, total, err := s.createSubOrder(ctx, account, contact, sub, &comp, &outbox)
		if err != nil {
			comp.compensate()
			return nil, err
		}
		orderIDs = append(orderIDs, orderID)
		combined = combined.Add(total)
	}

	amountMinor := models.MinorUnits(combined)

	start := time.Now()
	result, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.provider.CreateIntent(ctx, amountMinor)
	})
	monitoring.TrackPaymentIntent(time.Since(start))
	if err != nil {
		slog.Error("checkout: payment intent failed", "amount_minor", amountMinor, "error", err)
		comp.compensate()
		return nil, fmt.Errorf("%w: %v", status.ErrPaymentProvider, err)
	}
	intent := result.(*payments.Intent)

	for _, orderID := range orderIDs {
		if err := s.orders.SetPaymentRef(ctx, orderID, intent.ID); err != nil {
			comp.compensate()
			return nil, fmt.Errorf("attach payment reference: %w", err)
		}
	}

	if s.feed != nil {
		s.feed.Publish(outbox.Drain()...)
	}

	return &Checkout{
		PaymentReference: intent.ID,
		ClientSecret:     intent.ClientSecret,
		AmountMinor:      amountMinor,
		OrderIDs:         orderIDs,
	}, nil
}

// createSubOrder handles one event: caps, coupon, pricing, inventory, the
// PENDING order, and its ticket stubs. Undo steps go onto the shared saga.
func (s *OrderService) createSubOrder(ctx context.Context, account *models.Account, contact models.ContactDetails, sub SubOrderRequest, comp *saga, outbox *feed.Outbox) (string, decimal.Decimal, error) {
	event, err := s.events.FindByID(ctx, sub.EventID)
	if err != nil {
		return "", decimal.Zero, err
	}

	lineItems, resaleItems, resaleTickets, err := s.priceItems(ctx, event, sub)
	if err != nil {
		return "", decimal.Zero, err
	}
	if len(lineItems) == 0 && len(resaleItems) == 0 {
		return "", decimal.Zero, status.ErrEmptyOrder
	}

	quantity := len(resaleItems)
	for _, li := range lineItems {
		quantity += li.Quantity
	}

	if err := s.reserveAccountCap(ctx, event, account.ID, quantity, comp); err != nil {
		return "", decimal.Zero, err
	}

	if err := s.reserveInventory(ctx, event, lineItems, comp); err != nil {
		return "", decimal.Zero, err
	}

	couponCode, discountPct, couponValid := s.resolveCoupon(ctx, event, sub.CouponCode)
	promoCode := s.resolvePromo(ctx, event, sub.PromoCode)

	subtotal := models.Subtotal(lineItems, resaleItems)
	total := models.OrderTotal(subtotal, event.CommissionPct, discountPct, couponValid)

	order := &models.Order{
		AccountID:   account.ID,
		EventID:     event.ID,
		PromoterID:  event.PromoterID,
		LineItems:   lineItems,
		ResaleItems: resaleItems,
		Contact:     contact,
		CouponCode:  couponCode,
		PromoCode:   promoCode,
		Total:       total.InexactFloat64(),
		Status:      models.OrderPending,
	}

	orderID, err := s.orders.Create(ctx, order)
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("persist order: %w", err)
	}
	order.ID = orderID
	comp.add(func() {
		if err := s.orders.Delete(context.WithoutCancel(ctx), orderID); err != nil {
			slog.Error("checkout: compensation failed to delete order", "order_id", orderID, "error", err)
		}
	})

	ticketIDs, err := s.mintStubs(ctx, event, order, account.ID, lineItems, resaleTickets, comp)
	if err != nil {
		return "", decimal.Zero, err
	}

	if err := s.orders.AttachTickets(ctx, orderID, ticketIDs); err != nil {
		return "", decimal.Zero, fmt.Errorf("attach tickets: %w", err)
	}

	firstOrder, err := s.accounts.Link(ctx, account.ID, event.PromoterID)
	if err != nil {
		slog.Error("checkout: promoter link failed", "account_id", account.ID, "promoter_id", event.PromoterID, "error", err)
	} else if firstOrder {
		outbox.Add(feed.NewUser(event.PromoterID, account))
	}

	monitoring.TrackOrderCreated(event.ID)
	return orderID, total, nil
}

// priceItems resolves the request against the event's price table. Unknown
// type names are dropped without complaint; a resale reference that is not an
// active listing rejects the whole checkout.
func (s *OrderService) priceItems(ctx context.Context, event *models.Event, sub SubOrderRequest) ([]models.LineItem, []models.ResaleLineItem, []*models.Ticket, error) {
	var lineItems []models.LineItem
	for _, item := range sub.Items {
		if item.Quantity <= 0 {
			continue
		}
		tt := event.TicketType(item.Type)
		if tt == nil {
			slog.Warn("checkout: dropping unknown ticket type", "event_id", event.ID, "type", item.Type)
			continue
		}
		lineItems = append(lineItems, models.LineItem{
			Type:     tt.Name,
			Quantity: item.Quantity,
			Price:    tt.Price,
		})
	}

	var (
		resaleItems   []models.ResaleLineItem
		resaleTickets []*models.Ticket
	)
	for _, ticketID := range sub.ResaleTicketIDs {
		ticket, err := s.tickets.FindByID(ctx, ticketID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: %s", status.ErrNotResalable, ticketID)
		}
		if ticket.EventID != event.ID || ticket.Status != models.TicketSale || ticket.Resale == nil {
			return nil, nil, nil, fmt.Errorf("%w: %s", status.ErrNotResalable, ticketID)
		}
		resaleItems = append(resaleItems, models.ResaleLineItem{
			TicketID: ticket.ID,
			Price:    ticket.Resale.Price,
		})
		resaleTickets = append(resaleTickets, ticket)
	}

	return lineItems, resaleItems, resaleTickets, nil
}

func (s *OrderService) reserveAccountCap(ctx context.Context, event *models.Event, accountID string, quantity int, comp *saga) error {
	cap := event.AvailableTickets
	if cap <= 0 {
		cap = s.defaultCap
	}

	purchased, err := s.tickets.CountByAccount(ctx, event.ID, accountID)
	if err != nil {
		return fmt.Errorf("count purchases: %w", err)
	}
	if err := s.inv.SeedAccount(ctx, event.ID, accountID, purchased); err != nil {
		return fmt.Errorf("seed account counter: %w", err)
	}

	if err := s.inv.ReserveAccount(ctx, event.ID, accountID, quantity, cap); err != nil {
		monitoring.TrackCapacityRejection(event.ID, "account_cap")
		return err
	}
	comp.add(func() {
		if err := s.inv.ReleaseAccount(context.WithoutCancel(ctx), event.ID, accountID, quantity); err != nil {
			slog.Error("checkout: compensation failed to release account cap", "event_id", event.ID, "error", err)
		}
	})
	return nil
}

func (s *OrderService) reserveInventory(ctx context.Context, event *models.Event, lineItems []models.LineItem, comp *saga) error {
	for _, li := range lineItems {
		tt := event.TicketType(li.Type)

		issued, err := s.tickets.CountIssued(ctx, event.ID, li.Type)
		if err != nil {
			return fmt.Errorf("count issued: %w", err)
		}
		if err := s.inv.Seed(ctx, event.ID, li.Type, issued); err != nil {
			return fmt.Errorf("seed inventory counter: %w", err)
		}

		if err := s.inv.Reserve(ctx, event.ID, li.Type, li.Quantity, tt.Amount); err != nil {
			monitoring.TrackCapacityRejection(event.ID, "sold_out")
			return err
		}

		typeName, quantity := li.Type, li.Quantity
		comp.add(func() {
			if err := s.inv.Release(context.WithoutCancel(ctx), event.ID, typeName, quantity); err != nil {
				slog.Error("checkout: compensation failed to release inventory", "event_id", event.ID, "type", typeName, "error", err)
			}
		})
	}
	return nil
}

// resolveCoupon validates a coupon against the event and its derived usage
// count. An invalid coupon is ignored and the order prices at full rate.
func (s *OrderService) resolveCoupon(ctx context.Context, event *models.Event, code string) (string, float64, bool) {
	if code == "" {
		return "", 0, false
	}

	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		slog.Info("checkout: ignoring unknown coupon", "event_id", event.ID, "code", code)
		return "", 0, false
	}

	used, err := s.orders.CountSucceededByCoupon(ctx, event.ID, code)
	if err != nil {
		slog.Error("checkout: coupon usage count failed", "code", code, "error", err)
		return "", 0, false
	}

	if !coupon.Usable(event.ID, used, time.Now()) {
		slog.Info("checkout: ignoring unusable coupon", "event_id", event.ID, "code", code)
		return "", 0, false
	}

	return coupon.Code, coupon.DiscountPct, true
}

func (s *OrderService) resolvePromo(ctx context.Context, event *models.Event, code string) string {
	if code == "" {
		return ""
	}

	promo, err := s.coupons.FindPromoByCode(ctx, code)
	if err != nil || !promo.Valid(event.ID) {
		slog.Info("checkout: ignoring invalid promocode", "event_id", event.ID, "code", code)
		return ""
	}
	return promo.Code
}

// mintStubs creates one PENDING ticket per purchased unit. Stubs carry no QR
// payload; that appears only at settlement.
func (s *OrderService) mintStubs(ctx context.Context, event *models.Event, order *models.Order, accountID string, lineItems []models.LineItem, resaleTickets []*models.Ticket, comp *saga) ([]string, error) {
	var ticketIDs []string

	mint := func(t *models.Ticket) error {
		id, err := s.tickets.CreateStub(ctx, t)
		if err != nil {
			return fmt.Errorf("mint ticket stub: %w", err)
		}
		ticketIDs = append(ticketIDs, id)
		comp.add(func() {
			if err := s.tickets.Delete(context.WithoutCancel(ctx), id); err != nil {
				slog.Error("checkout: compensation failed to delete stub", "ticket_id", id, "error", err)
			}
		})

		if err := s.tickets.AppendHistory(ctx, &models.HistoryEntry{
			TicketID: id,
			Activity: models.ActivityCreated,
			Reason:   stubHistoryReason,
			Status:   models.TicketPending,
		}); err != nil {
			slog.Error("checkout: stub history append failed", "ticket_id", id, "error", err)
		}
		return nil
	}

	for _, li := range lineItems {
		for i := 0; i < li.Quantity; i++ {
			err := mint(&models.Ticket{
				EventID:    event.ID,
				OrderID:    order.ID,
				OwnerID:    accountID,
				PromoterID: event.PromoterID,
				Type:       li.Type,
				Price:      li.Price,
				Status:     models.TicketPending,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	for _, original := range resaleTickets {
		err := mint(&models.Ticket{
			EventID:    event.ID,
			OrderID:    order.ID,
			OwnerID:    accountID,
			PromoterID: event.PromoterID,
			Type:       original.Type,
			Price:      original.Resale.Price,
			Status:     models.TicketPending,
			ResaleOf:   original.ID,
			ChainMeta:  original.ChainMeta,
		})
		if err != nil {
			return nil, err
		}
	}

	return ticketIDs, nil
}
