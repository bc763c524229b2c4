package services

import (
	"context"

	"tickethub/internal/payments"
	"tickethub/models"
)

// The services depend on narrow persistence contracts instead of the concrete
// PocketBase stores, so the engines can be exercised without a database.

type TicketStore interface {
	FindForPromoter(ctx context.Context, ticketID, promoterID string) (*models.Ticket, error)
	FindByID(ctx context.Context, ticketID string) (*models.Ticket, error)
	CasStatus(ctx context.Context, ticketID string, from, to models.TicketStatus) (bool, error)
	ActivateStub(ctx context.Context, ticketID, qrPayload string) (bool, error)
	CreateStub(ctx context.Context, t *models.Ticket) (string, error)
	Delete(ctx context.Context, ticketID string) error
	ListByOrder(ctx context.Context, orderID string) ([]*models.Ticket, error)
	CountIssued(ctx context.Context, eventID, typeName string) (int, error)
	CountByAccount(ctx context.Context, eventID, accountID string) (int, error)
	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) (string, error)
	Delete(ctx context.Context, orderID string) error
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	AttachTickets(ctx context.Context, orderID string, ticketIDs []string) error
	SetPaymentRef(ctx context.Context, orderID, paymentRef string) error
	ListByPaymentRef(ctx context.Context, paymentRef string) ([]*models.Order, error)
	CasStatus(ctx context.Context, orderID string, from, to models.OrderStatus) (bool, error)
	CountSucceededByCoupon(ctx context.Context, eventID, code string) (int, error)
}

type EventStore interface {
	FindByID(ctx context.Context, eventID string) (*models.Event, error)
}

type CouponStore interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindPromoByCode(ctx context.Context, code string) (*models.Promocode, error)
}

type AccountStore interface {
	FindOrCreateByEmail(ctx context.Context, contact models.ContactDetails) (*models.Account, error)
	Link(ctx context.Context, accountID, promoterID string) (bool, error)
}

// Reservations is the Redis-backed admission control for inventory and
// per-account caps.
type Reservations interface {
	Seed(ctx context.Context, eventID, typeName string, issued int) error
	Reserve(ctx context.Context, eventID, typeName string, n, capacity int) error
	Release(ctx context.Context, eventID, typeName string, n int) error
	SeedAccount(ctx context.Context, eventID, accountID string, purchased int) error
	ReserveAccount(ctx context.Context, eventID, accountID string, n, cap int) error
	ReleaseAccount(ctx context.Context, eventID, accountID string, n int) error
}

// PaymentIntents is the slice of the payment provider checkout needs.
type PaymentIntents interface {
	CreateIntent(ctx context.Context, amountMinor int64) (*payments.Intent, error)
}

// Mailer sends buyer-facing mail. Always best effort; settlement never fails
// because a confirmation could not be sent.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error
}
