package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tickethub/internal/feed"
	"tickethub/internal/payments"
	"tickethub/models"
)

type mockTicketStore struct {
	mock.Mock
}

func (m *mockTicketStore) FindForPromoter(ctx context.Context, ticketID, promoterID string) (*models.Ticket, error) {
	args := m.Called(ctx, ticketID, promoterID)
	if t := args.Get(0); t != nil {
		return t.(*models.Ticket), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTicketStore) FindByID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if t := args.Get(0); t != nil {
		return t.(*models.Ticket), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTicketStore) CasStatus(ctx context.Context, ticketID string, from, to models.TicketStatus) (bool, error) {
	args := m.Called(ctx, ticketID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *mockTicketStore) ActivateStub(ctx context.Context, ticketID, qrPayload string) (bool, error) {
	args := m.Called(ctx, ticketID, qrPayload)
	return args.Bool(0), args.Error(1)
}

func (m *mockTicketStore) CreateStub(ctx context.Context, t *models.Ticket) (string, error) {
	args := m.Called(ctx, t)
	return args.String(0), args.Error(1)
}

func (m *mockTicketStore) Delete(ctx context.Context, ticketID string) error {
	return m.Called(ctx, ticketID).Error(0)
}

func (m *mockTicketStore) ListByOrder(ctx context.Context, orderID string) ([]*models.Ticket, error) {
	args := m.Called(ctx, orderID)
	if t := args.Get(0); t != nil {
		return t.([]*models.Ticket), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTicketStore) CountIssued(ctx context.Context, eventID, typeName string) (int, error) {
	args := m.Called(ctx, eventID, typeName)
	return args.Int(0), args.Error(1)
}

func (m *mockTicketStore) CountByAccount(ctx context.Context, eventID, accountID string) (int, error) {
	args := m.Called(ctx, eventID, accountID)
	return args.Int(0), args.Error(1)
}

func (m *mockTicketStore) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	return m.Called(ctx, entry).Error(0)
}

type mockOrderStore struct {
	mock.Mock
}

func (m *mockOrderStore) Create(ctx context.Context, o *models.Order) (string, error) {
	args := m.Called(ctx, o)
	return args.String(0), args.Error(1)
}

func (m *mockOrderStore) Delete(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *mockOrderStore) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	if o := args.Get(0); o != nil {
		return o.(*models.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOrderStore) AttachTickets(ctx context.Context, orderID string, ticketIDs []string) error {
	return m.Called(ctx, orderID, ticketIDs).Error(0)
}

func (m *mockOrderStore) SetPaymentRef(ctx context.Context, orderID, paymentRef string) error {
	return m.Called(ctx, orderID, paymentRef).Error(0)
}

func (m *mockOrderStore) ListByPaymentRef(ctx context.Context, paymentRef string) ([]*models.Order, error) {
	args := m.Called(ctx, paymentRef)
	if o := args.Get(0); o != nil {
		return o.([]*models.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOrderStore) CasStatus(ctx context.Context, orderID string, from, to models.OrderStatus) (bool, error) {
	args := m.Called(ctx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderStore) CountSucceededByCoupon(ctx context.Context, eventID, code string) (int, error) {
	args := m.Called(ctx, eventID, code)
	return args.Int(0), args.Error(1)
}

type mockEventStore struct {
	mock.Mock
}

func (m *mockEventStore) FindByID(ctx context.Context, eventID string) (*models.Event, error) {
	args := m.Called(ctx, eventID)
	if e := args.Get(0); e != nil {
		return e.(*models.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCouponStore struct {
	mock.Mock
}

func (m *mockCouponStore) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	args := m.Called(ctx, code)
	if c := args.Get(0); c != nil {
		return c.(*models.Coupon), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCouponStore) FindPromoByCode(ctx context.Context, code string) (*models.Promocode, error) {
	args := m.Called(ctx, code)
	if p := args.Get(0); p != nil {
		return p.(*models.Promocode), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAccountStore struct {
	mock.Mock
}

func (m *mockAccountStore) FindOrCreateByEmail(ctx context.Context, contact models.ContactDetails) (*models.Account, error) {
	args := m.Called(ctx, contact)
	if a := args.Get(0); a != nil {
		return a.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccountStore) Link(ctx context.Context, accountID, promoterID string) (bool, error) {
	args := m.Called(ctx, accountID, promoterID)
	return args.Bool(0), args.Error(1)
}

type mockReservations struct {
	mock.Mock
}

func (m *mockReservations) Seed(ctx context.Context, eventID, typeName string, issued int) error {
	return m.Called(ctx, eventID, typeName, issued).Error(0)
}

func (m *mockReservations) Reserve(ctx context.Context, eventID, typeName string, n, capacity int) error {
	return m.Called(ctx, eventID, typeName, n, capacity).Error(0)
}

func (m *mockReservations) Release(ctx context.Context, eventID, typeName string, n int) error {
	return m.Called(ctx, eventID, typeName, n).Error(0)
}

func (m *mockReservations) SeedAccount(ctx context.Context, eventID, accountID string, purchased int) error {
	return m.Called(ctx, eventID, accountID, purchased).Error(0)
}

func (m *mockReservations) ReserveAccount(ctx context.Context, eventID, accountID string, n, cap int) error {
	return m.Called(ctx, eventID, accountID, n, cap).Error(0)
}

func (m *mockReservations) ReleaseAccount(ctx context.Context, eventID, accountID string, n int) error {
	return m.Called(ctx, eventID, accountID, n).Error(0)
}

type mockIntents struct {
	mock.Mock
}

func (m *mockIntents) CreateIntent(ctx context.Context, amountMinor int64) (*payments.Intent, error) {
	args := m.Called(ctx, amountMinor)
	if i := args.Get(0); i != nil {
		return i.(*payments.Intent), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error {
	return m.Called(ctx, to, order).Error(0)
}

// capturePublisher records feed events instead of delivering them.
type capturePublisher struct {
	events []feed.Event
}

func (c *capturePublisher) Publish(events ...feed.Event) {
	c.events = append(c.events, events...)
}
