package store

import (
	"context"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/internal/status"
	"tickethub/models"
)

type OrderStore struct {
	app core.App
}

func NewOrderStore(app core.App) *OrderStore {
	return &OrderStore{app: app}
}

func orderFromRecord(rec *core.Record) (*models.Order, error) {
	o := &models.Order{
		ID:         rec.Id,
		AccountID:  rec.GetString("account_id"),
		EventID:    rec.GetString("event_id"),
		PromoterID: rec.GetString("promoter_id"),
		CouponCode: rec.GetString("coupon_code"),
		PromoCode:  rec.GetString("promo_code"),
		Total:      rec.GetFloat("total"),
		PaymentRef: rec.GetString("payment_ref"),
		Status:     models.OrderStatus(rec.GetString("status")),
		CreatedAt:  rec.GetDateTime("created").Time(),
	}

	if err := rec.UnmarshalJSONField("line_items", &o.LineItems); err != nil {
		return nil, err
	}
	// optional fields tolerate empty json
	rec.UnmarshalJSONField("resale_items", &o.ResaleItems)
	rec.UnmarshalJSONField("contact", &o.Contact)
	rec.UnmarshalJSONField("ticket_ids", &o.TicketIDs)

	return o, nil
}

func (s *OrderStore) Create(ctx context.Context, o *models.Order) (string, error) {
	collection, err := s.app.FindCollectionByNameOrId("orders")
	if err != nil {
		return "", err
	}

	rec := core.NewRecord(collection)
	rec.Set("account_id", o.AccountID)
	rec.Set("event_id", o.EventID)
	rec.Set("promoter_id", o.PromoterID)
	rec.Set("line_items", o.LineItems)
	rec.Set("resale_items", o.ResaleItems)
	rec.Set("contact", o.Contact)
	rec.Set("coupon_code", o.CouponCode)
	rec.Set("promo_code", o.PromoCode)
	rec.Set("total", o.Total)
	rec.Set("payment_ref", o.PaymentRef)
	rec.Set("status", string(o.Status))

	if err := s.app.SaveWithContext(ctx, rec); err != nil {
		return "", err
	}
	return rec.Id, nil
}

// Delete removes a PENDING order during checkout compensation.
func (s *OrderStore) Delete(ctx context.Context, orderID string) error {
	rec, err := s.app.FindRecordById("orders", orderID)
	if err != nil {
		return nil // already gone
	}
	return s.app.DeleteWithContext(ctx, rec)
}

func (s *OrderStore) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	rec, err := s.app.FindRecordById("orders", orderID)
	if err != nil {
		return nil, status.ErrOrderNotFound
	}
	return orderFromRecord(rec)
}

// AttachTickets stores the minted stub ids on the order.
func (s *OrderStore) AttachTickets(ctx context.Context, orderID string, ticketIDs []string) error {
	rec, err := s.app.FindRecordById("orders", orderID)
	if err != nil {
		return status.ErrOrderNotFound
	}
	rec.Set("ticket_ids", ticketIDs)
	return s.app.SaveWithContext(ctx, rec)
}

// SetPaymentRef stamps the shared payment reference onto a sub-order.
func (s *OrderStore) SetPaymentRef(ctx context.Context, orderID, paymentRef string) error {
	rec, err := s.app.FindRecordById("orders", orderID)
	if err != nil {
		return status.ErrOrderNotFound
	}
	rec.Set("payment_ref", paymentRef)
	return s.app.SaveWithContext(ctx, rec)
}

func (s *OrderStore) ListByPaymentRef(ctx context.Context, paymentRef string) ([]*models.Order, error) {
	recs, err := s.app.FindRecordsByFilter(
		"orders",
		"payment_ref = {:ref}",
		"+created",
		0,
		0,
		dbx.Params{"ref": paymentRef},
	)
	if err != nil {
		return nil, err
	}

	orders := make([]*models.Order, 0, len(recs))
	for _, rec := range recs {
		o, err := orderFromRecord(rec)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// CasStatus transitions the order only from the expected status; the
// settlement idempotence guard.
func (s *OrderStore) CasStatus(ctx context.Context, orderID string, from, to models.OrderStatus) (bool, error) {
	res, err := s.app.DB().NewQuery(
		"UPDATE orders SET status = {:to} WHERE id = {:id} AND status = {:from}",
	).Bind(dbx.Params{"to": string(to), "id": orderID, "from": string(from)}).Execute()
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CountSucceededByCoupon derives a coupon's usage from settled orders.
func (s *OrderStore) CountSucceededByCoupon(ctx context.Context, eventID, code string) (int, error) {
	n, err := s.app.CountRecords(
		"orders",
		dbx.HashExp{
			"event_id":    eventID,
			"coupon_code": code,
			"status":      string(models.OrderSucceeded),
		},
	)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
