package store

import (
	"context"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/internal/status"
	"tickethub/models"
)

type EventStore struct {
	app core.App
}

func NewEventStore(app core.App) *EventStore {
	return &EventStore{app: app}
}

func eventFromRecord(rec *core.Record) (*models.Event, error) {
	e := &models.Event{
		ID:               rec.Id,
		PromoterID:       rec.GetString("promoter_id"),
		Name:             rec.GetString("name"),
		Capacity:         rec.GetInt("capacity"),
		CommissionPct:    rec.GetFloat("commission_pct"),
		AvailableTickets: rec.GetInt("available_tickets"),
		Status:           models.EventStatus(rec.GetString("status")),
		StartsAt:         rec.GetDateTime("starts_at").Time(),
		EndsAt:           rec.GetDateTime("ends_at").Time(),
		ResalePolicy: models.ResalePolicy{
			Enabled:    rec.GetBool("resale_enabled"),
			MaxPrice:   rec.GetFloat("resale_max_price"),
			RoyaltyPct: rec.GetFloat("resale_royalty_pct"),
		},
	}

	if err := rec.UnmarshalJSONField("ticket_types", &e.TicketTypes); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *EventStore) FindByID(ctx context.Context, eventID string) (*models.Event, error) {
	rec, err := s.app.FindRecordById("events", eventID)
	if err != nil {
		return nil, status.ErrEventNotFound
	}
	return eventFromRecord(rec)
}

type CouponStore struct {
	app core.App
}

func NewCouponStore(app core.App) *CouponStore {
	return &CouponStore{app: app}
}

func (s *CouponStore) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"coupons",
		"code = {:code}",
		dbx.Params{"code": code},
	)
	if err != nil {
		return nil, status.ErrCouponNotFound
	}

	return &models.Coupon{
		Code:        rec.GetString("code"),
		EventID:     rec.GetString("event_id"),
		DiscountPct: rec.GetFloat("discount_pct"),
		ExpiresAt:   rec.GetDateTime("expires_at").Time(),
		MaxUses:     rec.GetInt("max_uses"),
	}, nil
}

func (s *CouponStore) FindPromoByCode(ctx context.Context, code string) (*models.Promocode, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"promocodes",
		"code = {:code}",
		dbx.Params{"code": code},
	)
	if err != nil {
		return nil, status.ErrCouponNotFound
	}

	return &models.Promocode{
		Code:         rec.GetString("code"),
		EventID:      rec.GetString("event_id"),
		RegistrantID: rec.GetString("registrant_id"),
	}, nil
}
