package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/internal/status"
	"tickethub/models"
)

// TicketStore persists tickets and their append-only history. Status changes
// go through conditional UPDATEs so two concurrent writers can never both win
// the same transition.
type TicketStore struct {
	app core.App
}

func NewTicketStore(app core.App) *TicketStore {
	return &TicketStore{app: app}
}

func ticketFromRecord(rec *core.Record) *models.Ticket {
	t := &models.Ticket{
		ID:         rec.Id,
		EventID:    rec.GetString("event_id"),
		OrderID:    rec.GetString("order_id"),
		OwnerID:    rec.GetString("owner_id"),
		PromoterID: rec.GetString("promoter_id"),
		Type:       rec.GetString("type"),
		Price:      rec.GetFloat("price"),
		Status:     models.TicketStatus(rec.GetString("status")),
		ResaleOf:   rec.GetString("resale_of"),
		QRPayload:  rec.GetString("qr_payload"),
		ChainMeta:  rec.GetString("chain_meta"),
		CreatedAt:  rec.GetDateTime("created").Time(),
	}

	if price := rec.GetFloat("resale_price"); price > 0 {
		t.Resale = &models.Resale{
			Price:    price,
			ListedAt: rec.GetDateTime("resale_listed_at").Time(),
		}
	}

	return t
}

// FindForPromoter looks a ticket up within a tenant scope. A ticket belonging
// to another promoter resolves to not-found; ownership never leaks. Storage
// failures stay distinguishable from a genuine miss so the scan layer can
// fail closed instead of reporting the ticket as missing.
func (s *TicketStore) FindForPromoter(ctx context.Context, ticketID, promoterID string) (*models.Ticket, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"tickets",
		"id = {:id} && promoter_id = {:promoter}",
		dbx.Params{"id": ticketID, "promoter": promoterID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrTicketNotFound
		}
		return nil, fmt.Errorf("find ticket %s: %w", ticketID, err)
	}
	return ticketFromRecord(rec), nil
}

func (s *TicketStore) FindByID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	rec, err := s.app.FindRecordById("tickets", ticketID)
	if err != nil {
		return nil, status.ErrTicketNotFound
	}
	return ticketFromRecord(rec), nil
}

// CasStatus sets the ticket status to `to` only if it currently is `from`.
// Returns false when a concurrent writer got there first.
func (s *TicketStore) CasStatus(ctx context.Context, ticketID string, from, to models.TicketStatus) (bool, error) {
	if _, err := models.NextStatus(from, actionFor(from, to)); err != nil {
		return false, fmt.Errorf("%w: %s -> %s", status.ErrInvalidState, from, to)
	}

	res, err := s.app.DB().NewQuery(
		"UPDATE tickets SET status = {:to} WHERE id = {:id} AND status = {:from}",
	).Bind(dbx.Params{"to": string(to), "id": ticketID, "from": string(from)}).Execute()
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// actionFor maps a concrete from/to pair back onto the transition table, so
// the conditional UPDATE can never apply an edge the model does not define.
func actionFor(from, to models.TicketStatus) models.TicketAction {
	for _, action := range []models.TicketAction{
		models.ActionActivate, models.ActionGrant, models.ActionListResale,
		models.ActionCancelResale, models.ActionResell, models.ActionTransfer,
		models.ActionExpire,
	} {
		if next, err := models.NextStatus(from, action); err == nil && next == to {
			return action
		}
	}
	return ""
}

// ActivateStub flips a paid stub to OPEN and attaches its QR payload in the
// same statement. The payload must not exist before payment, so it is written
// here and nowhere else.
func (s *TicketStore) ActivateStub(ctx context.Context, ticketID, qrPayload string) (bool, error) {
	res, err := s.app.DB().NewQuery(
		"UPDATE tickets SET status = {:to}, qr_payload = {:qr} WHERE id = {:id} AND status IN ({:pending}, {:processing})",
	).Bind(dbx.Params{
		"to":         string(models.TicketOpen),
		"qr":         qrPayload,
		"id":         ticketID,
		"pending":    string(models.TicketPending),
		"processing": string(models.TicketProcessing),
	}).Execute()
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CreateStub persists a PENDING ticket and returns its id.
func (s *TicketStore) CreateStub(ctx context.Context, t *models.Ticket) (string, error) {
	collection, err := s.app.FindCollectionByNameOrId("tickets")
	if err != nil {
		return "", err
	}

	rec := core.NewRecord(collection)
	rec.Set("event_id", t.EventID)
	rec.Set("order_id", t.OrderID)
	rec.Set("owner_id", t.OwnerID)
	rec.Set("promoter_id", t.PromoterID)
	rec.Set("type", t.Type)
	rec.Set("price", t.Price)
	rec.Set("status", string(t.Status))
	rec.Set("resale_of", t.ResaleOf)
	rec.Set("chain_meta", t.ChainMeta)

	if err := s.app.SaveWithContext(ctx, rec); err != nil {
		return "", err
	}
	return rec.Id, nil
}

func (s *TicketStore) Delete(ctx context.Context, ticketID string) error {
	rec, err := s.app.FindRecordById("tickets", ticketID)
	if err != nil {
		return nil // already gone
	}
	return s.app.DeleteWithContext(ctx, rec)
}

func (s *TicketStore) ListByOrder(ctx context.Context, orderID string) ([]*models.Ticket, error) {
	recs, err := s.app.FindRecordsByFilter(
		"tickets",
		"order_id = {:order}",
		"+created",
		0,
		0,
		dbx.Params{"order": orderID},
	)
	if err != nil {
		return nil, err
	}

	tickets := make([]*models.Ticket, len(recs))
	for i, rec := range recs {
		tickets[i] = ticketFromRecord(rec)
	}
	return tickets, nil
}

// CountIssued counts tickets of a type that still consume capacity. EXPIRED
// tickets freed their unit; everything else counts.
func (s *TicketStore) CountIssued(ctx context.Context, eventID, typeName string) (int, error) {
	n, err := s.app.CountRecords(
		"tickets",
		dbx.HashExp{"event_id": eventID, "type": typeName},
		dbx.NewExp("status != {:expired}", dbx.Params{"expired": string(models.TicketExpired)}),
	)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// CountByAccount counts units an account already holds for an event.
func (s *TicketStore) CountByAccount(ctx context.Context, eventID, accountID string) (int, error) {
	n, err := s.app.CountRecords(
		"tickets",
		dbx.HashExp{"event_id": eventID, "owner_id": accountID},
		dbx.NewExp("status != {:expired}", dbx.Params{"expired": string(models.TicketExpired)}),
	)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// AppendHistory adds one audit entry. The history collection has no update
// path; entries are immutable once written.
func (s *TicketStore) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	collection, err := s.app.FindCollectionByNameOrId("ticket_history")
	if err != nil {
		return err
	}

	rec := core.NewRecord(collection)
	rec.Set("ticket_id", entry.TicketID)
	rec.Set("activity", string(entry.Activity))
	rec.Set("reason", entry.Reason)
	rec.Set("status", string(entry.Status))
	rec.Set("from_account", entry.FromAccount)
	rec.Set("to_account", entry.ToAccount)

	return s.app.SaveWithContext(ctx, rec)
}

func (s *TicketStore) ListHistory(ctx context.Context, ticketID string) ([]models.HistoryEntry, error) {
	recs, err := s.app.FindRecordsByFilter(
		"ticket_history",
		"ticket_id = {:ticket}",
		"+created",
		0,
		0,
		dbx.Params{"ticket": ticketID},
	)
	if err != nil {
		return nil, err
	}

	entries := make([]models.HistoryEntry, len(recs))
	for i, rec := range recs {
		entries[i] = models.HistoryEntry{
			ID:          rec.Id,
			TicketID:    rec.GetString("ticket_id"),
			Activity:    models.Activity(rec.GetString("activity")),
			Reason:      rec.GetString("reason"),
			Status:      models.TicketStatus(rec.GetString("status")),
			FromAccount: rec.GetString("from_account"),
			ToAccount:   rec.GetString("to_account"),
			CreatedAt:   rec.GetDateTime("created").Time(),
		}
	}
	return entries, nil
}
