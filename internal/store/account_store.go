package store

import (
	"context"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/models"
)

type AccountStore struct {
	app core.App
}

func NewAccountStore(app core.App) *AccountStore {
	return &AccountStore{app: app}
}

func accountFromRecord(rec *core.Record) *models.Account {
	return &models.Account{
		ID:        rec.Id,
		Name:      rec.GetString("name"),
		LastName:  rec.GetString("last_name"),
		Email:     rec.GetString("email"),
		Phone:     rec.GetString("phone"),
		CreatedAt: rec.GetDateTime("created").Time(),
	}
}

// FindOrCreateByEmail resolves the buyer account for a checkout. Repeat
// checkouts with the same email reuse the account, so account creation is
// idempotent per buyer.
func (s *AccountStore) FindOrCreateByEmail(ctx context.Context, contact models.ContactDetails) (*models.Account, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"customers",
		"email = {:email}",
		dbx.Params{"email": contact.Email},
	)
	if err == nil {
		return accountFromRecord(rec), nil
	}

	collection, err := s.app.FindCollectionByNameOrId("customers")
	if err != nil {
		return nil, err
	}

	rec = core.NewRecord(collection)
	rec.Set("name", contact.Name)
	rec.Set("last_name", contact.LastName)
	rec.Set("email", contact.Email)
	rec.Set("phone", contact.Phone)

	if err := s.app.SaveWithContext(ctx, rec); err != nil {
		return nil, err
	}
	return accountFromRecord(rec), nil
}

// Link registers the account/promoter relationship. Returns true when the
// link is new, meaning this is the buyer's first order with the tenant.
func (s *AccountStore) Link(ctx context.Context, accountID, promoterID string) (bool, error) {
	_, err := s.app.FindFirstRecordByFilter(
		"promoter_links",
		"account_id = {:account} && promoter_id = {:promoter}",
		dbx.Params{"account": accountID, "promoter": promoterID},
	)
	if err == nil {
		return false, nil
	}

	collection, err := s.app.FindCollectionByNameOrId("promoter_links")
	if err != nil {
		return false, err
	}

	rec := core.NewRecord(collection)
	rec.Set("account_id", accountID)
	rec.Set("promoter_id", promoterID)

	if err := s.app.SaveWithContext(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}
