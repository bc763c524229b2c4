package auth

import (
	"errors"

	"github.com/pocketbase/pocketbase/core"
)

const (
	RoleStaff    = "staff"
	RolePromoter = "promoter"
	RoleCustomer = "customer"
)

// Claims is the decoded identity the auth collaborator attaches to a request.
// The engine trusts it as-is; token verification happened upstream.
type Claims struct {
	AccountID     string
	Role          string
	PromoterID    string
	AccessEventID string
}

var ErrNotStaff = errors.New("auth: caller is not scoped access staff")

// FromRecord extracts claims from the authenticated record.
func FromRecord(rec *core.Record) *Claims {
	if rec == nil {
		return nil
	}
	return &Claims{
		AccountID:     rec.Id,
		Role:          rec.GetString("role"),
		PromoterID:    rec.GetString("promoter_id"),
		AccessEventID: rec.GetString("access_event_id"),
	}
}

// RequireScanScope checks the claims allow running an access station: staff
// role bound to exactly one promoter and one event.
func (c *Claims) RequireScanScope() error {
	if c == nil || c.Role != RoleStaff || c.PromoterID == "" || c.AccessEventID == "" {
		return ErrNotStaff
	}
	return nil
}
