package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		coupons := core.NewBaseCollection("coupons")
		coupons.Fields.Add(
			&core.TextField{Name: "code", Required: true},
			&core.TextField{Name: "event_id", Required: true},
			&core.NumberField{Name: "discount_pct"},
			&core.DateField{Name: "expires_at"},
			&core.NumberField{Name: "max_uses"},
			&core.AutodateField{Name: "created", OnCreate: true},
		)
		coupons.AddIndex("idx_coupons_code", true, "code", "")

		if err := app.Save(coupons); err != nil {
			return err
		}

		promocodes := core.NewBaseCollection("promocodes")
		promocodes.Fields.Add(
			&core.TextField{Name: "code", Required: true},
			&core.TextField{Name: "event_id", Required: true},
			&core.TextField{Name: "registrant_id"},
			&core.AutodateField{Name: "created", OnCreate: true},
		)
		promocodes.AddIndex("idx_promocodes_code", true, "code", "")

		return app.Save(promocodes)
	}, func(app core.App) error {
		for _, name := range []string{"promocodes", "coupons"} {
			collection, err := app.FindCollectionByNameOrId(name)
			if err != nil {
				return err
			}
			if err := app.Delete(collection); err != nil {
				return err
			}
		}
		return nil
	})
}
