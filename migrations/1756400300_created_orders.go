package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("orders")

		collection.Fields.Add(
			&core.TextField{Name: "account_id", Required: true},
			&core.TextField{Name: "event_id", Required: true},
			&core.TextField{Name: "promoter_id", Required: true},
			&core.JSONField{Name: "line_items"},
			&core.JSONField{Name: "resale_items"},
			&core.JSONField{Name: "contact"},
			&core.TextField{Name: "coupon_code"},
			&core.TextField{Name: "promo_code"},
			&core.NumberField{Name: "total"},
			&core.TextField{Name: "payment_ref"},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"PENDING", "SUCCEEDED", "REFUNDED"},
			},
			&core.JSONField{Name: "ticket_ids"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_orders_payment_ref", false, "payment_ref", "")
		collection.AddIndex("idx_orders_coupon", false, "event_id, coupon_code", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("orders")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
