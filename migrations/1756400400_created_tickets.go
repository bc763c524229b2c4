package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("tickets")

		collection.Fields.Add(
			&core.TextField{Name: "event_id", Required: true},
			&core.TextField{Name: "order_id"},
			&core.TextField{Name: "owner_id", Required: true},
			&core.TextField{Name: "promoter_id", Required: true},
			&core.TextField{Name: "type"},
			&core.NumberField{Name: "price"},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values: []string{
					"PENDING", "PROCESSING", "OPEN", "SALE",
					"CLOSED", "SOLD", "EXPIRED", "TRANSFERED",
				},
			},
			&core.TextField{Name: "resale_of"},
			&core.NumberField{Name: "resale_price"},
			&core.DateField{Name: "resale_listed_at"},
			&core.TextField{Name: "qr_payload"},
			&core.TextField{Name: "chain_meta"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_tickets_order", false, "order_id", "")
		collection.AddIndex("idx_tickets_owner", false, "event_id, owner_id", "")
		collection.AddIndex("idx_tickets_type", false, "event_id, type", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
