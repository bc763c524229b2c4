package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("events")

		collection.Fields.Add(
			&core.TextField{Name: "promoter_id", Required: true},
			&core.TextField{Name: "name", Required: true},
			&core.NumberField{Name: "capacity"},
			&core.NumberField{Name: "commission_pct"},
			&core.NumberField{Name: "available_tickets"},
			&core.JSONField{Name: "ticket_types"},
			&core.SelectField{
				Name:      "status",
				MaxSelect: 1,
				Values:    []string{"HOLD", "CREATED", "LAUNCHED", "LIVE", "CLOSED"},
			},
			&core.BoolField{Name: "resale_enabled"},
			&core.NumberField{Name: "resale_max_price"},
			&core.NumberField{Name: "resale_royalty_pct"},
			&core.DateField{Name: "starts_at"},
			&core.DateField{Name: "ends_at"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_events_promoter", false, "promoter_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
