package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("ticket_history")

		// append-only: no update rule is ever granted on this collection
		collection.Fields.Add(
			&core.TextField{Name: "ticket_id", Required: true},
			&core.SelectField{
				Name:      "activity",
				Required:  true,
				MaxSelect: 1,
				Values: []string{
					"CREATED", "GRANTED", "DENIED", "ACTIVATED",
					"RESOLD", "TRANSFERED", "EXPIRED",
				},
			},
			&core.TextField{Name: "reason"},
			&core.TextField{Name: "status"},
			&core.TextField{Name: "from_account"},
			&core.TextField{Name: "to_account"},
			&core.AutodateField{Name: "created", OnCreate: true},
		)

		collection.AddIndex("idx_ticket_history_ticket", false, "ticket_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("ticket_history")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
