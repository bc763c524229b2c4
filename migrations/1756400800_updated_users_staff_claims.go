package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

// Adds the scan-station claims to the users auth collection: a staff record
// is bound to one promoter and one event.
func init() {
	m.Register(func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection.Fields.Add(
			&core.SelectField{
				Name:      "role",
				MaxSelect: 1,
				Values:    []string{"staff", "promoter", "customer"},
			},
			&core.TextField{Name: "promoter_id"},
			&core.TextField{Name: "access_event_id"},
		)

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		for _, name := range []string{"role", "promoter_id", "access_event_id"} {
			collection.Fields.RemoveByName(name)
		}

		return app.Save(collection)
	})
}
