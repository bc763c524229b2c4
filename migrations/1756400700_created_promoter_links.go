package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("promoter_links")

		collection.Fields.Add(
			&core.TextField{Name: "account_id", Required: true},
			&core.TextField{Name: "promoter_id", Required: true},
			&core.AutodateField{Name: "created", OnCreate: true},
		)

		collection.AddIndex("idx_promoter_links_pair", true, "account_id, promoter_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("promoter_links")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
