package models

import (
	"os"

	"github.com/PedroPPVM/Intelectus-Api/config"
)

// MigrateTable runs gorm auto-migration for every table.
// Set SKIP_MIGRATIONS=1 to boot faster when the schema is known to be current.
func MigrateTable() error {
	if os.Getenv("SKIP_MIGRATIONS") == "1" {
		return nil
	}

	db := config.GetDB()
	return db.AutoMigrate(
		&User{},
		&Company{},
		&UserCompanyMembership{},
		&Process{},
		&RPIMagazine{},
		&Alert{},
		&ReconcileRun{},
	)
}
