package models

import (
	"log"

	"github.com/bombersbar/backend/config"
)

// MigrateTable runs GORM AutoMigrate for every table. Startup can skip this
// via SKIP_MIGRATIONS=true and run it as a separate job instead.
func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&User{},
		&FleetType{},
		&FleetCommander{},
		&Fleet{},
		&Doctrine{},
		&SRPRequest{},
		&SRPAuditLog{},
		&MailMessage{},
		&ProcessedMail{},
	)
	if err != nil {
		log.Printf("auto-migrate failed: %v", err)
		return
	}
	log.Println("auto-migrate complete")
}
