package dbhelper

import (
	"archifigureapi/models"
	"fmt"
	"log"

	"gorm.io/gorm"
)

func SetupCleaner(db *gorm.DB) func() {

	return func() {
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ProjectModel{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Project{})
	}
}

func Migrate(db *gorm.DB, model interface{}) error {
	err := db.AutoMigrate(model)
	if err != nil {
		log.Printf("Error while migrating %T: %v", model, err)
		return fmt.Errorf("migrate %T: %w", model, err)
	}
	return nil
}
