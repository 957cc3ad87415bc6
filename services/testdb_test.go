package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cleaning-service-server/config"
	"cleaning-service-server/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	config.Load()

	db, err := gorm.Open(sqlite.Open(t.TempDir()+"/test.db"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Area{},
		&models.Service{},
		&models.ServiceExtra{},
		&models.CleanerProfile{},
		&models.Booking{},
		&models.Payment{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}
