package database

import (
	"log"

	"permini-backend/internal/config"
	"permini-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	err = DB.AutoMigrate(
		&models.DrivingSchool{},
		&models.User{},
		&models.LedgerEntry{},
		&models.Coupon{},
		&models.PaymentRequest{},
		&models.AdminActionLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("Database connected, migration complete.")
}
