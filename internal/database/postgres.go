package database

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/config"
	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/models"
)

// InitDB initializes the PostgreSQL connection and migrates the schema.
func InitDB(config *config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(config.GetDSN()), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// auto migrate schema
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Message{},
		&models.Attachment{},
	); err != nil {
		log.Fatal("Failed to migrate database schema:", err)
	}
	return db
}
