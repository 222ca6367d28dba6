package main

import (
	"os"
	"strings"

	"cortex/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal().Msg("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect postgres database")
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Warn().Err(err).Msg("migration warning (users)")
		}
		if err := db.AutoMigrate(&models.Review{}); err != nil {
			log.Warn().Err(err).Msg("migration warning (reviews)")
		}
	}
	seedDB()
}

// seedDB provisions a demo account for local development when SEED_DEMO_USER
// is set. Production deployments leave it unset.
func seedDB() {
	if os.Getenv("SEED_DEMO_USER") == "" {
		return
	}
	var count int64
	db.Model(&models.User{}).Where("email = ?", "demo@example.com").Count(&count)
	if count > 0 {
		return
	}
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("demo123"), bcrypt.DefaultCost)
	demo := models.User{Username: "demo", Email: "demo@example.com", HashedPassword: hashedPassword}
	if err := db.Create(&demo).Error; err != nil {
		log.Warn().Err(err).Msg("failed to seed demo user")
		return
	}
	log.Info().Msg("seeded demo user: email=demo@example.com, password=demo123")
}
