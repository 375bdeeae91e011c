package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"laundry-bot/config"
	"laundry-bot/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.Config) (*gorm.DB, error) {
	dsn, err := cfg.Database.DSN(cfg.Secrets)
	if err != nil {
		return nil, err
	}

	logMode := logger.Warn
	if cfg.Bot.Debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("[DB] Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	log.Println("[DB] Database initialization complete.")
	return db, nil
}

// Migrate runs the schema migrations. Split out so tests can run them
// against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.LaundryStatus{},
		&model.LaundryStatusHistory{},
		&model.HelpRequest{},
		&model.Notification{},
		&model.PushSubscription{},
	)
}
