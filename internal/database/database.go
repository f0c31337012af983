package database

import (
	"fmt"
	"log"

	"event-escrow/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully")
	return nil
}

// ConnectSQLite opens a single-file SQLite database. SQLite allows one writer
// at a time, so the pool is pinned to a single connection.
func ConnectSQLite(path string) error {
	var err error

	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	log.Printf("SQLite database opened at %s", path)
	return nil
}

// Models lists every table owned by the escrow ledger.
func Models() []interface{} {
	return []interface{}{
		&models.Event{},
		&models.Outcome{},
		&models.Bet{},
		&models.UserBetIndexEntry{},
		&models.Counter{},
		&models.FeeConfig{},
		&models.Account{},
		&models.EscrowTransaction{},
	}
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate runs automatic migrations against the given handle.
func Migrate(db *gorm.DB) error {
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migration failed for %T: %w", model, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
