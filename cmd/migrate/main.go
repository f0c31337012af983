package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"event-escrow/internal/config"

	_ "github.com/lib/pq"
)

const schemaTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    VARCHAR(255) PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func main() {
	dir := flag.String("dir", "migrations", "directory holding .sql migrations")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Println("Connected to database successfully")

	if _, err := db.Exec(schemaTable); err != nil {
		log.Fatalf("Failed to create schema_migrations: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil {
		log.Fatalf("Failed to list migrations: %v", err)
	}
	sort.Strings(files)

	applied := 0
	for _, file := range files {
		version := filepath.Base(file)
		ok, err := apply(db, version, file)
		if err != nil {
			log.Fatalf("Failed to apply migration %s: %v", version, err)
		}
		if ok {
			log.Printf("Applied migration: %s", version)
			applied++
		}
	}

	log.Printf("Migrations complete (%d applied, %d total)", applied, len(files))
}

// apply runs one migration file in a transaction unless it was applied before
func apply(db *sql.DB, version, file string) (bool, error) {
	var exists bool
	err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)", version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check version: %w", err)
	}
	if exists {
		return false, nil
	}

	sqlBytes, err := os.ReadFile(file)
	if err != nil {
		return false, fmt.Errorf("failed to read migration file: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(sqlBytes)); err != nil {
		return false, err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
		return false, fmt.Errorf("failed to record version: %w", err)
	}
	return true, tx.Commit()
}
