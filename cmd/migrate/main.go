package main

import (
	"database/sql"
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

// loadEnv loads .env files. A missing file is fine; the environment may
// already be set.
func loadEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func main() {
	if err := loadEnv(); err != nil {
		log.Fatalf("Error loading .env: %v", err)
	}

	dbPath := os.Getenv("DATABASE_PATH")
	schemaPath := os.Getenv("SCHEMA_PATH")
	if schemaPath == "" {
		schemaPath = "cmd/migrate/schema.sql"
	}
	if dbPath == "" {
		log.Fatal("DATABASE_PATH environment variable must be set")
	}

	log.Printf("Opening database: %s", dbPath)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	log.Printf("Reading schema file: %s", schemaPath)
	query, err := os.ReadFile(schemaPath)
	if err != nil {
		log.Fatalf("Error reading schema file: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("Error beginning transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err = tx.Exec(string(query)); err != nil {
		log.Fatalf("Error executing schema SQL: %v", err)
	}
	if err = tx.Commit(); err != nil {
		log.Fatalf("Error committing transaction: %v", err)
	}
	log.Printf("Migration complete.")
}
