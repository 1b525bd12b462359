package database

import (
	"database/sql"
	"log"
	"os"

	"nft-vault/server/internal/models"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// MigrateDatabase handles database migrations using GORM's AutoMigrate and raw
// SQL as a fallback.
func MigrateDatabase(dsn string) {
	env := os.Getenv("APP_ENV")
	log.Printf("Running migrations for environment: %s", env)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to the database with GORM: %v", err)
	}

	log.Println("Running GORM migrations...")
	err = DB.AutoMigrate(&models.User{}, &models.Invoice{})
	if err != nil {
		log.Fatalf("Failed to perform GORM migrations: %v", err)
	}
	log.Println("GORM migrations executed successfully.")

	// Raw SQL migrations as a safety fallback
	dbSQL, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to the database with SQL: %v", err)
	}
	defer dbSQL.Close()

	executeSQLMigrations(dbSQL)
}

// executeSQLMigrations performs raw SQL migrations as a fallback
func executeSQLMigrations(db *sql.DB) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            name TEXT,
            email TEXT,
            password TEXT,
            wallet_address TEXT,
            discord_id TEXT,
            google_id TEXT,
            twitter_id TEXT,
            facebook_id TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS invoices (
            id SERIAL PRIMARY KEY,
            user_id INT NOT NULL,
            blockchain TEXT NOT NULL,
            fees TEXT,
            fees_tx_hash TEXT,
            fund TEXT,
            fund_tx_hash TEXT,
            key TEXT UNIQUE NOT NULL,
            assets JSONB,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users (email);`,
		`CREATE INDEX IF NOT EXISTS idx_users_wallet_address ON users (wallet_address);`,
	}

	for _, query := range queries {
		_, err := db.Exec(query)
		if err != nil {
			log.Fatalf("Failed to execute query: %s, error: %v", query, err)
		}
	}
	log.Println("Raw SQL migrations executed successfully.")
}
