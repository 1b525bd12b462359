package database

import (
	"fmt"

	"nft-vault/shared/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnectToDatabase opens the shared GORM handle for the configured Postgres
// instance. Migrations run separately, see MigrateDatabase.
func ConnectToDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}
	logger.GetLogger().Info("Database connection established")
	return db, nil
}
