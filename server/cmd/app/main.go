package main

import (
	"fmt"
	"log"
	"time"

	"nft-vault/server/database"
	"nft-vault/server/internal/handlers"
	"nft-vault/server/internal/services"
	"nft-vault/shared/config"
	"nft-vault/shared/env"
	"nft-vault/shared/logger"
	"nft-vault/shared/notifications"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func startHeartbeat(appLogger *logger.Logger) {
	go func() {
		ticker := time.NewTicker(8 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			appLogger.Info("Heartbeat: service running...")
		}
	}()
}

// resolveDSN prefers DATABASE_URL and falls back to assembling a DSN from the
// PG* / LOCAL_* variables.
func resolveDSN(appLogger *logger.Logger) string {
	if env.DATABASE_URL != "" {
		appLogger.Info("Using DATABASE_URL for database connection.")
		return env.DATABASE_URL
	}
	appLogger.Warn("DATABASE_URL not set. Constructing DSN from PG* or LOCAL_* variables.")

	dbHost := env.PGHOST
	dbPort := env.PGPORT
	dbUser := env.PGUSER
	dbPassword := env.PGPASSWORD
	dbName := env.PGDATABASE

	if dbHost == "" {
		dbHost = env.LOCAL_DATABASE_HOST
	}
	if dbPort == "" {
		dbPort = env.LOCAL_DATABASE_PORT
	}
	if dbUser == "" {
		dbUser = env.LOCAL_DATABASE_USER
	}
	if dbPassword == "" {
		dbPassword = env.LOCAL_DATABASE_PASSWORD
	}
	if dbName == "" {
		dbName = env.LOCAL_DATABASE_NAME
	}

	if dbHost == "" || dbPort == "" || dbUser == "" || dbName == "" {
		appLogger.Fatal("Essential database connection variables are missing (DATABASE_URL, PG*, LOCAL_*)")
	}

	appLogger.Info("Constructed database DSN from individual variables (password hidden)")
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbHost, dbUser, dbPassword, dbName, dbPort,
	)
}

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Fatalf("FATAL: Failed to load environment variables: %v", err)
	}

	enableTelegramLogging := env.TelegramBotToken != "" && env.TelegramGroupID != 0
	appLogger, err := logger.NewLogger(logger.Config{
		Level:          "info",
		Environment:    env.AppEnv,
		EnableTelegram: enableTelegramLogging,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	appLogger.Info("Application logger initialized.")

	if err := notifications.InitTelegramBot(); err != nil {
		appLogger.Warn("Telegram notifications unavailable, proceeding without them.", "error", err)
	}

	cfg, err := config.LoadConfig("server/config.yaml")
	if err != nil {
		appLogger.Fatal("Failed to load server/config.yaml", "error", err)
	}
	config.SetGlobalConfig(cfg)
	if cfg.Logging.Level != "" {
		appLogger.SetLevel(cfg.Logging.Level)
	}

	dsn := resolveDSN(appLogger)
	appLogger.Info("Connecting to database...")
	db, err := database.ConnectToDatabase(dsn)
	if err != nil {
		appLogger.Fatal("Database connection failed", "error", err)
	}
	appLogger.Info("Database connection established.")

	appLogger.Info("Running database migrations...")
	database.MigrateDatabase(dsn)
	appLogger.Info("Database migrations completed.")

	svcs, err := services.NewServices(db, appLogger)
	if err != nil {
		appLogger.Fatal("Service initialization failed", "error", err)
	}
	appLogger.Info("Services initialized.")

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	handlers.RegisterRoutes(router, appLogger)
	handlers.RegisterAPIRoutes(router, svcs, db, appLogger)
	appLogger.Info("Web server and API routes registered.")

	startHeartbeat(appLogger)

	serverAddr := ":" + env.Port
	appLogger.Info("Starting web server", "address", serverAddr)
	if err := router.Run(serverAddr); err != nil {
		appLogger.Fatal("Could not start web server.", "error", err)
	}
}
