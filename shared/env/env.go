package env

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	Port   string
	AppEnv string

	JWTSecret    string
	JWTExpiresIn string

	ChallengeMessage string

	SolanaCluster    string
	SolRPCURL        string
	TensorGraphQLURL string
	HeliusAPIKey     string

	MoralisAPIKey string
	MoralisAPIURL string

	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	GoogleClientID     string
	GoogleClientSecret string

	TwitterClientID     string
	TwitterClientSecret string
	TwitterRedirectURI  string

	FacebookClientID     string
	FacebookClientSecret string
	FacebookRedirectURI  string

	TelegramBotToken string
	TelegramGroupID  int64

	DATABASE_URL string

	PGHOST     string
	PGPORT     string
	PGUSER     string
	PGPASSWORD string
	PGDATABASE string

	LOCAL_DATABASE_HOST     string
	LOCAL_DATABASE_PORT     string
	LOCAL_DATABASE_USER     string
	LOCAL_DATABASE_PASSWORD string
	LOCAL_DATABASE_NAME     string
)

func loadEnvVariable(key string, isRequired bool) string {
	value := os.Getenv(key)
	if isRequired && value == "" {
		log.Fatalf("FATAL: Environment variable %s is required but not set.", key)
	}
	isHidden := key == "JWT_SECRET" || key == "HELIUS_API_KEY" || key == "MORALIS_API_KEY" ||
		key == "DATABASE_URL" || key == "PGPASSWORD" || key == "LOCAL_DATABASE_PASSWORD" ||
		key == "TELEGRAM_BOT_TOKEN" || key == "DISCORD_CLIENT_SECRET" || key == "GOOGLE_CLIENT_SECRET" ||
		key == "TWITTER_CLIENT_SECRET" || key == "FACEBOOK_CLIENT_SECRET"
	if value == "" {
		if !isRequired {
			log.Printf("INFO: Environment variable %s is not set.", key)
		}
	} else if isHidden {
		log.Printf("INFO: Loaded %s (value hidden)", key)
	} else {
		log.Printf("INFO: Loaded %s = %s", key, value)
	}
	return value
}

func loadInt64Env(key string, required bool) int64 {
	strValue := loadEnvVariable(key, required)
	if strValue == "" {
		if !required {
			return 0
		}
		log.Fatalf("FATAL: Required int64 environment variable %s is missing after load.", key)
		return 0
	}
	id, err := strconv.ParseInt(strValue, 10, 64)
	if err != nil {
		log.Fatalf("FATAL: Failed to parse int64 environment variable %s='%s': %v", key, strValue, err)
	}
	return id
}

func LoadEnv() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("INFO: .env file not found or error loading, relying on system environment variables.")
	} else {
		log.Println("INFO: .env file loaded successfully.")
	}

	Port = loadEnvVariable("PORT", false)
	if Port == "" {
		Port = "8080"
		log.Printf("INFO: PORT not set, defaulting to %s", Port)
	}
	AppEnv = loadEnvVariable("APP_ENV", false)
	if AppEnv == "" {
		AppEnv = "development"
	}

	JWTSecret = loadEnvVariable("JWT_SECRET", true)
	JWTExpiresIn = loadEnvVariable("JWT_EXPIRES_IN", false)
	if JWTExpiresIn == "" {
		JWTExpiresIn = "168h"
		log.Printf("INFO: JWT_EXPIRES_IN not set, defaulting to %s", JWTExpiresIn)
	}

	ChallengeMessage = loadEnvVariable("CHALLENGE_MESSAGE", true)

	SolanaCluster = loadEnvVariable("SOLANA_CLUSTER", false)
	if SolanaCluster == "" {
		SolanaCluster = "devnet"
		log.Printf("INFO: SOLANA_CLUSTER not set, defaulting to %s", SolanaCluster)
	}
	SolRPCURL = loadEnvVariable("SOL_RPC_URL", SolanaCluster == "mainnet")
	TensorGraphQLURL = loadEnvVariable("TENSOR_GRAPHQL_URL", false)
	if TensorGraphQLURL == "" {
		TensorGraphQLURL = "https://graphql.tensor.trade/graphql"
	}
	HeliusAPIKey = loadEnvVariable("HELIUS_API_KEY", false)

	MoralisAPIKey = loadEnvVariable("MORALIS_API_KEY", true)
	MoralisAPIURL = loadEnvVariable("MORALIS_API_URL", false)
	if MoralisAPIURL == "" {
		MoralisAPIURL = "https://deep-index.moralis.io/api/v2.2"
	}

	DiscordClientID = loadEnvVariable("DISCORD_CLIENT_ID", false)
	DiscordClientSecret = loadEnvVariable("DISCORD_CLIENT_SECRET", false)
	DiscordRedirectURI = loadEnvVariable("DISCORD_REDIRECT_URI", false)

	GoogleClientID = loadEnvVariable("GOOGLE_CLIENT_ID", false)
	GoogleClientSecret = loadEnvVariable("GOOGLE_CLIENT_SECRET", false)

	TwitterClientID = loadEnvVariable("TWITTER_CLIENT_ID", false)
	TwitterClientSecret = loadEnvVariable("TWITTER_CLIENT_SECRET", false)
	TwitterRedirectURI = loadEnvVariable("TWITTER_REDIRECT_URI", false)

	FacebookClientID = loadEnvVariable("FACEBOOK_CLIENT_ID", false)
	FacebookClientSecret = loadEnvVariable("FACEBOOK_CLIENT_SECRET", false)
	FacebookRedirectURI = loadEnvVariable("FACEBOOK_REDIRECT_URI", false)

	TelegramBotToken = loadEnvVariable("TELEGRAM_BOT_TOKEN", false)
	TelegramGroupID = loadInt64Env("TELEGRAM_GROUP_ID", false)
	if TelegramBotToken != "" && TelegramGroupID == 0 {
		log.Println("WARN: TELEGRAM_BOT_TOKEN is set, but TELEGRAM_GROUP_ID is missing, invalid, or zero.")
	}

	DATABASE_URL = loadEnvVariable("DATABASE_URL", false)

	PGHOST = loadEnvVariable("PGHOST", false)
	PGPORT = loadEnvVariable("PGPORT", false)
	PGUSER = loadEnvVariable("PGUSER", false)
	PGPASSWORD = loadEnvVariable("PGPASSWORD", false)
	PGDATABASE = loadEnvVariable("PGDATABASE", false)

	LOCAL_DATABASE_HOST = loadEnvVariable("LOCAL_DATABASE_HOST", false)
	LOCAL_DATABASE_PORT = loadEnvVariable("LOCAL_DATABASE_PORT", false)
	LOCAL_DATABASE_USER = loadEnvVariable("LOCAL_DATABASE_USER", false)
	LOCAL_DATABASE_PASSWORD = loadEnvVariable("LOCAL_DATABASE_PASSWORD", false)
	LOCAL_DATABASE_NAME = loadEnvVariable("LOCAL_DATABASE_NAME", false)

	if DATABASE_URL == "" {
		log.Println("WARN: DATABASE_URL is not set. Connection logic will rely on PG* or LOCAL_* variables.")
	}
	if DiscordClientID == "" && GoogleClientID == "" && TwitterClientID == "" && FacebookClientID == "" {
		log.Println("WARN: No OAuth provider credentials configured. Social logins will be rejected.")
	}

	log.Println("INFO: Environment variables loading process complete.")
	return nil
}
