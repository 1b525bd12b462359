package config

import (
	"log"
	"sync"

	"github.com/spf13/viper"
)

// Config defines the global configuration structure. The yaml file carries the
// slow-moving application settings; secrets stay in shared/env.
type Config struct {
	App struct {
		Port        string `mapstructure:"port"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"app"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`

	Auth struct {
		TokenExpiry string `mapstructure:"token_expiry"`
	} `mapstructure:"auth"`

	Upstream struct {
		HTTPTimeoutSeconds  int `mapstructure:"http_timeout_seconds"`
		MetadataConcurrency int `mapstructure:"metadata_concurrency"`
	} `mapstructure:"upstream"`
}

var (
	globalConfig *Config
	configLock   sync.RWMutex
)

// LoadConfig loads configuration from the specified file path and merges it
// with environment variables.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.BindEnv("app.port", "PORT")
	viper.BindEnv("app.environment", "APP_ENV")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("auth.token_expiry", "JWT_EXPIRES_IN")

	viper.SetDefault("upstream.http_timeout_seconds", 25)
	viper.SetDefault("upstream.metadata_concurrency", 8)

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Printf("Error unmarshalling configuration: %v", err)
		return nil, err
	}
	return &cfg, nil
}

// SetGlobalConfig sets the loaded configuration globally.
func SetGlobalConfig(cfg *Config) {
	configLock.Lock()
	defer configLock.Unlock()
	globalConfig = cfg
}

// GetGlobalConfig retrieves the globally set configuration.
func GetGlobalConfig() *Config {
	configLock.RLock()
	defer configLock.RUnlock()
	return globalConfig
}
