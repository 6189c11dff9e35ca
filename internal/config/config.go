// backend-go/internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Planning PlanningConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled        bool
	RedisURL       string
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	PlanTTLSeconds int
}

// PlanningConfig carries the decision-engine parameters. The thresholds the
// source treated as magic numbers live here so operators can tune them per
// deployment.
type PlanningConfig struct {
	ServiceLevel    float64
	OrderUpFactor   float64
	OverstockDays   float64
	DonorCandidates int
	MaxPerSKU       int
	CostPerUnitKm   float64
	WindowDays      int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "restok")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_PLAN_TTL_SECONDS", 60)
		viper.SetDefault("PLAN_SERVICE_LEVEL", 0.95)
		viper.SetDefault("PLAN_ORDER_UP_FACTOR", 1.0)
		viper.SetDefault("PLAN_OVERSTOCK_DAYS", 45.0)
		viper.SetDefault("PLAN_DONOR_CANDIDATES", 5)
		viper.SetDefault("PLAN_MAX_PER_SKU", 20)
		viper.SetDefault("PLAN_COST_PER_UNIT_KM", 0.08)
		viper.SetDefault("PLAN_WINDOW_DAYS", 28)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:        viper.GetBool("CACHE_ENABLED"),
				RedisURL:       viper.GetString("REDIS_URL"),
				RedisHost:      viper.GetString("REDIS_HOST"),
				RedisPort:      viper.GetString("REDIS_PORT"),
				RedisPassword:  viper.GetString("REDIS_PASSWORD"),
				RedisDB:        viper.GetInt("REDIS_DB"),
				PlanTTLSeconds: viper.GetInt("CACHE_PLAN_TTL_SECONDS"),
			},
			Planning: PlanningConfig{
				ServiceLevel:    viper.GetFloat64("PLAN_SERVICE_LEVEL"),
				OrderUpFactor:   viper.GetFloat64("PLAN_ORDER_UP_FACTOR"),
				OverstockDays:   viper.GetFloat64("PLAN_OVERSTOCK_DAYS"),
				DonorCandidates: viper.GetInt("PLAN_DONOR_CANDIDATES"),
				MaxPerSKU:       viper.GetInt("PLAN_MAX_PER_SKU"),
				CostPerUnitKm:   viper.GetFloat64("PLAN_COST_PER_UNIT_KM"),
				WindowDays:      viper.GetInt("PLAN_WINDOW_DAYS"),
			},
		}
	})

	return instance
}
