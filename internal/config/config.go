package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Solana   SolanaConfig
	Redis    RedisConfig
	Clock    ClockConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	// Path is the SQLite file used when Driver is "sqlite".
	Path string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// AppConfig holds escrow ledger settings
type AppConfig struct {
	JWTSecret        string
	AdminWallet      string
	CustodianWallet  string
	OperatorWallet   string
	DefaultFeeRate   uint64
	BetIndexCapacity int
	// EventCloserInterval is how often expired events are closed; zero
	// disables the job.
	EventCloserInterval time.Duration
}

// SolanaConfig holds the cluster used as height source
type SolanaConfig struct {
	Network string
	RPCURL  string
}

// RedisConfig holds the shared writer lock settings. An empty Addr keeps the
// lock in-process.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	TLSEnabled bool
	LockTTL    time.Duration
}

// ClockConfig selects where ledger heights come from
type ClockConfig struct {
	Source   string
	Interval time.Duration
	Genesis  time.Time
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "event_escrow"),
			Path:     getEnv("DB_PATH", "event_escrow.db"),
		},
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			AllowedOrigins: getEnvList("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		},
		App: AppConfig{
			JWTSecret:           getEnv("JWT_SECRET", ""),
			AdminWallet:         getEnv("ADMIN_WALLET", ""),
			CustodianWallet:     getEnv("CUSTODIAN_WALLET", ""),
			OperatorWallet:      getEnv("OPERATOR_WALLET", ""),
			DefaultFeeRate:      uint64(getEnvInt("DEFAULT_FEE_RATE", 25)),
			BetIndexCapacity:    getEnvInt("BET_INDEX_CAPACITY", 100),
			EventCloserInterval: getEnvDuration("EVENT_CLOSER_INTERVAL", 30*time.Second),
		},
		Solana: SolanaConfig{
			Network: getEnv("SOLANA_NETWORK", "devnet"),
			RPCURL:  getEnv("SOLANA_RPC_URL", ""),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			TLSEnabled: getEnv("REDIS_TLS", "false") == "true",
			LockTTL:    getEnvDuration("REDIS_LOCK_TTL", 10*time.Second),
		},
		Clock: ClockConfig{
			Source:   getEnv("CLOCK_SOURCE", "solana"),
			Interval: getEnvDuration("CLOCK_INTERVAL", time.Second),
			Genesis:  getEnvTime("CLOCK_GENESIS", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.App.AdminWallet == "" {
		return nil, fmt.Errorf("ADMIN_WALLET is required")
	}

	if config.App.CustodianWallet == "" {
		config.App.CustodianWallet = config.App.AdminWallet
	}
	if config.App.OperatorWallet == "" {
		config.App.OperatorWallet = config.App.AdminWallet
	}

	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.Database.Driver)
	}

	switch config.Clock.Source {
	case "solana", "local":
	default:
		return nil, fmt.Errorf("unsupported CLOCK_SOURCE %q", config.Clock.Source)
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvTime(key string, defaultValue time.Time) time.Time {
	value, err := time.Parse(time.RFC3339, os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvList(key, defaultValue string) []string {
	var list []string
	for _, item := range strings.Split(getEnv(key, defaultValue), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
