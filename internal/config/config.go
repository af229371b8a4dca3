package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	CORS       CORSConfig
	Compliance ComplianceConfig
	Expert     ExpertConfig
	Store      StoreConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	PoolMin     int
	PoolMax     int
	AutoMigrate bool
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// ComplianceConfig tunes the compliance engine.
type ComplianceConfig struct {
	ExpertTimeout   time.Duration
	BreakerCooldown time.Duration
	RuleCacheTTL    time.Duration
	BreakerFailures uint32
	GoalWorkers     int
	HistoryLimit    int
}

// ExpertConfig configures the Gemini expert analyzer. An empty APIKey
// disables expert analysis.
type ExpertConfig struct {
	APIKey string
	Model  string
}

// StoreConfig selects where reference data and compliance history live.
type StoreConfig struct {
	// Data is the reference data store: postgres or memory.
	Data string
	// Checks is the compliance history store: postgres, sqlite, dynamodb or memory.
	Checks        string
	SQLitePath    string
	DynamoDBTable string
	AWSRegion     string
	// DynamoDBEndpoint overrides the AWS endpoint, e.g. for LocalStack.
	DynamoDBEndpoint string
	// SeedPath overrides the embedded seed for the memory store.
	SeedPath string
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("DB_HOST", "host.docker.internal")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "permits")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("EXPERT_TIMEOUT", "20s")
	v.SetDefault("EXPERT_BREAKER_FAILURES", 3)
	v.SetDefault("EXPERT_BREAKER_COOLDOWN", "60s")
	v.SetDefault("GOAL_WORKERS", 4)
	v.SetDefault("RULE_CACHE_TTL", "5m")
	v.SetDefault("HISTORY_LIMIT", 50)
	v.SetDefault("GENAI_MODEL", "gemini-2.5-flash")
	v.SetDefault("DATA_STORE", StorePostgres)
	v.SetDefault("CHECK_STORE", StorePostgres)
	v.SetDefault("SQLITE_PATH", "permits.db")
	v.SetDefault("DYNAMODB_TABLE", "compliance-checks")
	v.SetDefault("AWS_REGION", "us-west-2")

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("PORT"),
			Env:      v.GetString("ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			PoolMin:     v.GetInt("DB_POOL_MIN"),
			PoolMax:     v.GetInt("DB_POOL_MAX"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Compliance: ComplianceConfig{
			ExpertTimeout:   v.GetDuration("EXPERT_TIMEOUT"),
			BreakerFailures: v.GetUint32("EXPERT_BREAKER_FAILURES"),
			BreakerCooldown: v.GetDuration("EXPERT_BREAKER_COOLDOWN"),
			GoalWorkers:     v.GetInt("GOAL_WORKERS"),
			RuleCacheTTL:    v.GetDuration("RULE_CACHE_TTL"),
			HistoryLimit:    v.GetInt("HISTORY_LIMIT"),
		},
		Expert: ExpertConfig{
			APIKey: v.GetString("GENAI_API_KEY"),
			Model:  v.GetString("GENAI_MODEL"),
		},
		Store: StoreConfig{
			Data:          strings.ToLower(v.GetString("DATA_STORE")),
			Checks:        strings.ToLower(v.GetString("CHECK_STORE")),
			SQLitePath:    v.GetString("SQLITE_PATH"),
			DynamoDBTable: v.GetString("DYNAMODB_TABLE"),
			AWSRegion:     v.GetString("AWS_REGION"),
			SeedPath:      v.GetString("SEED_PATH"),

			DynamoDBEndpoint: v.GetString("DYNAMODB_ENDPOINT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// UsesPostgres reports whether any configured store needs a database pool.
func (c *Config) UsesPostgres() bool {
	return c.Store.Data == StorePostgres || c.Store.Checks == StorePostgres
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Store.Data {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("DATA_STORE must be one of postgres, memory; got %q", c.Store.Data)
	}
	switch c.Store.Checks {
	case StorePostgres, StoreMemory:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when CHECK_STORE is sqlite")
		}
	case StoreDynamoDB:
		if c.Store.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required when CHECK_STORE is dynamodb")
		}
		if c.Store.AWSRegion == "" {
			return fmt.Errorf("AWS_REGION is required when CHECK_STORE is dynamodb")
		}
	default:
		return fmt.Errorf("CHECK_STORE must be one of postgres, sqlite, dynamodb, memory; got %q", c.Store.Checks)
	}

	if c.UsesPostgres() {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}

	if c.Compliance.ExpertTimeout <= 0 {
		return fmt.Errorf("EXPERT_TIMEOUT must be positive")
	}
	if c.Compliance.BreakerFailures < 1 {
		return fmt.Errorf("EXPERT_BREAKER_FAILURES must be at least 1")
	}
	if c.Compliance.BreakerCooldown <= 0 {
		return fmt.Errorf("EXPERT_BREAKER_COOLDOWN must be positive")
	}
	if c.Compliance.GoalWorkers < 1 {
		return fmt.Errorf("GOAL_WORKERS must be at least 1")
	}
	if c.Compliance.RuleCacheTTL < 0 {
		return fmt.Errorf("RULE_CACHE_TTL must be non-negative")
	}
	if c.Compliance.HistoryLimit < 1 {
		return fmt.Errorf("HISTORY_LIMIT must be at least 1")
	}
	if c.Expert.APIKey != "" && c.Expert.Model == "" {
		return fmt.Errorf("GENAI_MODEL is required when GENAI_API_KEY is set")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	return nil
}

// Validate checks the PostgreSQL settings.
func (d DatabaseConfig) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
