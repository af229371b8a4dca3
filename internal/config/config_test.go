package config

import (
	"os"
	"testing"
	"time"
)

var configEnvVars = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_POOL_MIN", "DB_POOL_MAX", "DB_AUTO_MIGRATE",
	"CORS_ORIGINS",
	"EXPERT_TIMEOUT", "EXPERT_BREAKER_FAILURES", "EXPERT_BREAKER_COOLDOWN", "GOAL_WORKERS", "RULE_CACHE_TTL", "HISTORY_LIMIT",
	"GENAI_API_KEY", "GENAI_MODEL",
	"DATA_STORE", "CHECK_STORE", "SQLITE_PATH", "DYNAMODB_TABLE", "AWS_REGION", "SEED_PATH", "DYNAMODB_ENDPOINT",
}

// clearConfigEnvVars unsets every variable Load reads for the duration of the test.
func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

// validConfig returns a configuration that passes Validate.
func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Env: "development"},
		Database: DatabaseConfig{
			Host: "localhost", Port: "5432", Name: "permits",
			User: "postgres", Password: "postgres", PoolMin: 2, PoolMax: 10,
		},
		CORS: CORSConfig{Origins: []string{"http://localhost:3000"}},
		Compliance: ComplianceConfig{
			ExpertTimeout:   20 * time.Second,
			BreakerFailures: 3,
			BreakerCooldown: time.Minute,
			GoalWorkers:     4,
			RuleCacheTTL:    5 * time.Minute,
			HistoryLimit:    50,
		},
		Expert: ExpertConfig{Model: "gemini-2.5-flash"},
		Store:  StoreConfig{Data: StorePostgres, Checks: StorePostgres},
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	clearConfigEnvVars(t)
	t.Setenv("DB_PASSWORD", "testpass")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Env != "development" {
		t.Errorf("Expected env development, got %s", cfg.Server.Env)
	}
	if cfg.Database.Name != "permits" {
		t.Errorf("Expected db name permits, got %s", cfg.Database.Name)
	}
	if cfg.Database.PoolMax != 10 {
		t.Errorf("Expected pool max 10, got %d", cfg.Database.PoolMax)
	}
	if cfg.Compliance.ExpertTimeout != 20*time.Second {
		t.Errorf("Expected expert timeout 20s, got %s", cfg.Compliance.ExpertTimeout)
	}
	if cfg.Compliance.BreakerFailures != 3 {
		t.Errorf("Expected 3 breaker failures, got %d", cfg.Compliance.BreakerFailures)
	}
	if cfg.Compliance.BreakerCooldown != time.Minute {
		t.Errorf("Expected breaker cooldown 1m, got %s", cfg.Compliance.BreakerCooldown)
	}
	if cfg.Compliance.GoalWorkers != 4 {
		t.Errorf("Expected 4 goal workers, got %d", cfg.Compliance.GoalWorkers)
	}
	if cfg.Expert.APIKey != "" {
		t.Errorf("Expected expert analysis disabled by default")
	}
	if cfg.Store.Data != StorePostgres || cfg.Store.Checks != StorePostgres {
		t.Errorf("Expected postgres stores, got %s/%s", cfg.Store.Data, cfg.Store.Checks)
	}
	if len(cfg.CORS.Origins) != 2 {
		t.Errorf("Expected 2 CORS origins, got %d", len(cfg.CORS.Origins))
	}
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	clearConfigEnvVars(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("EXPERT_TIMEOUT", "5s")
	t.Setenv("GOAL_WORKERS", "8")
	t.Setenv("GENAI_API_KEY", "key")
	t.Setenv("GENAI_MODEL", "gemini-2.5-pro")
	t.Setenv("CHECK_STORE", "DynamoDB")
	t.Setenv("DYNAMODB_TABLE", "checks")
	t.Setenv("DYNAMODB_ENDPOINT", "http://localhost:4566")
	t.Setenv("CORS_ORIGINS", "http://example.com,https://app.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.LogLevel != "warn" {
		t.Errorf("Expected log level warn, got %s", cfg.Server.LogLevel)
	}
	if cfg.Compliance.ExpertTimeout != 5*time.Second {
		t.Errorf("Expected expert timeout 5s, got %s", cfg.Compliance.ExpertTimeout)
	}
	if cfg.Compliance.GoalWorkers != 8 {
		t.Errorf("Expected 8 goal workers, got %d", cfg.Compliance.GoalWorkers)
	}
	if cfg.Expert.APIKey != "key" || cfg.Expert.Model != "gemini-2.5-pro" {
		t.Errorf("Expected expert settings from env, got %+v", cfg.Expert)
	}
	if cfg.Store.Checks != StoreDynamoDB {
		t.Errorf("Expected dynamodb check store, got %s", cfg.Store.Checks)
	}
	if cfg.Store.DynamoDBTable != "checks" {
		t.Errorf("Expected table checks, got %s", cfg.Store.DynamoDBTable)
	}
	if cfg.Store.DynamoDBEndpoint != "http://localhost:4566" {
		t.Errorf("Expected LocalStack endpoint, got %s", cfg.Store.DynamoDBEndpoint)
	}
	if cfg.CORS.Origins[0] != "http://example.com" {
		t.Errorf("Expected first origin http://example.com, got %s", cfg.CORS.Origins[0])
	}
}

func TestLoad_MissingPassword(t *testing.T) {
	clearConfigEnvVars(t)

	_, err := Load()
	if err == nil {
		t.Error("Expected error when DB_PASSWORD is missing")
	}
}

func TestLoad_MemoryStoresNeedNoDatabase(t *testing.T) {
	clearConfigEnvVars(t)
	t.Setenv("DATA_STORE", "memory")
	t.Setenv("CHECK_STORE", "sqlite")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.UsesPostgres() {
		t.Error("Expected no postgres dependency for memory/sqlite stores")
	}
	if cfg.Store.SQLitePath != "permits.db" {
		t.Errorf("Expected default sqlite path, got %s", cfg.Store.SQLitePath)
	}
}

func TestValidate_InvalidPoolSizes(t *testing.T) {
	tests := []struct {
		name    string
		poolMin int
		poolMax int
		wantErr bool
	}{
		{name: "negative pool min", poolMin: -1, poolMax: 10, wantErr: true},
		{name: "zero pool max", poolMin: 0, poolMax: 0, wantErr: true},
		{name: "pool min greater than max", poolMin: 15, poolMax: 10, wantErr: true},
		{name: "valid pool sizes", poolMin: 2, poolMax: 10, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Database.PoolMin = tt.poolMin
			cfg.Database.PoolMax = tt.poolMax

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_InvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Server.Port = "" }},
		{"missing db host", func(c *Config) { c.Database.Host = "" }},
		{"missing db password", func(c *Config) { c.Database.Password = "" }},
		{"missing CORS origins", func(c *Config) { c.CORS.Origins = []string{} }},
		{"unknown data store", func(c *Config) { c.Store.Data = "mysql" }},
		{"unknown check store", func(c *Config) { c.Store.Checks = "redis" }},
		{"sqlite without path", func(c *Config) { c.Store.Checks = StoreSQLite; c.Store.SQLitePath = "" }},
		{"dynamodb without table", func(c *Config) { c.Store.Checks = StoreDynamoDB; c.Store.AWSRegion = "us-west-2" }},
		{"zero expert timeout", func(c *Config) { c.Compliance.ExpertTimeout = 0 }},
		{"zero breaker failures", func(c *Config) { c.Compliance.BreakerFailures = 0 }},
		{"zero goal workers", func(c *Config) { c.Compliance.GoalWorkers = 0 }},
		{"api key without model", func(c *Config) { c.Expert.APIKey = "key"; c.Expert.Model = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error but got none")
			}
		})
	}
}

func TestValidate_MemoryStoresSkipDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.Store = StoreConfig{Data: StoreMemory, Checks: StoreMemory}
	cfg.Database = DatabaseConfig{}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected memory stores to validate without database settings, got %v", err)
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{name: "single origin", input: "http://localhost:3000", expect: []string{"http://localhost:3000"}},
		{name: "multiple origins", input: "http://localhost:3000,http://localhost:3001", expect: []string{"http://localhost:3000", "http://localhost:3001"}},
		{name: "origins with spaces", input: " http://localhost:3000 , http://localhost:3001 ", expect: []string{"http://localhost:3000", "http://localhost:3001"}},
		{name: "empty string", input: "", expect: []string{}},
		{name: "only commas", input: ",,,", expect: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseOrigins(tt.input)
			if len(result) != len(tt.expect) {
				t.Errorf("Expected %d origins, got %d", len(tt.expect), len(result))
				return
			}
			for i, origin := range result {
				if origin != tt.expect[i] {
					t.Errorf("Expected origin %s at index %d, got %s", tt.expect[i], i, origin)
				}
			}
		})
	}
}
