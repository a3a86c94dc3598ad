// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"dashboard-assistant/internal/common/monthkey"
)

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

// Default returns a configuration with every default applied and nothing read
// from files or the environment. It is not validated.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found from the working directory upwards.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // tests in test/e2e/
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if secrets are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Retrieval.HTTP.APIKey, "RETRIEVAL_API_KEY")
	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
	setIfEmpty(&cfg.Database.Elasticsearch.Password, "ELASTICSEARCH_PASSWORD")
}

func setIfEmpty(target *string, envKey string) {
	if *target != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*target = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "dashboard-assistant"
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	// Database defaults
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	// Retrieval defaults
	r := &cfg.Retrieval
	if r.Backend == "" {
		r.Backend = BackendHTTP
	}
	if r.HTTP.PathTemplate == "" {
		r.HTTP.PathTemplate = "/api/data/files/{source}"
	}
	if r.HTTP.Timeout == 0 {
		r.HTTP.Timeout = 10000
	}
	if r.HTTP.RateLimit == 0 {
		r.HTTP.RateLimit = 50
	}
	if r.HTTP.Burst == 0 {
		r.HTTP.Burst = 20
	}
	if r.HTTP.MaxBodyBytes == 0 {
		r.HTTP.MaxBodyBytes = 8 << 20
	}
	if r.Postgres.Table == "" {
		r.Postgres.Table = "source_payloads"
	}
	if r.Elasticsearch.Index == "" {
		r.Elasticsearch.Index = "source-payloads"
	}
	if r.Redis.KeyPrefix == "" {
		r.Redis.KeyPrefix = "payload"
	}

	// Assistant defaults
	a := &cfg.Assistant
	if a.Brand.Name == "" {
		a.Brand.Name = "Asterasys"
	}
	if len(a.Brand.Products) == 0 {
		a.Brand.Products = []string{"쿨페이즈", "리프테라", "쿨소닉"}
	}
	if len(a.Brand.MatchFields) == 0 {
		a.Brand.MatchFields = []string{"키워드", "기기구분"}
	}
	if a.DefaultMonth == "" {
		a.DefaultMonth = "2025-09"
	}
	if a.Language == "" {
		a.Language = "ko"
	}
	if a.MaxRows == 0 {
		a.MaxRows = 15
	}
	if a.MaxCellRunes == 0 {
		a.MaxCellRunes = 50
	}
	if a.InsightExcerpt == 0 {
		a.InsightExcerpt = 500
	}
	if a.RequestTimeout == 0 {
		a.RequestTimeout = 30000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
	if cfg.Observability.SampleRatio == 0 {
		cfg.Observability.SampleRatio = 1
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		cfg.Workers[key] = worker
	}
}

var knownBackends = map[string]bool{
	BackendHTTP:          true,
	BackendPostgres:      true,
	BackendElasticsearch: true,
	BackendRedis:         true,
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	used := cfg.Retrieval.BackendsInUse()
	for backend := range used {
		if !knownBackends[backend] {
			return fmt.Errorf("retrieval: unknown backend %q", backend)
		}
	}

	if used[BackendHTTP] && cfg.Retrieval.HTTP.BaseURL == "" {
		return fmt.Errorf("retrieval.http.base_url is required")
	}
	if used[BackendPostgres] {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	}
	if used[BackendElasticsearch] && len(cfg.Database.Elasticsearch.GetAddresses()) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses or url is required")
	}
	if used[BackendRedis] && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if !monthkey.Valid(cfg.Assistant.DefaultMonth) {
		return fmt.Errorf("assistant.default_month %q must be YYYY-MM", cfg.Assistant.DefaultMonth)
	}
	if _, err := language.Parse(cfg.Assistant.Language); err != nil {
		return fmt.Errorf("assistant.language %q: %w", cfg.Assistant.Language, err)
	}
	if cfg.Assistant.MaxConcurrency < 0 {
		return fmt.Errorf("assistant.max_concurrency must not be negative")
	}
	if cfg.Observability.TracingEnabled && cfg.Observability.JaegerEndpoint == "" {
		return fmt.Errorf("observability.jaeger_endpoint is required when tracing is enabled")
	}

	return nil
}

// ValidateForWorkers checks the settings only the worker manager needs.
func ValidateForWorkers(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	return GetWorkerConfig(cfg, workerName).Enabled
}
