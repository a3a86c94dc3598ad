// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Retrieval     RetrievalConfig         `mapstructure:"retrieval"`
	Assistant     AssistantConfig         `mapstructure:"assistant"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Server        ServerConfig            `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL shorthand
}

// GetAddresses returns Addresses, falling back to URL.
func (e ElasticsearchConfig) GetAddresses() []string {
	if len(e.Addresses) > 0 {
		return e.Addresses
	}
	if e.URL != "" {
		return []string{e.URL}
	}
	return nil
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

// --- Retrieval ---

// Backend names accepted by retrieval.backend and retrieval.routes.
const (
	BackendHTTP          = "http"
	BackendPostgres      = "postgres"
	BackendElasticsearch = "elasticsearch"
	BackendRedis         = "redis"
)

// RetrievalConfig selects where source payloads are read from. Routes override
// the default backend per source id; InsightBackend overrides it for insight sources.
type RetrievalConfig struct {
	Backend        string            `mapstructure:"backend"`
	InsightBackend string            `mapstructure:"insight_backend"`
	Routes         map[string]string `mapstructure:"routes"`

	HTTP struct {
		BaseURL      string  `mapstructure:"base_url"`
		PathTemplate string  `mapstructure:"path_template"` // "{source}" is replaced
		APIKey       string  `mapstructure:"api_key"`
		Timeout      int     `mapstructure:"timeout"` // milliseconds
		RateLimit    float64 `mapstructure:"rate_limit"`
		Burst        int     `mapstructure:"burst"`
		MaxBodyBytes int64   `mapstructure:"max_body_bytes"`
	} `mapstructure:"http"`

	Postgres struct {
		Table string `mapstructure:"table"`
	} `mapstructure:"postgres"`

	Elasticsearch struct {
		Index string `mapstructure:"index"`
	} `mapstructure:"elasticsearch"`

	Redis struct {
		KeyPrefix string `mapstructure:"key_prefix"`
	} `mapstructure:"redis"`
}

// BackendsInUse lists every backend referenced by the retrieval settings.
func (r RetrievalConfig) BackendsInUse() map[string]bool {
	used := map[string]bool{r.Backend: true}
	if r.InsightBackend != "" {
		used[r.InsightBackend] = true
	}
	for _, b := range r.Routes {
		used[b] = true
	}
	return used
}

// --- Assistant ---

// BrandConfig identifies the tracked brand's rows inside market tables.
type BrandConfig struct {
	Name        string   `mapstructure:"name"`
	Products    []string `mapstructure:"products"`
	MatchFields []string `mapstructure:"match_fields"`
}

type AssistantConfig struct {
	Brand          BrandConfig `mapstructure:"brand"`
	RulesPath      string      `mapstructure:"rules_path"`
	CatalogPath    string      `mapstructure:"catalog_path"`
	DefaultMonth   string      `mapstructure:"default_month"`
	Language       string      `mapstructure:"language"`        // BCP 47 tag for number formatting
	MaxConcurrency int         `mapstructure:"max_concurrency"` // 0 = unlimited
	MaxRows        int         `mapstructure:"max_rows"`
	MaxCellRunes   int         `mapstructure:"max_cell_runes"`
	InsightExcerpt int         `mapstructure:"insight_excerpt"`
	RequestTimeout int         `mapstructure:"request_timeout"` // milliseconds, HTTP endpoint
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName    string  `mapstructure:"service_name"`
	TracingEnabled bool    `mapstructure:"tracing_enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}
