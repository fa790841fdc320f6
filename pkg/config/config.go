package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for askdb.
// Configuration can come from a YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8484"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"`

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// Response cache store (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Fallback FallbackConfig `yaml:"fallback"`

	// ProjectsFile is the YAML project catalog.
	ProjectsFile string `yaml:"projects_file" env:"PROJECTS_FILE" env-default:"projects.yaml"`
}

// DatabaseConfig holds PostgreSQL settings for the response cache.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"askdb"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"askdb"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// LLMConfig selects models. Task routing lives in PipelinesFile; the
// remaining fields are defaults for tasks the file does not mention.
type LLMConfig struct {
	PipelinesFile   string `yaml:"pipelines_file" env:"LLM_PIPELINES_FILE" env-default:""`
	Provider        string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	BaseURL         string `yaml:"base_url" env:"LLM_BASE_URL" env-default:""`
	Model           string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"`    // Secret - not in YAML
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
}

// PipelineConfig bounds the per-request work.
type PipelineConfig struct {
	// RowLimit caps rows read from a result set. Zero reads all rows.
	RowLimit         int           `yaml:"row_limit" env:"PIPELINE_ROW_LIMIT" env-default:"1000"`
	LLMTimeout       time.Duration `yaml:"llm_timeout" env:"PIPELINE_LLM_TIMEOUT" env-default:"300s"`
	ExecutionTimeout time.Duration `yaml:"execution_timeout" env:"PIPELINE_EXECUTION_TIMEOUT" env-default:"120s"`
	LLMWorkers       int           `yaml:"llm_workers" env:"PIPELINE_LLM_WORKERS" env-default:"8"`
	ExecutionWorkers int           `yaml:"execution_workers" env:"PIPELINE_EXECUTION_WORKERS" env-default:"16"`
}

// FallbackConfig is the keyword vocabulary used when SQL generation fails.
// Empty lists are filled from DefaultFallbackConfig.
type FallbackConfig struct {
	Disabled        bool     `yaml:"disabled" env:"FALLBACK_DISABLED"`
	AverageWords    []string `yaml:"average_words"`
	TotalWords      []string `yaml:"total_words"`
	CountWords      []string `yaml:"count_words"`
	AmountKeywords  []string `yaml:"amount_keywords"`
	JobKeywords     []string `yaml:"job_keywords"`
	DepartmentWords []string `yaml:"department_words"`
	DepartmentValue string   `yaml:"department_value"`
	AverageAlias    string   `yaml:"average_alias"`
	TotalAlias      string   `yaml:"total_alias"`
	CountAlias      string   `yaml:"count_alias"`
}

// DefaultFallbackConfig returns the built-in Arabic and English vocabulary.
func DefaultFallbackConfig() FallbackConfig {
	return FallbackConfig{
		AverageWords:   []string{"متوسط", "average", "avg"},
		TotalWords:     []string{"مجموع", "total", "sum"},
		CountWords:     []string{"عدد", "how many", "count"},
		AmountKeywords: []string{"راتب", "salary", "salaries"},
		JobKeywords:    []string{"وظيف", "job"},
		// Arabic only: DepartmentValue is the Arabic HR department name.
		DepartmentWords: []string{"قسم", "موارد"},
		DepartmentValue: "الموارد البشرية",
		AverageAlias:    "average_salary",
		TotalAlias:      "total_salaries",
		CountAlias:      "record_count",
	}
}

// WithDefaults fills empty fields from DefaultFallbackConfig.
func (f FallbackConfig) WithDefaults() FallbackConfig {
	d := DefaultFallbackConfig()
	fillList := func(dst *[]string, src []string) {
		if len(*dst) == 0 {
			*dst = src
		}
	}
	fillString := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = src
		}
	}
	fillList(&f.AverageWords, d.AverageWords)
	fillList(&f.TotalWords, d.TotalWords)
	fillList(&f.CountWords, d.CountWords)
	fillList(&f.AmountKeywords, d.AmountKeywords)
	fillList(&f.JobKeywords, d.JobKeywords)
	fillList(&f.DepartmentWords, d.DepartmentWords)
	fillString(&f.DepartmentValue, d.DepartmentValue)
	fillString(&f.AverageAlias, d.AverageAlias)
	fillString(&f.TotalAlias, d.TotalAlias)
	fillString(&f.CountAlias, d.CountAlias)
	return f
}

// Load reads configuration from path with environment variable overrides.
// A missing file is not an error; environment variables and defaults apply.
func Load(path, version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	cfg.Fallback = cfg.Fallback.WithDefaults()

	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}
	if err := cfg.Pipeline.validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}

	return cfg, nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together and the files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}
	return nil
}

func (p PipelineConfig) validate() error {
	if p.RowLimit < 0 {
		return fmt.Errorf("row_limit must not be negative")
	}
	if p.LLMTimeout <= 0 {
		return fmt.Errorf("llm_timeout must be positive")
	}
	if p.ExecutionTimeout <= 0 {
		return fmt.Errorf("execution_timeout must be positive")
	}
	return nil
}

// ConnectionString returns a libpq keyword/value string for the response cache.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		ResolveHostForDocker(c.Host), c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
