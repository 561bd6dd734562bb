package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/tabular"
)

// Config holds the full application configuration.
type Config struct {
	Batch    BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Search   SearchConfig    `yaml:"search" mapstructure:"search"`
	Serper   SerperConfig    `yaml:"serper" mapstructure:"serper"`
	LinkedIn LinkedInConfig  `yaml:"linkedin" mapstructure:"linkedin"`
	Filter   FilterConfig    `yaml:"filter" mapstructure:"filter"`
	Columns  tabular.Columns `yaml:"columns" mapstructure:"columns"`
	Metrics  MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Log      LogConfig       `yaml:"log" mapstructure:"log"`
}

// BatchConfig configures the worker pool and checkpointing.
type BatchConfig struct {
	Workers         int `yaml:"workers" mapstructure:"workers"`
	CheckpointEvery int `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
	DelayMs         int `yaml:"delay_ms" mapstructure:"delay_ms"`
}

// Delay returns the pacing interval between external fetches.
func (b BatchConfig) Delay() time.Duration {
	return time.Duration(b.DelayMs) * time.Millisecond
}

// SearchConfig configures contact search.
type SearchConfig struct {
	MaxContacts      int    `yaml:"max_contacts" mapstructure:"max_contacts"`
	MaxRetries       int    `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffInitialMs int    `yaml:"backoff_initial_ms" mapstructure:"backoff_initial_ms"`
	ResultsPerQuery  int    `yaml:"results_per_query" mapstructure:"results_per_query"`
	RolesFile        string `yaml:"roles_file" mapstructure:"roles_file"`
}

// SerperConfig configures the search API client.
type SerperConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// LinkedInConfig configures the browser session.
type LinkedInConfig struct {
	SessionCookie  string `yaml:"session_cookie" mapstructure:"session_cookie"`
	NavTimeoutSecs int    `yaml:"nav_timeout_secs" mapstructure:"nav_timeout_secs"`
	SizeSelector   string `yaml:"size_selector" mapstructure:"size_selector"`
}

// FilterConfig configures the downstream filters.
type FilterConfig struct {
	MinEmployees int      `yaml:"min_employees" mapstructure:"min_employees"`
	MaxEmployees int      `yaml:"max_employees" mapstructure:"max_employees"`
	Sectors      []string `yaml:"sectors" mapstructure:"sectors"`
}

// MetricsConfig configures the Prometheus listener.
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials also come from their historical names.
	if err := v.BindEnv("linkedin.session_cookie", "ENRICH_LINKEDIN_SESSION_COOKIE", "LINKEDIN_SESSION_COOKIE"); err != nil {
		return nil, eris.Wrap(err, "config: bind linkedin cookie")
	}
	if err := v.BindEnv("serper.key", "ENRICH_SERPER_KEY", "SERPER_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind serper key")
	}

	// Defaults
	v.SetDefault("batch.workers", 3)
	v.SetDefault("batch.checkpoint_every", 5)
	v.SetDefault("batch.delay_ms", 2000)
	v.SetDefault("search.max_contacts", model.MaxContacts)
	v.SetDefault("search.max_retries", 3)
	v.SetDefault("search.backoff_initial_ms", 1000)
	v.SetDefault("search.results_per_query", 5)
	v.SetDefault("search.roles_file", "")
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("serper.timeout_secs", 30)
	v.SetDefault("linkedin.nav_timeout_secs", 60)
	v.SetDefault("linkedin.size_selector", "a.org-top-card-summary-info-list__info-item-link span")
	v.SetDefault("filter.min_employees", 11)
	v.SetDefault("filter.max_employees", 200)
	v.SetDefault("filter.sectors", []string{"IT Services and IT Consulting", "Software Development"})
	v.SetDefault("columns.name", "companyName")
	v.SetDefault("columns.url", "companyUrl")
	v.SetDefault("columns.sector", "sector")
	v.SetDefault("columns.size", "Company_Size")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.LinkedIn.SessionCookie = strings.TrimSpace(cfg.LinkedIn.SessionCookie)
	cfg.Serper.Key = strings.TrimSpace(cfg.Serper.Key)

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is "size", "contacts"
// or "filter"; every problem found is reported in one error.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "size":
		if c.LinkedIn.SessionCookie == "" {
			problems = append(problems, "linkedin.session_cookie is required (or LINKEDIN_SESSION_COOKIE)")
		}
	case "contacts":
		if c.Serper.Key == "" {
			problems = append(problems, "serper.key is required (or SERPER_KEY)")
		}
		if c.Search.MaxContacts < 1 || c.Search.MaxContacts > model.MaxContacts {
			problems = append(problems, "search.max_contacts must be between 1 and 4")
		}
		if c.Search.MaxRetries < 1 {
			problems = append(problems, "search.max_retries must be >= 1")
		}
	case "filter":
		if c.Filter.MinEmployees > c.Filter.MaxEmployees {
			problems = append(problems, "filter.min_employees must not exceed filter.max_employees")
		}
		return joinProblems(problems)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Batch.Workers < 1 {
		problems = append(problems, "batch.workers must be >= 1")
	}
	if c.Batch.CheckpointEvery < 1 {
		problems = append(problems, "batch.checkpoint_every must be >= 1")
	}
	if c.Batch.DelayMs < 0 {
		problems = append(problems, "batch.delay_ms must be >= 0")
	}
	return joinProblems(problems)
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return eris.New("config: " + strings.Join(problems, "; "))
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
