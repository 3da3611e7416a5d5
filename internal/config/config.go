package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host" env:"PORTFOLIO_HOST, overwrite"`
	Port int    `toml:"port" env:"PORTFOLIO_PORT, overwrite"`

	// logging
	LogLevel    string `toml:"log_level" env:"PORTFOLIO_LOG_LEVEL, overwrite"`
	LogsPath    string `toml:"logs_path" env:"PORTFOLIO_LOGS_PATH, overwrite"`
	LogToStdout bool   `toml:"log_to_stdout"`

	SentryEnabled bool `toml:"sentry_enabled"`

	// static content data files
	BlogPostsPath string `toml:"blog_posts_path" env:"PORTFOLIO_BLOG_POSTS_PATH, overwrite"`
	ProjectsPath  string `toml:"projects_path" env:"PORTFOLIO_PROJECTS_PATH, overwrite"`

	// redis: newsletter subscribers + request rate limiting
	RedisHost string `toml:"redis_host" env:"PORTFOLIO_REDIS_HOST, overwrite"`
	RedisPort string `toml:"redis_port" env:"PORTFOLIO_REDIS_PORT, overwrite"`

	// contact form / newsletter email dispatch
	EmailAPIBaseURL               string `toml:"email_api_base_url"`
	EmailFromAddress              string `toml:"email_from_address" env:"PORTFOLIO_EMAIL_FROM, overwrite"`
	EmailFromName                 string `toml:"email_from_name"`
	AdminEmail                    string `toml:"admin_email" env:"PORTFOLIO_ADMIN_EMAIL, overwrite"`
	ContactRateLimitAllowedPerMin int    `toml:"contact_rate_limit_allowed_per_min"`

	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML config for the given environment, then applies
// env var overrides on top of it.
func Load(ctx context.Context, env, path string) (*Config, error) {
	var tomlCfg Toml
	if _, err := toml.DecodeFile(path, &tomlCfg); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := tomlCfg.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section for env %s missing", env)
	}
	cfg.Environment = env

	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("process env overrides: %w", err)
	}

	return cfg, nil
}
