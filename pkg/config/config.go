// Package config loads process configuration from file and environment.
// Every key is overridable through CONCIERGE_* environment variables,
// e.g. CONCIERGE_SERVER_ADDR or CONCIERGE_LLM_PROVIDER.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Server struct {
	Addr           string   `mapstructure:"addr"`
	UploadDir      string   `mapstructure:"upload_dir"`
	MediaDir       string   `mapstructure:"media_dir"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LLM struct {
	Provider string `mapstructure:"provider"` // openai, anthropic, gemini, ollama, dummy
	Model    string `mapstructure:"model"`
}

type Embedder struct {
	Provider string `mapstructure:"provider"` // openai, gemini, fastembed, dummy
	Model    string `mapstructure:"model"`
}

type Docstore struct {
	Backend  string `mapstructure:"backend"` // memory, postgres, mongo
	DSN      string `mapstructure:"dsn"`
	Database string `mapstructure:"database"`
}

type Agent struct {
	MaxSteps    int           `mapstructure:"max_steps"`
	StepTimeout time.Duration `mapstructure:"step_timeout"`
}

type Google struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
	CalendarID      string `mapstructure:"calendar_id"`
	TimeZone        string `mapstructure:"timezone"`
}

type Config struct {
	LogLevel string   `mapstructure:"log_level"`
	Server   Server   `mapstructure:"server"`
	LLM      LLM      `mapstructure:"llm"`
	Embedder Embedder `mapstructure:"embedder"`
	Docstore Docstore `mapstructure:"docstore"`
	Agent    Agent    `mapstructure:"agent"`
	Google   Google   `mapstructure:"google"`
}

// Load reads configuration from the named file (optional) plus the
// environment, applying defaults for everything left unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CONCIERGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("server.media_dir", "media")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("embedder.provider", "openai")
	v.SetDefault("embedder.model", "")
	v.SetDefault("docstore.backend", "memory")
	v.SetDefault("docstore.database", "concierge")
	v.SetDefault("agent.max_steps", 6)
	v.SetDefault("agent.step_timeout", time.Minute)
	v.SetDefault("google.credentials_file", "credentials.json")
	v.SetDefault("google.token_file", "token.json")
	v.SetDefault("google.calendar_id", "primary")
	v.SetDefault("google.timezone", "UTC")
}

func (c *Config) validate() error {
	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("agent.max_steps must be positive, got %d", c.Agent.MaxSteps)
	}
	switch c.Docstore.Backend {
	case "memory", "postgres", "mongo":
	default:
		return fmt.Errorf("unknown docstore backend %q", c.Docstore.Backend)
	}
	if c.Docstore.Backend != "memory" && c.Docstore.DSN == "" {
		return fmt.Errorf("docstore backend %q requires docstore.dsn", c.Docstore.Backend)
	}
	return nil
}
