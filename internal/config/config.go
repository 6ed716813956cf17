package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	STT    STTConfig    `yaml:"stt"`
	Server ServerConfig `yaml:"server"`

	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

// STTConfig mirrors the stt section of config.yaml: model weights and
// decoder parameters, passed through to the engine untouched.
type STTConfig struct {
	Model       string  `yaml:"model" env:"STT_MODEL"`
	BeamWidth   int     `yaml:"beam_width" env:"STT_BEAM_WIDTH"`
	Scorer      string  `yaml:"scorer" env:"STT_SCORER"`
	ScorerAlpha float64 `yaml:"scorer_alpha" env:"STT_SCORER_ALPHA"`
	ScorerBeta  float64 `yaml:"scorer_beta" env:"STT_SCORER_BETA"`

	// Legacy KenLM decoder weights.
	LMWeight             float64 `yaml:"lm_weight" env:"STT_LM_WEIGHT"`
	ValidWordCountWeight float64 `yaml:"valid_word_count_weight" env:"STT_VALID_WORD_COUNT_WEIGHT"`

	// MaxConcurrent bounds simultaneously open decode sessions.
	MaxConcurrent int `yaml:"max_concurrent" env:"STT_MAX_CONCURRENT"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST"`
	Port int    `yaml:"port" env:"HTTP_PORT"`

	ReadTimeout  int `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT"`   // seconds
	WriteTimeout int `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT"` // seconds
	IdleTimeout  int `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT"`   // seconds

	// AuthToken, when set, gates /stt behind a bearer token. Env only.
	AuthToken string `yaml:"-" env:"AUTH_TOKEN"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetReadTimeout returns the read timeout as a time.Duration.
func (s ServerConfig) GetReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the write timeout as a time.Duration.
func (s ServerConfig) GetWriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// GetIdleTimeout returns the idle timeout as a time.Duration.
func (s ServerConfig) GetIdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeout) * time.Second
}

// Overrides holds CLI flag values that take priority over env vars and the
// config file.
type Overrides struct {
	ConfigFile string
	EnvFile    string
	Host       string
	Port       int
	LogLevel   string
	ModelPath  string
}

func defaults() *Config {
	return &Config{
		STT: STTConfig{
			BeamWidth:     512,
			MaxConcurrent: 4,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 120,
			IdleTimeout:  120,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from the YAML file, a .env file, environment
// variables, and CLI overrides.
// Priority: CLI flags > environment variables > config file > defaults.
func Load(overrides Overrides) (*Config, error) {
	cfg := defaults()

	// Config file (silent if missing, unless explicitly requested)
	path := overrides.ConfigFile
	explicit := path != ""
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// env-only run
	default:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	// .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	// Environment variables override file values
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// CLI overrides win
	if overrides.Host != "" {
		cfg.Server.Host = overrides.Host
	}
	if overrides.Port != 0 {
		cfg.Server.Port = overrides.Port
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.ModelPath != "" {
		cfg.STT.Model = overrides.ModelPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.STT.Validate(); err != nil {
		return fmt.Errorf("stt config: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	return nil
}

func (s *STTConfig) Validate() error {
	if s.BeamWidth < 0 {
		return fmt.Errorf("beam_width cannot be negative, got %d", s.BeamWidth)
	}
	if s.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d", s.MaxConcurrent)
	}
	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	if s.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if s.ReadTimeout < 1 || s.WriteTimeout < 1 || s.IdleTimeout < 1 {
		return fmt.Errorf("timeouts must be at least 1 second")
	}
	return nil
}
