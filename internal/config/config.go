package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/packer/internal/logging"
	"github.com/eugenenazirov/packer/internal/optimizer"
	"github.com/eugenenazirov/packer/internal/packer"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultMaxBodyBytes   = 1 << 20
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	Solver               string
	Workers              int
	MaxCandidates        int
	LogLevel             string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	MaxBodyBytes         int64
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	LogLevel             string        `yaml:"log_level"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	MaxBodyBytes         *int64        `yaml:"max_body_bytes"`
	Solver               yamlSolver    `yaml:"solver"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlSolver represents the solver section in YAML.
type yamlSolver struct {
	Strategy      string `yaml:"strategy"`
	Workers       *int   `yaml:"workers"`
	MaxCandidates *int   `yaml:"max_candidates"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// envConfig lists the supported environment variables.
type envConfig struct {
	Port                 string   `env:"PORT"`
	Solver               string   `env:"SOLVER"`
	Workers              *int     `env:"WORKERS"`
	MaxCandidates        *int     `env:"MAX_CANDIDATES"`
	LogLevel             string   `env:"LOG_LEVEL"`
	EnableRequestLogging *bool    `env:"ENABLE_REQUEST_LOGGING"`
	RateLimitRPS         *float64 `env:"RATE_LIMIT_RPS"`
	RateLimitBurst       *int     `env:"RATE_LIMIT_BURST"`
	MaxBodyBytes         *int64   `env:"MAX_BODY_BYTES"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	EnvFile        string
	Port           *string
	Solver         *string
	Workers        *int
	LogLevel       *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Variables already present in the environment win over the dotenv file.
	if overrides != nil && overrides.EnvFile != "" {
		if err := godotenv.Load(overrides.EnvFile); err != nil {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	}

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		Solver:               optimizer.Dynamic,
		Workers:              runtime.GOMAXPROCS(0),
		MaxCandidates:        packer.DefaultMaxCandidates,
		LogLevel:             logging.DefaultLevel,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		MaxBodyBytes:         defaultMaxBodyBytes,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.Solver.Strategy != "" {
		cfg.Solver = yamlCfg.Solver.Strategy
	}
	if yamlCfg.Solver.Workers != nil {
		cfg.Workers = *yamlCfg.Solver.Workers
	}
	if yamlCfg.Solver.MaxCandidates != nil {
		cfg.MaxCandidates = *yamlCfg.Solver.MaxCandidates
	}

	durations := []struct {
		name   string
		raw    string
		target *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.target = value
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.MaxBodyBytes != nil {
		cfg.MaxBodyBytes = *yamlCfg.MaxBodyBytes
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if port := strings.TrimSpace(envCfg.Port); port != "" {
		cfg.Port = port
	}
	if solver := strings.TrimSpace(envCfg.Solver); solver != "" {
		cfg.Solver = solver
	}
	if level := strings.TrimSpace(envCfg.LogLevel); level != "" {
		cfg.LogLevel = level
	}
	if envCfg.Workers != nil {
		cfg.Workers = *envCfg.Workers
	}
	if envCfg.MaxCandidates != nil {
		cfg.MaxCandidates = *envCfg.MaxCandidates
	}
	if envCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *envCfg.EnableRequestLogging
	}
	if envCfg.RateLimitRPS != nil {
		cfg.RateLimitRPS = *envCfg.RateLimitRPS
	}
	if envCfg.RateLimitBurst != nil {
		cfg.RateLimitBurst = *envCfg.RateLimitBurst
	}
	if envCfg.MaxBodyBytes != nil {
		cfg.MaxBodyBytes = *envCfg.MaxBodyBytes
	}
	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}
	if overrides.Solver != nil && *overrides.Solver != "" {
		cfg.Solver = *overrides.Solver
	}
	if overrides.Workers != nil && *overrides.Workers > 0 {
		cfg.Workers = *overrides.Workers
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("WORKERS must be >= 1")
	}
	if cfg.MaxCandidates < 1 {
		return fmt.Errorf("MAX_CANDIDATES must be >= 1")
	}
	if cfg.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be > 0")
	}
	if _, err := optimizer.New(cfg.Solver); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}
