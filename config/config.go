package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"explore-backend/utils"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Explore  ExploreConfig  `koanf:"explore"`
	Cache    CacheConfig    `koanf:"cache"`
	Rating   RatingConfig   `koanf:"rating"`
	Breaker  BreakerConfig  `koanf:"breaker"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Port            string        `koanf:"port" validate:"required"`
	Mode            string        `koanf:"mode" validate:"oneof=debug release test"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Path     string `koanf:"path" validate:"required"`
	LogLevel string `koanf:"log_level" validate:"oneof=silent error warn info"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// ExploreConfig holds the ranking and sampling parameters of the Explore feed
type ExploreConfig struct {
	// Limit is the number of books per shelf, including the personalized one
	Limit int `koanf:"limit" validate:"gte=1,lte=200"`

	// Alpha and Beta weight genre and tag signal before renormalization
	Alpha float64 `koanf:"alpha" validate:"gte=0"`
	Beta  float64 `koanf:"beta" validate:"gte=0"`

	// ExplorationRate is the share of probability mass spread uniformly over all keys
	ExplorationRate float64 `koanf:"exploration_rate" validate:"gte=0,lte=1"`

	// AttemptMultiplier bounds sampler draws to Limit * AttemptMultiplier
	AttemptMultiplier int `koanf:"attempt_multiplier" validate:"gte=1"`

	// TrendingPoolMultiplier sizes the trending fallback pool to Limit * TrendingPoolMultiplier
	TrendingPoolMultiplier int `koanf:"trending_pool_multiplier" validate:"gte=1"`

	GenreShelves       int     `koanf:"genre_shelves" validate:"gte=0,lte=20"`
	SignalWindowDays   int     `koanf:"signal_window_days" validate:"gte=1,lte=365"`
	TrendingWindowDays int     `koanf:"trending_window_days" validate:"gte=1,lte=365"`
	BayesConfidence    float64 `koanf:"bayes_confidence" validate:"gte=0"`

	// Seed fixes the random source; zero picks a random seed at startup
	Seed uint64 `koanf:"seed"`
}

// MaxAttempts returns the sampler attempt budget
func (e ExploreConfig) MaxAttempts() int {
	return e.Limit * e.AttemptMultiplier
}

// TrendingPoolSize returns the number of trending books the sampler may fall back on
func (e ExploreConfig) TrendingPoolSize() int {
	return e.Limit * e.TrendingPoolMultiplier
}

type CacheConfig struct {
	TTL         time.Duration `koanf:"ttl" validate:"gt=0"`
	NumCounters int64         `koanf:"num_counters" validate:"gt=0"`
	MaxCost     int64         `koanf:"max_cost" validate:"gt=0"`
	BufferItems int64         `koanf:"buffer_items" validate:"gt=0"`
}

// RatingConfig controls the refresh of the cached global rating average
type RatingConfig struct {
	RefreshSpec string `koanf:"refresh_spec" validate:"required"`
}

type BreakerConfig struct {
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"gte=1"`
	MaxRequests      uint32        `koanf:"max_requests" validate:"gte=1"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
}

// ConfigPathEnvVar overrides the config file location
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Mode:            "release",
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:     "explore.db",
			LogLevel: "warn",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Explore: ExploreConfig{
			Limit:                  30,
			Alpha:                  utils.DefaultGenreWeight,
			Beta:                   utils.DefaultTagWeight,
			ExplorationRate:        utils.DefaultExplorationRate,
			AttemptMultiplier:      6,
			TrendingPoolMultiplier: 2,
			GenreShelves:           2,
			SignalWindowDays:       30,
			TrendingWindowDays:     int(utils.DefaultTrendingWindow / (24 * time.Hour)),
			BayesConfidence:        utils.DefaultBayesConfidence,
		},
		Cache: CacheConfig{
			TTL:         5 * time.Minute,
			NumCounters: 10_000,
			MaxCost:     1_000_000,
			BufferItems: 64,
		},
		Rating: RatingConfig{
			RefreshSpec: "@every 5m",
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			MaxRequests:      1,
			Timeout:          30 * time.Second,
		},
	}
}

// LoadConfig layers defaults, an optional YAML file and environment variables
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks field ranges and cross-field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Explore.Alpha+c.Explore.Beta == 0 {
		return fmt.Errorf("explore.alpha and explore.beta cannot both be zero")
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var configSections = []string{"server", "database", "logging", "explore", "cache", "rating", "breaker"}

// legacyEnv keeps the short variable names deployments already set
var legacyEnv = map[string]string{
	"port":      "server.port",
	"db_path":   "database.path",
	"log_level": "logging.level",
	"gin_mode":  "server.mode",
}

// envTransformFunc maps EXPLORE_EXPLORATION_RATE to explore.exploration_rate.
// Variables outside the known sections are ignored.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if mapped, ok := legacyEnv[key]; ok {
		return mapped
	}
	for _, section := range configSections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok && rest != "" {
			return section + "." + rest
		}
	}
	return ""
}
