package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Log         LogConfig
	Scoring     ScoringConfig
	Catalog     CatalogConfig
	LLM         LLMConfig
	Explanation ExplanationConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// ScoringConfig holds scoring engine client configuration
type ScoringConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
}

// CatalogConfig holds document store configuration
type CatalogConfig struct {
	Type       string `mapstructure:"type"` // "mongo" or "memory"
	MongoURI   string `mapstructure:"mongo_uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
	SeedFile   string `mapstructure:"seed_file"`
}

// LLMConfig holds text model provider configuration
type LLMConfig struct {
	Provider          string        `mapstructure:"provider"` // "ollama" or "gemini"
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// ExplanationConfig holds explanation generation configuration
type ExplanationConfig struct {
	Temperature    float64       `mapstructure:"temperature"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	Debug          bool          `mapstructure:"debug"`
}

// Load loads configuration from environment variables and config files.
// configFile overrides the default search paths when non-empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/recommender/")
	}

	// RECOMMENDER_SCORING_BASE_URL -> scoring.base_url
	v.SetEnvPrefix("RECOMMENDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("scoring.base_url", "http://localhost:8000")
	v.SetDefault("scoring.timeout", "10s")
	v.SetDefault("scoring.failure_threshold", 5)
	v.SetDefault("scoring.open_timeout", "30s")

	v.SetDefault("catalog.type", "mongo")
	v.SetDefault("catalog.mongo_uri", "")
	v.SetDefault("catalog.database", "recommender_db")
	v.SetDefault("catalog.collection", "products")
	v.SetDefault("catalog.seed_file", "")

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.requests_per_second", 0)
	v.SetDefault("llm.burst", 1)

	v.SetDefault("explanation.temperature", 0.5)
	v.SetDefault("explanation.timeout", "15s")
	v.SetDefault("explanation.max_concurrency", 0)
	v.SetDefault("explanation.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Scoring.BaseURL == "" {
		return fmt.Errorf("scoring engine URL is required (set RECOMMENDER_SCORING_BASE_URL)")
	}

	switch config.Catalog.Type {
	case "mongo":
		if config.Catalog.MongoURI == "" {
			return fmt.Errorf("mongo URI is required when catalog type is 'mongo' (set RECOMMENDER_CATALOG_MONGO_URI)")
		}
	case "memory":
		if config.Catalog.SeedFile == "" {
			return fmt.Errorf("seed file is required when catalog type is 'memory'")
		}
	default:
		return fmt.Errorf("catalog type must be 'mongo' or 'memory', got: %s", config.Catalog.Type)
	}

	switch config.LLM.Provider {
	case "gemini":
		if config.LLM.APIKey == "" {
			return fmt.Errorf("gemini API key is required (set RECOMMENDER_LLM_API_KEY)")
		}
	case "ollama":
		if config.LLM.BaseURL == "" {
			return fmt.Errorf("ollama base URL is required when provider is 'ollama'")
		}
	default:
		return fmt.Errorf("llm provider must be 'gemini' or 'ollama', got: %s", config.LLM.Provider)
	}

	if config.Explanation.Timeout <= 0 {
		return fmt.Errorf("explanation timeout must be positive, got: %s", config.Explanation.Timeout)
	}

	if config.Explanation.Temperature < 0 || config.Explanation.Temperature > 2 {
		return fmt.Errorf("explanation temperature must be within [0, 2], got: %v", config.Explanation.Temperature)
	}

	if config.Explanation.MaxConcurrency < 0 {
		return fmt.Errorf("explanation max concurrency cannot be negative")
	}

	return nil
}
