package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Models     ModelsConfig     `mapstructure:"models"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Hints      HintsConfig      `mapstructure:"hints"`
	Chat       ChatConfig       `mapstructure:"chat"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	I18n       I18nConfig       `mapstructure:"i18n"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxQuestionLen int           `mapstructure:"max_question_len"`
}

type ModelsConfig struct {
	Default   string          `mapstructure:"default"`
	Endpoints []ModelEndpoint `mapstructure:"endpoints"`
}

type ModelEndpoint struct {
	Name        string      `mapstructure:"name"`
	DisplayName string      `mapstructure:"display_name"`
	BaseURL     string      `mapstructure:"base_url"`
	APIKey      string      `mapstructure:"api_key"`
	Models      []ModelInfo `mapstructure:"models"`
}

type ModelInfo struct {
	ID        string `mapstructure:"id"`
	Name      string `mapstructure:"name"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

type ClassifierConfig struct {
	// LabelSet selects the recognized intent labels and the fallback
	// applied to unrecognized model output: "full" (six intents, unknown
	// falls back to query) or "legacy" (explain/debug/suggest, unknown
	// falls back by code presence).
	LabelSet string `mapstructure:"label_set"`
}

type HintsConfig struct {
	Max int `mapstructure:"max"`
}

type ChatConfig struct {
	MaxMessages int `mapstructure:"max_messages"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	MaxSize int           `mapstructure:"max_size"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string     `mapstructure:"level"`
	Format string     `mapstructure:"format"`
	Output string     `mapstructure:"output"`
	File   FileConfig `mapstructure:"file"`
}

type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type MonitoringConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

type I18nConfig struct {
	DefaultLanguage string   `mapstructure:"default_language"`
	Directory       string   `mapstructure:"directory"`
	Languages       []string `mapstructure:"languages"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Enable environment variable substitution
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Set environment variable overrides
	viper.SetEnvPrefix("") // No prefix
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("cache.redis.addr", "REDIS_HOST", "REDIS_PORT")
	viper.BindEnv("cache.redis.password", "REDIS_PASSWORD")
	viper.BindEnv("cache.redis.db", "REDIS_DB")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Handle Redis address special case
	if redisHost := viper.GetString("REDIS_HOST"); redisHost != "" {
		redisPort := viper.GetString("REDIS_PORT")
		if redisPort == "" {
			redisPort = "6379"
		}
		config.Cache.Redis.Addr = fmt.Sprintf("%s:%s", redisHost, redisPort)
	}

	// Load custom endpoints from environment variables
	if customEndpoints := os.Getenv("CUSTOM_ENDPOINTS"); customEndpoints != "" {
		endpoints := strings.Split(customEndpoints, ",")
		for _, endpointName := range endpoints {
			endpointName = strings.TrimSpace(endpointName)
			if endpointName == "" {
				continue
			}

			// Convert endpoint name to env var prefix
			envPrefix := strings.ToUpper(strings.ReplaceAll(endpointName, "-", "_"))

			// Get endpoint configuration from env vars
			baseURL := os.Getenv(envPrefix + "_BASE_URL")
			apiKey := os.Getenv(envPrefix + "_API_KEY")
			modelsStr := os.Getenv(envPrefix + "_MODELS")

			if baseURL == "" || apiKey == "" {
				continue
			}

			// Create new endpoint
			endpoint := ModelEndpoint{
				Name:        endpointName,
				DisplayName: endpointName,
				BaseURL:     baseURL,
				APIKey:      apiKey,
				Models:      []ModelInfo{},
			}

			// Parse models
			if modelsStr != "" {
				modelList := strings.Split(modelsStr, ",")
				for _, modelStr := range modelList {
					modelStr = strings.TrimSpace(modelStr)
					if modelStr == "" {
						continue
					}

					// Check if model has display name
					parts := strings.SplitN(modelStr, ":", 2)
					modelID := parts[0]
					modelName := modelID
					if len(parts) == 2 {
						modelName = parts[1]
					}

					endpoint.Models = append(endpoint.Models, ModelInfo{
						ID:   modelID,
						Name: modelName,
					})
				}
			}

			// Add endpoint to config
			config.Models.Endpoints = append(config.Models.Endpoints, endpoint)
		}
	}

	applyDefaults(&config)

	// Validate required fields
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.MaxQuestionLen == 0 {
		cfg.Server.MaxQuestionLen = 4096
	}
	if cfg.Hints.Max == 0 {
		cfg.Hints.Max = 7
	}
	if cfg.Chat.MaxMessages == 0 {
		cfg.Chat.MaxMessages = 15
	}
	if cfg.Classifier.LabelSet == "" {
		cfg.Classifier.LabelSet = "full"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
}

func validateConfig(cfg *Config) error {
	if len(cfg.Models.Endpoints) == 0 {
		return fmt.Errorf("at least one model endpoint is required")
	}
	if cfg.Models.Default == "" {
		return fmt.Errorf("default model is required")
	}
	if cfg.Classifier.LabelSet != "full" && cfg.Classifier.LabelSet != "legacy" {
		return fmt.Errorf("unsupported classifier label set: %s", cfg.Classifier.LabelSet)
	}
	if cfg.Cache.Enabled && cfg.Cache.Backend != "memory" && cfg.Cache.Backend != "redis" {
		return fmt.Errorf("unsupported cache backend: %s", cfg.Cache.Backend)
	}
	return nil
}
