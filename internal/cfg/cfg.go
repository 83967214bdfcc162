// Package cfg loads service configuration from a YAML file with
// environment variable overrides, falling back to environment variables
// alone when no file is configured. All values are validated before use.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the resolved runtime configuration.
type Settings struct {
	DataPath  string
	ModelPath string

	APIKey     string
	APIBaseURL string

	ServerPort  int
	MetricsPort int

	SyncInterval time.Duration
	SyncDaysBack int
	RESTTimeout  time.Duration

	MaxRestDays     int
	DefaultRestDays int
	H2HLookback     int
	StreakLookback  int

	ConfidenceFloor   float64
	ConfidenceCeiling float64
}

// ConfigFile is the on-disk YAML layout.
type ConfigFile struct {
	API struct {
		Key     string `yaml:"key"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"api"`

	Features struct {
		MaxRestDays     int `yaml:"maxRestDays"`
		DefaultRestDays int `yaml:"defaultRestDays"`
		H2HLookback     int `yaml:"h2hLookback"`
		StreakLookback  int `yaml:"streakLookback"`
	} `yaml:"features"`

	Model struct {
		Path              string  `yaml:"path"`
		ConfidenceFloor   float64 `yaml:"confidenceFloor"`
		ConfidenceCeiling float64 `yaml:"confidenceCeiling"`
	} `yaml:"model"`

	System struct {
		DataPath     string `yaml:"dataPath"`
		ServerPort   int    `yaml:"serverPort"`
		MetricsPort  int    `yaml:"metricsPort"`
		SyncInterval string `yaml:"syncInterval"`
		SyncDaysBack int    `yaml:"syncDaysBack"`
		RESTTimeout  string `yaml:"restTimeout"`
	} `yaml:"system"`
}

// Load resolves settings from CONFIG_FILE when set, otherwise from the
// environment alone.
func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	syncInterval, err := time.ParseDuration(config.System.SyncInterval)
	if err != nil {
		syncInterval = 6 * time.Hour
	}
	restTimeout, err := time.ParseDuration(config.System.RESTTimeout)
	if err != nil {
		restTimeout = 10 * time.Second
	}

	settings := Settings{
		DataPath:  getEnvOrDefault("DATA_PATH", config.System.DataPath),
		ModelPath: getEnvOrDefault("MODEL_PATH", config.Model.Path),

		APIKey:     getEnvOrDefault("NBA_API_KEY", config.API.Key),
		APIBaseURL: getEnvOrDefault("NBA_API_BASE_URL", config.API.BaseURL),

		ServerPort:  getIntFromEnvOrConfig("SERVER_PORT", config.System.ServerPort, 8090),
		MetricsPort: getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort, 8080),

		SyncInterval: syncInterval,
		SyncDaysBack: getIntFromEnvOrConfig("SYNC_DAYS_BACK", config.System.SyncDaysBack, 7),
		RESTTimeout:  restTimeout,

		MaxRestDays:     getIntFromEnvOrConfig("MAX_REST_DAYS", config.Features.MaxRestDays, 7),
		DefaultRestDays: getIntFromEnvOrConfig("DEFAULT_REST_DAYS", config.Features.DefaultRestDays, 2),
		H2HLookback:     getIntFromEnvOrConfig("H2H_LOOKBACK", config.Features.H2HLookback, 10),
		StreakLookback:  getIntFromEnvOrConfig("STREAK_LOOKBACK", config.Features.StreakLookback, 10),

		ConfidenceFloor:   getFloatFromEnvOrConfig("CONFIDENCE_FLOOR", config.Model.ConfidenceFloor, 50),
		ConfidenceCeiling: getFloatFromEnvOrConfig("CONFIDENCE_CEILING", config.Model.ConfidenceCeiling, 95),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		DataPath:  getEnvOrDefault("DATA_PATH", "data"),
		ModelPath: getEnvOrDefault("MODEL_PATH", "models/courtvision-v1.json"),

		APIKey:     os.Getenv("NBA_API_KEY"), // optional, ingestion disabled without it
		APIBaseURL: os.Getenv("NBA_API_BASE_URL"),

		ServerPort:  getIntOrDefault("SERVER_PORT", 8090),
		MetricsPort: getIntOrDefault("METRICS_PORT", 8080),

		SyncInterval: getDurationOrDefault("SYNC_INTERVAL", 6*time.Hour),
		SyncDaysBack: getIntOrDefault("SYNC_DAYS_BACK", 7),
		RESTTimeout:  getDurationOrDefault("REST_TIMEOUT", 10*time.Second),

		MaxRestDays:     getIntOrDefault("MAX_REST_DAYS", 7),
		DefaultRestDays: getIntOrDefault("DEFAULT_REST_DAYS", 2),
		H2HLookback:     getIntOrDefault("H2H_LOOKBACK", 10),
		StreakLookback:  getIntOrDefault("STREAK_LOOKBACK", 10),

		ConfidenceFloor:   getFloatOrDefault("CONFIDENCE_FLOOR", 50),
		ConfidenceCeiling: getFloatOrDefault("CONFIDENCE_CEILING", 95),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings performs validation of configuration values.
func validateSettings(settings *Settings) error {
	if strings.TrimSpace(settings.ModelPath) == "" {
		return fmt.Errorf("model path cannot be empty")
	}
	if strings.TrimSpace(settings.DataPath) == "" {
		return fmt.Errorf("data path cannot be empty")
	}

	if settings.ServerPort < 1024 || settings.ServerPort > 65535 {
		return fmt.Errorf("server port must be between 1024 and 65535, got %d", settings.ServerPort)
	}
	if settings.MetricsPort < 1024 || settings.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if settings.ServerPort == settings.MetricsPort {
		return fmt.Errorf("server and metrics ports must differ, both are %d", settings.ServerPort)
	}

	if settings.SyncInterval < time.Minute || settings.SyncInterval > 48*time.Hour {
		return fmt.Errorf("sync interval must be between 1m and 48h, got %v", settings.SyncInterval)
	}
	if settings.SyncDaysBack <= 0 || settings.SyncDaysBack > 365 {
		return fmt.Errorf("sync days back must be between 1 and 365, got %d", settings.SyncDaysBack)
	}
	if settings.RESTTimeout < time.Second || settings.RESTTimeout > time.Minute {
		return fmt.Errorf("REST timeout must be between 1s and 1m, got %v", settings.RESTTimeout)
	}

	if settings.MaxRestDays <= 0 || settings.MaxRestDays > 30 {
		return fmt.Errorf("max rest days must be between 1 and 30, got %d", settings.MaxRestDays)
	}
	if settings.DefaultRestDays < 0 || settings.DefaultRestDays > settings.MaxRestDays {
		return fmt.Errorf("default rest days must be between 0 and %d, got %d", settings.MaxRestDays, settings.DefaultRestDays)
	}
	if settings.H2HLookback <= 0 || settings.H2HLookback > 100 {
		return fmt.Errorf("head-to-head lookback must be between 1 and 100, got %d", settings.H2HLookback)
	}
	if settings.StreakLookback <= 0 || settings.StreakLookback > 100 {
		return fmt.Errorf("streak lookback must be between 1 and 100, got %d", settings.StreakLookback)
	}

	if settings.ConfidenceFloor < 0 || settings.ConfidenceFloor >= settings.ConfidenceCeiling {
		return fmt.Errorf("confidence floor must be non-negative and below the ceiling, got %f >= %f",
			settings.ConfidenceFloor, settings.ConfidenceCeiling)
	}
	if settings.ConfidenceCeiling > 100 {
		return fmt.Errorf("confidence ceiling must not exceed 100, got %f", settings.ConfidenceCeiling)
	}

	return nil
}
