package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Forecast engine defaults. These values are part of the engine's observable
// contract; change them through configuration, not here.
const (
	DefaultTrendSlopeThreshold       = 0.01
	DefaultVolatilityMediumThreshold = 0.1
	DefaultVolatilityHighThreshold   = 0.3
	DefaultShiftThreshold            = 0.2
	DefaultRecentShiftThreshold      = 0.1
	DefaultMinPoints                 = 3
	DefaultRegressionMinPoints       = 5
	DefaultHighConfidenceMinPoints   = 10
	DefaultWindowSize                = 3
	DefaultMaxHorizon                = 12
	DefaultHorizon                   = 3
	DefaultSeasonalityMinPoints      = 12
	DefaultEstimators                = 50
	DefaultLearningRate              = 0.1
	DefaultMaxDepth                  = 3
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Forecast    ForecastConfig  `mapstructure:"forecast"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
	Security    SecurityConfig  `mapstructure:"security"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig controls the optional Redis result cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	TTL     string `mapstructure:"ttl"`
}

// TTLDuration returns the parsed cache TTL, or five minutes if unset or invalid.
func (c CacheConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// ForecastConfig holds the tunables of the pattern detector and forecaster.
type ForecastConfig struct {
	RegressionEnabled         bool    `mapstructure:"regression_enabled"`
	TrendSlopeThreshold       float64 `mapstructure:"trend_slope_threshold"`
	VolatilityMediumThreshold float64 `mapstructure:"volatility_medium_threshold"`
	VolatilityHighThreshold   float64 `mapstructure:"volatility_high_threshold"`
	ShiftThreshold            float64 `mapstructure:"shift_threshold"`
	RecentShiftThreshold      float64 `mapstructure:"recent_shift_threshold"`
	MinPoints                 int     `mapstructure:"min_points"`
	RegressionMinPoints       int     `mapstructure:"regression_min_points"`
	HighConfidenceMinPoints   int     `mapstructure:"high_confidence_min_points"`
	WindowSize                int     `mapstructure:"window_size"`
	MaxHorizon                int     `mapstructure:"max_horizon"`
	DefaultHorizon            int     `mapstructure:"default_horizon"`
	SeasonalityMinPoints      int     `mapstructure:"seasonality_min_points"`
	Estimators                int     `mapstructure:"estimators"`
	LearningRate              float64 `mapstructure:"learning_rate"`
	MaxDepth                  int     `mapstructure:"max_depth"`
}

// DefaultForecastConfig returns the engine configuration with the standard thresholds.
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		RegressionEnabled:         true,
		TrendSlopeThreshold:       DefaultTrendSlopeThreshold,
		VolatilityMediumThreshold: DefaultVolatilityMediumThreshold,
		VolatilityHighThreshold:   DefaultVolatilityHighThreshold,
		ShiftThreshold:            DefaultShiftThreshold,
		RecentShiftThreshold:      DefaultRecentShiftThreshold,
		MinPoints:                 DefaultMinPoints,
		RegressionMinPoints:       DefaultRegressionMinPoints,
		HighConfidenceMinPoints:   DefaultHighConfidenceMinPoints,
		WindowSize:                DefaultWindowSize,
		MaxHorizon:                DefaultMaxHorizon,
		DefaultHorizon:            DefaultHorizon,
		SeasonalityMinPoints:      DefaultSeasonalityMinPoints,
		Estimators:                DefaultEstimators,
		LearningRate:              DefaultLearningRate,
		MaxDepth:                  DefaultMaxDepth,
	}
}

// Validate checks that the thresholds are internally consistent.
func (f ForecastConfig) Validate() error {
	if f.MinPoints < 1 {
		return fmt.Errorf("forecast.min_points must be positive, got %d", f.MinPoints)
	}
	if f.WindowSize < 1 {
		return fmt.Errorf("forecast.window_size must be positive, got %d", f.WindowSize)
	}
	if f.VolatilityMediumThreshold >= f.VolatilityHighThreshold {
		return fmt.Errorf("forecast.volatility_medium_threshold (%.4f) must be below volatility_high_threshold (%.4f)",
			f.VolatilityMediumThreshold, f.VolatilityHighThreshold)
	}
	if f.TrendSlopeThreshold < 0 {
		return errors.New("forecast.trend_slope_threshold must not be negative")
	}
	if f.MaxHorizon < 1 {
		return fmt.Errorf("forecast.max_horizon must be positive, got %d", f.MaxHorizon)
	}
	if f.DefaultHorizon < 1 || f.DefaultHorizon > f.MaxHorizon {
		return fmt.Errorf("forecast.default_horizon must be between 1 and %d, got %d", f.MaxHorizon, f.DefaultHorizon)
	}
	if f.Estimators < 1 {
		return fmt.Errorf("forecast.estimators must be positive, got %d", f.Estimators)
	}
	if f.LearningRate <= 0 || f.LearningRate > 1 {
		return fmt.Errorf("forecast.learning_rate must be in (0, 1], got %.4f", f.LearningRate)
	}
	if f.MaxDepth < 1 {
		return fmt.Errorf("forecast.max_depth must be positive, got %d", f.MaxDepth)
	}
	return nil
}

type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Exporter       string `mapstructure:"exporter"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	LogLevel       string `mapstructure:"log_level"`
}

type SecurityConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
}

// AuthEnabled reports whether the API routes require a bearer token.
func (s SecurityConfig) AuthEnabled() bool {
	return s.JWTSecret != ""
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("security.jwt_secret", "JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind JWT_SECRET environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Cache.TTL != "" {
		if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
			return fmt.Errorf("invalid cache ttl: %w", err)
		}
	}
	if c.Cache.Enabled && !c.Redis.Enabled {
		return errors.New("cache.enabled requires redis.enabled")
	}
	switch c.Telemetry.Exporter {
	case "", "otlp", "stdout":
	default:
		return fmt.Errorf("telemetry.exporter must be otlp or stdout, got %q", c.Telemetry.Exporter)
	}
	return c.Forecast.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Cache
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", "5m")

	// Forecast
	defaults := DefaultForecastConfig()
	v.SetDefault("forecast.regression_enabled", defaults.RegressionEnabled)
	v.SetDefault("forecast.trend_slope_threshold", defaults.TrendSlopeThreshold)
	v.SetDefault("forecast.volatility_medium_threshold", defaults.VolatilityMediumThreshold)
	v.SetDefault("forecast.volatility_high_threshold", defaults.VolatilityHighThreshold)
	v.SetDefault("forecast.shift_threshold", defaults.ShiftThreshold)
	v.SetDefault("forecast.recent_shift_threshold", defaults.RecentShiftThreshold)
	v.SetDefault("forecast.min_points", defaults.MinPoints)
	v.SetDefault("forecast.regression_min_points", defaults.RegressionMinPoints)
	v.SetDefault("forecast.high_confidence_min_points", defaults.HighConfidenceMinPoints)
	v.SetDefault("forecast.window_size", defaults.WindowSize)
	v.SetDefault("forecast.max_horizon", defaults.MaxHorizon)
	v.SetDefault("forecast.default_horizon", defaults.DefaultHorizon)
	v.SetDefault("forecast.seasonality_min_points", defaults.SeasonalityMinPoints)
	v.SetDefault("forecast.estimators", defaults.Estimators)
	v.SetDefault("forecast.learning_rate", defaults.LearningRate)
	v.SetDefault("forecast.max_depth", defaults.MaxDepth)

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.exporter", "otlp")
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	v.SetDefault("telemetry.service_name", "kpi-forecast-go")
	v.SetDefault("telemetry.service_version", "1.0.0")
	v.SetDefault("telemetry.log_level", "")

	// Security
	v.SetDefault("security.jwt_secret", "")
}
