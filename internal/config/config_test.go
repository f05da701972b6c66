package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultForecastConfig(t *testing.T) {
	cfg := DefaultForecastConfig()

	assert.True(t, cfg.RegressionEnabled)
	assert.Equal(t, 0.01, cfg.TrendSlopeThreshold)
	assert.Equal(t, 0.1, cfg.VolatilityMediumThreshold)
	assert.Equal(t, 0.3, cfg.VolatilityHighThreshold)
	assert.Equal(t, 0.2, cfg.ShiftThreshold)
	assert.Equal(t, 0.1, cfg.RecentShiftThreshold)
	assert.Equal(t, 3, cfg.MinPoints)
	assert.Equal(t, 5, cfg.RegressionMinPoints)
	assert.Equal(t, 10, cfg.HighConfidenceMinPoints)
	assert.Equal(t, 3, cfg.WindowSize)
	assert.Equal(t, 12, cfg.MaxHorizon)
	assert.Equal(t, 3, cfg.DefaultHorizon)
	assert.Equal(t, 12, cfg.SeasonalityMinPoints)
	assert.Equal(t, 50, cfg.Estimators)
	assert.Equal(t, 0.1, cfg.LearningRate)
	assert.Equal(t, 3, cfg.MaxDepth)
	assert.NoError(t, cfg.Validate())
}

func TestForecastConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ForecastConfig)
		errMsg string
	}{
		{"min points", func(c *ForecastConfig) { c.MinPoints = 0 }, "min_points"},
		{"window size", func(c *ForecastConfig) { c.WindowSize = 0 }, "window_size"},
		{"volatility order", func(c *ForecastConfig) { c.VolatilityMediumThreshold = 0.5 }, "volatility_medium_threshold"},
		{"negative slope threshold", func(c *ForecastConfig) { c.TrendSlopeThreshold = -1 }, "trend_slope_threshold"},
		{"max horizon", func(c *ForecastConfig) { c.MaxHorizon = 0 }, "max_horizon"},
		{"default horizon", func(c *ForecastConfig) { c.DefaultHorizon = 13 }, "default_horizon"},
		{"estimators", func(c *ForecastConfig) { c.Estimators = 0 }, "estimators"},
		{"learning rate", func(c *ForecastConfig) { c.LearningRate = 1.5 }, "learning_rate"},
		{"max depth", func(c *ForecastConfig) { c.MaxDepth = 0 }, "max_depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultForecastConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCacheConfig_TTLDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, CacheConfig{TTL: "90s"}.TTLDuration())
	assert.Equal(t, 5*time.Minute, CacheConfig{TTL: ""}.TTLDuration())
	assert.Equal(t, 5*time.Minute, CacheConfig{TTL: "soon"}.TTLDuration())
	assert.Equal(t, 5*time.Minute, CacheConfig{TTL: "-1m"}.TTLDuration())
}

func TestSecurityConfig_AuthEnabled(t *testing.T) {
	assert.False(t, SecurityConfig{}.AuthEnabled())
	assert.True(t, SecurityConfig{JWTSecret: "secret"}.AuthEnabled())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Cache:    CacheConfig{TTL: "5m"},
			Forecast: DefaultForecastConfig(),
		}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Server.Port = 0
	assert.ErrorContains(t, cfg.Validate(), "server.port")

	cfg = valid()
	cfg.Cache.TTL = "later"
	assert.ErrorContains(t, cfg.Validate(), "invalid cache ttl")

	cfg = valid()
	cfg.Cache.Enabled = true
	assert.ErrorContains(t, cfg.Validate(), "requires redis.enabled")

	cfg = valid()
	cfg.Telemetry.Exporter = "zipkin"
	assert.ErrorContains(t, cfg.Validate(), "telemetry.exporter")
}

func TestLoad_WithDefaults(t *testing.T) {
	config, err := Load()
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, config.Server.AllowedOrigins)
	assert.False(t, config.Redis.Enabled)
	assert.Equal(t, "localhost", config.Redis.Host)
	assert.Equal(t, 6379, config.Redis.Port)
	assert.False(t, config.Cache.Enabled)
	assert.Equal(t, "5m", config.Cache.TTL)
	assert.Equal(t, DefaultForecastConfig(), config.Forecast)
	assert.False(t, config.Telemetry.Enabled)
	assert.Equal(t, "otlp", config.Telemetry.Exporter)
	assert.Equal(t, "kpi-forecast-go", config.Telemetry.ServiceName)
	assert.Empty(t, config.Security.JWTSecret)
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Setenv("ENVIRONMENT", "PRODUCTION")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_HOST", "prod-redis.example.com")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "1")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("FORECAST_REGRESSION_ENABLED", "false")
	t.Setenv("FORECAST_MAX_HORIZON", "24")
	t.Setenv("TELEMETRY_EXPORTER", "stdout")
	t.Setenv("JWT_SECRET", "prod-secret")

	config, err := Load()
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, "error", config.LogLevel)
	assert.Equal(t, 9000, config.Server.Port)
	assert.True(t, config.Redis.Enabled)
	assert.Equal(t, "prod-redis.example.com", config.Redis.Host)
	assert.Equal(t, 6380, config.Redis.Port)
	assert.Equal(t, 1, config.Redis.DB)
	assert.True(t, config.Cache.Enabled)
	assert.Equal(t, 30*time.Second, config.Cache.TTLDuration())
	assert.False(t, config.Forecast.RegressionEnabled)
	assert.Equal(t, 24, config.Forecast.MaxHorizon)
	assert.Equal(t, 0.01, config.Forecast.TrendSlopeThreshold)
	assert.Equal(t, "stdout", config.Telemetry.Exporter)
	assert.Equal(t, "prod-secret", config.Security.JWTSecret)
	assert.True(t, config.Security.AuthEnabled())
}

func TestLoad_InvalidEnvironmentOverride(t *testing.T) {
	t.Setenv("FORECAST_VOLATILITY_MEDIUM_THRESHOLD", "0.9")

	config, err := Load()
	assert.Error(t, err)
	assert.Nil(t, config)
}
