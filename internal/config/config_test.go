package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://localhost:8000/api", cfg.WeatherAPIURL)
	assert.Equal(t, 10*time.Second, cfg.WeatherAPITimeout)
	assert.Equal(t, 2, cfg.WeatherAPIRetries)
	assert.Equal(t, 256, cfg.DetailCacheSize)
	assert.Equal(t, 10*time.Minute, cfg.DetailCacheTTL)
	assert.Empty(t, cfg.RegionsPath)
	assert.Empty(t, cfg.GeoJSONPath)
	assert.Equal(t, "Europe/Istanbul", cfg.ReferenceTimezone)
	assert.Equal(t, "1940-01-01", cfg.MinDate)
	assert.Equal(t, "34", cfg.DefaultRegion)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "region-weather.snapshots", cfg.KafkaSnapshotTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("WEATHER_API_URL", "https://weather.example.com/api")
	t.Setenv("WEATHER_API_TIMEOUT", "3s")
	t.Setenv("WEATHER_API_RETRIES", "0")
	t.Setenv("DETAIL_CACHE_SIZE", "64")
	t.Setenv("DETAIL_CACHE_TTL", "0s")
	t.Setenv("REGIONS_PATH", "data/provinces.json")
	t.Setenv("GEOJSON_PATH", "data/turkey_provinces.geojson")
	t.Setenv("REFERENCE_TIMEZONE", "UTC")
	t.Setenv("MIN_DATE", "2000-01-01")
	t.Setenv("DEFAULT_REGION", "6")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SNAPSHOT_TOPIC", "snapshots")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://weather.example.com/api", cfg.WeatherAPIURL)
	assert.Equal(t, 3*time.Second, cfg.WeatherAPITimeout)
	assert.Equal(t, 0, cfg.WeatherAPIRetries)
	assert.Equal(t, 64, cfg.DetailCacheSize)
	assert.Equal(t, time.Duration(0), cfg.DetailCacheTTL)
	assert.Equal(t, "data/provinces.json", cfg.RegionsPath)
	assert.Equal(t, "data/turkey_provinces.geojson", cfg.GeoJSONPath)
	assert.Equal(t, "UTC", cfg.ReferenceTimezone)
	assert.Equal(t, "2000-01-01", cfg.MinDate)
	assert.Equal(t, "6", cfg.DefaultRegion)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "snapshots", cfg.KafkaSnapshotTopic)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"LOG_LEVEL", "verbose"},
		{"LOG_FORMAT", "xml"},
		{"WEATHER_API_URL", "not a url"},
		{"WEATHER_API_TIMEOUT", "bad"},
		{"WEATHER_API_TIMEOUT", "0s"},
		{"WEATHER_API_RETRIES", "many"},
		{"WEATHER_API_RETRIES", "-1"},
		{"DETAIL_CACHE_SIZE", "0"},
		{"DETAIL_CACHE_TTL", "-5m"},
		{"REFERENCE_TIMEZONE", "Mars/Olympus_Mons"},
		{"MIN_DATE", "01/01/1940"},
		{"DEFAULT_REGION", "ist"},
		{"KAFKA_ENABLED", "maybe"},
		{"KAFKA_BROKERS", "no-port"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidate_KafkaTopicRequiredWhenEnabled(t *testing.T) {
	cfg := &Config{
		HTTPAddr:          ":8080",
		LogLevel:          "info",
		LogFormat:         "json",
		WeatherAPIURL:     "http://localhost:8000/api",
		WeatherAPITimeout: time.Second,
		DetailCacheSize:   1,
		ReferenceTimezone: "UTC",
		MinDate:           "1940-01-01",
		KafkaEnabled:      true,
		KafkaBrokers:      []string{defaultBroker},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, "KAFKA_SNAPSHOT_TOPIC is required", err.Error())
}

func TestValidate_KafkaTopicOptionalWhenDisabled(t *testing.T) {
	cfg := &Config{
		HTTPAddr:          ":8080",
		LogLevel:          "info",
		LogFormat:         "json",
		WeatherAPIURL:     "http://localhost:8000/api",
		WeatherAPITimeout: time.Second,
		DetailCacheSize:   1,
		ReferenceTimezone: "UTC",
		MinDate:           "1940-01-01",
	}
	assert.NoError(t, cfg.Validate())
}
