package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" validate:"required"`
	LogLevel        string        `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat       string        `env:"LOG_FORMAT" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`

	// Weather backend.
	WeatherAPIURL     string        `env:"WEATHER_API_URL" validate:"required,url"`
	WeatherAPITimeout time.Duration `env:"WEATHER_API_TIMEOUT" validate:"gt=0"`
	WeatherAPIRetries int           `env:"WEATHER_API_RETRIES" validate:"gte=0,lte=10"`
	DetailCacheSize   int           `env:"DETAIL_CACHE_SIZE" validate:"gt=0"`
	DetailCacheTTL    time.Duration `env:"DETAIL_CACHE_TTL" validate:"gte=0"`

	// Static data. Without REGIONS_PATH the catalog is fetched from the backend.
	RegionsPath string `env:"REGIONS_PATH"`
	GeoJSONPath string `env:"GEOJSON_PATH"`

	// Selection.
	ReferenceTimezone string `env:"REFERENCE_TIMEZONE" validate:"required,timezone"`
	MinDate           string `env:"MIN_DATE" validate:"datetime=2006-01-02"`
	DefaultRegion     string `env:"DEFAULT_REGION" validate:"omitempty,numeric,min=1,max=2"`

	// Snapshot notifications.
	KafkaEnabled       bool     `env:"KAFKA_ENABLED"`
	KafkaBrokers       []string `env:"KAFKA_BROKERS" validate:"required_if=KafkaEnabled true,dive,hostname_port"`
	KafkaSnapshotTopic string   `env:"KAFKA_SNAPSHOT_TOPIC" validate:"required_if=KafkaEnabled true"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	apiTimeout, err := parseDuration("WEATHER_API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("DETAIL_CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}
	retries, err := parseInt("WEATHER_API_RETRIES", 2)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("DETAIL_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout: shutdownTimeout,

		WeatherAPIURL:     sharedcfg.EnvOrDefault("WEATHER_API_URL", "http://localhost:8000/api"),
		WeatherAPITimeout: apiTimeout,
		WeatherAPIRetries: retries,
		DetailCacheSize:   cacheSize,
		DetailCacheTTL:    cacheTTL,

		RegionsPath: os.Getenv("REGIONS_PATH"),
		GeoJSONPath: os.Getenv("GEOJSON_PATH"),

		ReferenceTimezone: sharedcfg.EnvOrDefault("REFERENCE_TIMEZONE", "Europe/Istanbul"),
		MinDate:           sharedcfg.EnvOrDefault("MIN_DATE", "1940-01-01"),
		DefaultRegion:     sharedcfg.EnvOrDefault("DEFAULT_REGION", "34"),

		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "region-weather.snapshots"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Validate checks every field and reports the first offending variable.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}
	fe := verrs[0]
	key := fe.Field()
	if i := strings.IndexByte(key, '['); i >= 0 {
		key = key[:i]
	}
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Errorf("%s is required", key)
	default:
		return fmt.Errorf("invalid %s: %v", key, fe.Value())
	}
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
