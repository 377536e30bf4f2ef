package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/tripglot/pkg/translate"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text"`

	GRPCPort int `envconfig:"GRPC_PORT" default:"50051"`
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	ProviderOrder      string        `envconfig:"PROVIDER_ORDER" default:"mymemory,googlefree,libretranslate,googlecloud,azure,ondevice"`
	LastResortProvider string        `envconfig:"LAST_RESORT_PROVIDER" default:"mymemory"`
	ProviderTimeout    time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"15s"`

	ChunkThreshold   int           `envconfig:"CHUNK_THRESHOLD" default:"500"`
	ChunkBudget      int           `envconfig:"CHUNK_BUDGET" default:"400"`
	ChunkDelay       time.Duration `envconfig:"CHUNK_DELAY" default:"100ms"`
	ChunkConcurrency int           `envconfig:"CHUNK_CONCURRENCY" default:"1"`

	MyMemoryURL   string `envconfig:"MYMEMORY_URL" default:"https://api.mymemory.translated.net"`
	MyMemoryEmail string `envconfig:"MYMEMORY_EMAIL" default:""`

	GoogleFreeURL string `envconfig:"GOOGLE_FREE_URL" default:"https://translate.googleapis.com"`

	LibreTranslateURL    string `envconfig:"LIBRETRANSLATE_URL" default:"https://libretranslate.com"`
	LibreTranslateAPIKey string `envconfig:"LIBRETRANSLATE_API_KEY" default:""`

	GoogleTranslateURL    string `envconfig:"GOOGLE_TRANSLATE_URL" default:"https://translation.googleapis.com"`
	GoogleTranslateAPIKey string `envconfig:"GOOGLE_TRANSLATE_API_KEY" default:""`

	AzureTranslatorURL    string `envconfig:"AZURE_TRANSLATOR_URL" default:"https://api.cognitive.microsofttranslator.com"`
	AzureTranslatorKey    string `envconfig:"AZURE_TRANSLATOR_KEY" default:""`
	AzureTranslatorRegion string `envconfig:"AZURE_TRANSLATOR_REGION" default:""`

	OnDeviceURL string `envconfig:"ONDEVICE_URL" default:""`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:""`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"24h"`

	BatchSize    int           `envconfig:"BATCH_SIZE" default:"5"`
	BatchDelay   time.Duration `envconfig:"BATCH_DELAY" default:"100ms"`
	JobRetention time.Duration `envconfig:"JOB_RETENTION" default:"1h"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("GRPC_PORT must be between 1 and 65535")
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.GRPCPort == c.HTTPPort {
		return fmt.Errorf("GRPC_PORT and HTTP_PORT must differ")
	}

	order, err := translate.ParseProviderOrder(c.ProviderOrder)
	if err != nil {
		return fmt.Errorf("PROVIDER_ORDER: %w", err)
	}
	if len(order) == 0 {
		return fmt.Errorf("PROVIDER_ORDER must name at least one provider")
	}
	if strings.TrimSpace(c.LastResortProvider) != "" {
		if _, err := translate.ParseProviderName(c.LastResortProvider); err != nil {
			return fmt.Errorf("LAST_RESORT_PROVIDER: %w", err)
		}
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be > 0")
	}

	if c.ChunkThreshold < 1 {
		return fmt.Errorf("CHUNK_THRESHOLD must be >= 1")
	}
	if c.ChunkBudget < 1 {
		return fmt.Errorf("CHUNK_BUDGET must be >= 1")
	}
	if c.ChunkBudget > c.ChunkThreshold {
		return fmt.Errorf("CHUNK_BUDGET (%d) cannot exceed CHUNK_THRESHOLD (%d)", c.ChunkBudget, c.ChunkThreshold)
	}
	if c.ChunkDelay < 0 {
		return fmt.Errorf("CHUNK_DELAY must be >= 0")
	}
	if c.ChunkConcurrency < 1 {
		return fmt.Errorf("CHUNK_CONCURRENCY must be >= 1")
	}

	if (c.AzureTranslatorKey == "") != (c.AzureTranslatorRegion == "") {
		return fmt.Errorf("AZURE_TRANSLATOR_KEY and AZURE_TRANSLATOR_REGION must be set together")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB must be >= 0")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be > 0")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be >= 1")
	}
	if c.BatchDelay < 0 {
		return fmt.Errorf("BATCH_DELAY must be >= 0")
	}
	if c.JobRetention <= 0 {
		return fmt.Errorf("JOB_RETENTION must be > 0")
	}
	return nil
}

// Providers returns the provider registry configuration.
func (c *Config) Providers(logger *logrus.Logger) translate.Config {
	order, _ := translate.ParseProviderOrder(c.ProviderOrder)
	return translate.Config{
		Order:                order,
		Timeout:              c.ProviderTimeout,
		MyMemoryURL:          c.MyMemoryURL,
		MyMemoryEmail:        c.MyMemoryEmail,
		GoogleFreeURL:        c.GoogleFreeURL,
		LibreTranslateURL:    c.LibreTranslateURL,
		LibreTranslateAPIKey: c.LibreTranslateAPIKey,
		GoogleCloudURL:       c.GoogleTranslateURL,
		GoogleCloudAPIKey:    c.GoogleTranslateAPIKey,
		AzureURL:             c.AzureTranslatorURL,
		AzureKey:             c.AzureTranslatorKey,
		AzureRegion:          c.AzureTranslatorRegion,
		OnDeviceURL:          c.OnDeviceURL,
		Logger:               logger,
	}
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
