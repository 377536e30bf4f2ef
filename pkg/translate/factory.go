package translate

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultProviderOrder is the attempt order used when none is configured.
// Keyless services come first; commercial and local providers only take
// part when configured.
var DefaultProviderOrder = []string{
	ProviderMyMemory,
	ProviderGoogleFree,
	ProviderLibreTranslate,
	ProviderGoogleCloud,
	ProviderAzure,
	ProviderOnDevice,
}

// Config holds everything needed to build the provider registry.
type Config struct {
	// Order lists provider names in attempt order. Empty means
	// DefaultProviderOrder.
	Order []string
	// Timeout bounds each provider HTTP call.
	Timeout time.Duration

	MyMemoryURL   string
	MyMemoryEmail string

	GoogleFreeURL string

	LibreTranslateURL    string
	LibreTranslateAPIKey string

	GoogleCloudURL    string
	GoogleCloudAPIKey string

	AzureURL    string
	AzureKey    string
	AzureRegion string

	OnDeviceURL string
	// OnDeviceProbe overrides the on-device capability probe.
	OnDeviceProbe CapabilityFunc

	// Logger is the logger instance to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// NewProvider creates the named provider from cfg.
func NewProvider(name string, cfg Config) (Provider, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	switch name {
	case ProviderMyMemory:
		return NewMyMemoryProvider(cfg.MyMemoryURL, cfg.MyMemoryEmail, cfg.Timeout, cfg.Logger), nil
	case ProviderGoogleFree:
		return NewGoogleFreeProvider(cfg.GoogleFreeURL, cfg.Timeout, cfg.Logger), nil
	case ProviderLibreTranslate:
		return NewLibreTranslateClient(cfg.LibreTranslateURL, cfg.LibreTranslateAPIKey, cfg.Timeout, cfg.Logger), nil
	case ProviderGoogleCloud:
		return NewGoogleCloudProvider(cfg.GoogleCloudURL, cfg.GoogleCloudAPIKey, cfg.Timeout, cfg.Logger), nil
	case ProviderAzure:
		return NewAzureProvider(cfg.AzureURL, cfg.AzureKey, cfg.AzureRegion, cfg.Timeout, cfg.Logger), nil
	case ProviderOnDevice:
		return NewOnDeviceProvider(cfg.OnDeviceURL, cfg.OnDeviceProbe, cfg.Timeout, cfg.Logger), nil
	default:
		return nil, fmt.Errorf("unknown translation provider: %s", name)
	}
}

// BuildRegistry creates every provider in cfg.Order and registers them in
// that order.
func BuildRegistry(cfg Config) (*Registry, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	order := cfg.Order
	if len(order) == 0 {
		order = DefaultProviderOrder
	}

	registry := NewRegistry(cfg.Logger)
	for _, name := range order {
		p, err := NewProvider(name, cfg)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}

	cfg.Logger.WithFields(logrus.Fields{
		"providers": registry.Names(),
	}).Info("Translation providers registered")

	return registry, nil
}

// ParseProviderName normalizes s into a known provider name.
func ParseProviderName(s string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, known := range DefaultProviderOrder {
		if name == known {
			return name, nil
		}
	}
	return "", fmt.Errorf("unknown provider: %s (supported: %s)", s, strings.Join(DefaultProviderOrder, ", "))
}

// ParseProviderOrder parses a comma separated provider list.
func ParseProviderOrder(s string) ([]string, error) {
	var order []string
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		name, err := ParseProviderName(part)
		if err != nil {
			return nil, err
		}
		order = append(order, name)
	}
	return order, nil
}
