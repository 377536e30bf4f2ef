package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// ProviderOnDevice is the registry name of the local model provider.
	ProviderOnDevice = "ondevice"
	// DefaultProbeTimeout bounds the capability probe.
	DefaultProbeTimeout = 2 * time.Second
)

// CapabilityFunc reports whether an on-device model can be used.
type CapabilityFunc func(ctx context.Context) bool

// NeverCapable is the capability probe for hosts without a local model.
func NeverCapable(context.Context) bool { return false }

// HTTPHealthProbe returns a probe that is true when GET baseURL/health
// answers 200.
func HTTPHealthProbe(baseURL string, timeout time.Duration) CapabilityFunc {
	if baseURL == "" {
		return NeverCapable
	}
	baseURL = strings.TrimRight(baseURL, "/")
	client := newHTTPClient(timeout)
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}
}

// OnDeviceProvider talks to a translation model running next to the service
// (an Argos or similar HTTP wrapper). Availability comes from a capability
// probe that runs once and is cached until Reprobe is called.
type OnDeviceProvider struct {
	baseURL    string
	httpClient *http.Client
	probe      CapabilityFunc
	logger     *logrus.Logger

	mu        sync.Mutex
	probed    bool
	available bool
}

// NewOnDeviceProvider creates an on-device provider. A nil probe defaults to
// HTTPHealthProbe on baseURL, which is NeverCapable when baseURL is empty.
func NewOnDeviceProvider(baseURL string, probe CapabilityFunc, timeout time.Duration, logger *logrus.Logger) *OnDeviceProvider {
	if logger == nil {
		logger = logrus.New()
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if probe == nil {
		probe = HTTPHealthProbe(baseURL, DefaultProbeTimeout)
	}
	return &OnDeviceProvider{
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout),
		probe:      probe,
		logger:     logger,
	}
}

type onDeviceRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type onDeviceResponse struct {
	TranslatedText string `json:"translated_text"`
}

func (p *OnDeviceProvider) Name() string { return ProviderOnDevice }

// IsAvailable runs the probe on first use and caches the answer.
func (p *OnDeviceProvider) IsAvailable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.probed {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultProbeTimeout)
		p.available = p.probe(ctx)
		cancel()
		p.probed = true
		p.logger.WithFields(logrus.Fields{
			"provider":  ProviderOnDevice,
			"available": p.available,
		}).Debug("On-device capability probed")
	}
	return p.available
}

// Reprobe discards the cached probe result and probes again.
func (p *OnDeviceProvider) Reprobe(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.available = p.probe(ctx)
	p.probed = true
	return p.available
}

func (p *OnDeviceProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if !p.IsAvailable() || p.baseURL == "" {
		return "", providerError(ProviderOnDevice, 0, ErrProviderUnavailable)
	}

	p.logger.WithFields(logrus.Fields{
		"provider":    ProviderOnDevice,
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with on-device model")

	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(&onDeviceRequest{
		Text:       text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
	}); err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/translate", buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var odResp onDeviceResponse
	if err := doJSON(p.httpClient, req, ProviderOnDevice, &odResp); err != nil {
		return "", err
	}
	if strings.TrimSpace(odResp.TranslatedText) == "" {
		return "", providerError(ProviderOnDevice, 0, ErrEmptyTranslation)
	}
	return odResp.TranslatedText, nil
}

// CheckHealth verifies that the local model endpoint answers.
func (p *OnDeviceProvider) CheckHealth(ctx context.Context) error {
	if !p.Reprobe(ctx) {
		return providerError(ProviderOnDevice, 0, ErrProviderUnavailable)
	}
	return nil
}
