package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// ProviderGoogleCloud is the registry name of Google Cloud Translation v2.
	ProviderGoogleCloud = "googlecloud"
	// DefaultGoogleCloudURL is the Cloud Translation API host.
	DefaultGoogleCloudURL = "https://translation.googleapis.com"
)

// GoogleCloudProvider calls Cloud Translation v2. Unavailable without a key.
type GoogleCloudProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewGoogleCloudProvider(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *GoogleCloudProvider {
	if baseURL == "" {
		baseURL = DefaultGoogleCloudURL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &GoogleCloudProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: newHTTPClient(timeout),
		logger:     logger,
	}
}

type googleCloudRequest struct {
	Q      string `json:"q"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type googleCloudResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

func (p *GoogleCloudProvider) Name() string { return ProviderGoogleCloud }

func (p *GoogleCloudProvider) IsAvailable() bool { return p.apiKey != "" }

func (p *GoogleCloudProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if !p.IsAvailable() {
		return "", providerError(ProviderGoogleCloud, 0, ErrProviderUnavailable)
	}

	p.logger.WithFields(logrus.Fields{
		"provider":    ProviderGoogleCloud,
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with Google Cloud")

	body, err := json.Marshal(googleCloudRequest{
		Q:      text,
		Source: sourceOrEmpty(sourceLang),
		Target: targetLang,
		Format: "text",
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := p.baseURL + "/language/translate/v2?key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var gcResp googleCloudResponse
	if err := doJSON(p.httpClient, req, ProviderGoogleCloud, &gcResp); err != nil {
		return "", err
	}
	if len(gcResp.Data.Translations) == 0 {
		return "", providerError(ProviderGoogleCloud, 0, fmt.Errorf("%w: no translations", ErrMalformedResponse))
	}

	translated := gcResp.Data.Translations[0].TranslatedText
	if strings.TrimSpace(translated) == "" {
		return "", providerError(ProviderGoogleCloud, 0, ErrEmptyTranslation)
	}
	return translated, nil
}
