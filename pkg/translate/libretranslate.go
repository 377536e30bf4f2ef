package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// ProviderLibreTranslate is the registry name of the LibreTranslate provider.
	ProviderLibreTranslate = "libretranslate"
	// DefaultLibreTranslateURL is the public LibreTranslate instance.
	DefaultLibreTranslateURL = "https://libretranslate.com"
)

// LibreTranslateClient implements Provider using LibreTranslate.
// LibreTranslate is a self-hosted, open-source machine translation API.
type LibreTranslateClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewLibreTranslateClient creates a new LibreTranslate client.
// apiKey is only required by instances that enforce keys.
func NewLibreTranslateClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *LibreTranslateClient {
	if baseURL == "" {
		baseURL = DefaultLibreTranslateURL
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &LibreTranslateClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: newHTTPClient(timeout),
		logger:     logger,
	}
}

// translateRequest represents a LibreTranslate API request.
type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"` // e.g., "en" or "auto"
	Target string `json:"target"` // e.g., "vi"
	Format string `json:"format"` // "text" or "html"
	APIKey string `json:"api_key,omitempty"`
}

// translateResponse represents a LibreTranslate API response.
type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// languagesResponse represents the response from the /languages endpoint.
type languagesResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (c *LibreTranslateClient) Name() string { return ProviderLibreTranslate }

// IsAvailable is true whenever a base URL is configured.
func (c *LibreTranslateClient) IsAvailable() bool { return c.baseURL != "" }

// Translate translates text from source language to target language.
func (c *LibreTranslateClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"provider":    ProviderLibreTranslate,
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with LibreTranslate")

	if sourceLang == "" {
		sourceLang = "auto"
	}
	reqPayload := translateRequest{
		Q:      text,
		Source: sourceLang,
		Target: targetLang,
		Format: "text",
		APIKey: c.apiKey,
	}

	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(&reqPayload); err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	var ltResp translateResponse
	if err := doJSON(c.httpClient, req, ProviderLibreTranslate, &ltResp); err != nil {
		return "", err
	}
	if strings.TrimSpace(ltResp.TranslatedText) == "" {
		return "", providerError(ProviderLibreTranslate, 0, ErrEmptyTranslation)
	}

	c.logger.WithFields(logrus.Fields{
		"provider":    ProviderLibreTranslate,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Debug("Translation request completed")

	return ltResp.TranslatedText, nil
}

// CheckHealth verifies that LibreTranslate is ready and operational.
func (c *LibreTranslateClient) CheckHealth(ctx context.Context) error {
	_, err := c.fetchLanguages(ctx)
	return err
}

// SupportedLanguages returns a list of language codes supported by LibreTranslate.
func (c *LibreTranslateClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	languages, err := c.fetchLanguages(ctx)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(languages))
	for _, lang := range languages {
		codes = append(codes, lang.Code)
	}

	c.logger.WithFields(logrus.Fields{
		"count": len(codes),
	}).Debug("Fetched supported languages")

	return codes, nil
}

func (c *LibreTranslateClient) fetchLanguages(ctx context.Context) ([]languagesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/languages", nil)
	if err != nil {
		return nil, fmt.Errorf("create languages request: %w", err)
	}

	var languages []languagesResponse
	if err := doJSON(c.httpClient, req, ProviderLibreTranslate, &languages); err != nil {
		c.logger.WithError(err).Warn("LibreTranslate languages request failed")
		return nil, err
	}
	return languages, nil
}
