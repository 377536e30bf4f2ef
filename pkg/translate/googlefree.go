package translate

import (
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
	// ProviderGoogleFree is the registry name of the keyless Google endpoint.
	ProviderGoogleFree = "googlefree"
	// DefaultGoogleFreeURL hosts the translate_a/single endpoint used by
	// browser widgets.
	DefaultGoogleFreeURL = "https://translate.googleapis.com"
)

// GoogleFreeProvider calls Google's unofficial translate_a/single endpoint.
// The response is an array of arrays; data[0][i][0] holds each translated
// segment.
type GoogleFreeProvider struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewGoogleFreeProvider(baseURL string, timeout time.Duration, logger *logrus.Logger) *GoogleFreeProvider {
	if baseURL == "" {
		baseURL = DefaultGoogleFreeURL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &GoogleFreeProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
		logger:     logger,
	}
}

func (p *GoogleFreeProvider) Name() string { return ProviderGoogleFree }

func (p *GoogleFreeProvider) IsAvailable() bool { return true }

func (p *GoogleFreeProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	p.logger.WithFields(logrus.Fields{
		"provider":    ProviderGoogleFree,
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with Google (keyless)")

	if sourceLang == "" {
		sourceLang = "auto"
	}
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", sourceLang)
	params.Set("tl", targetLang)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/translate_a/single?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	var data []json.RawMessage
	if err := doJSON(p.httpClient, req, ProviderGoogleFree, &data); err != nil {
		return "", err
	}

	translated, err := parseGoogleSegments(data)
	if err != nil {
		return "", providerError(ProviderGoogleFree, 0, err)
	}
	return translated, nil
}

// parseGoogleSegments concatenates data[0][i][0] for every segment i.
func parseGoogleSegments(data []json.RawMessage) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty array", ErrMalformedResponse)
	}

	var segments []json.RawMessage
	if err := json.Unmarshal(data[0], &segments); err != nil {
		return "", fmt.Errorf("%w: segments: %w", ErrMalformedResponse, err)
	}

	var b strings.Builder
	for _, raw := range segments {
		var parts []json.RawMessage
		if err := json.Unmarshal(raw, &parts); err != nil || len(parts) == 0 {
			continue
		}
		var segment string
		if err := json.Unmarshal(parts[0], &segment); err != nil {
			continue
		}
		b.WriteString(segment)
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyTranslation
	}
	return b.String(), nil
}
