package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// ProviderMyMemory is the registry name of the MyMemory provider.
	ProviderMyMemory = "mymemory"
	// DefaultMyMemoryURL is the public MyMemory API.
	DefaultMyMemoryURL = "https://api.mymemory.translated.net"
)

// MyMemoryProvider calls the free MyMemory API. It needs no credentials and
// is always available. Requests over 500 characters are rejected by the
// service, which is what the dispatcher's chunking threshold protects.
type MyMemoryProvider struct {
	baseURL    string
	email      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewMyMemoryProvider creates a MyMemory provider. email, when set, raises
// the anonymous daily quota.
func NewMyMemoryProvider(baseURL, email string, timeout time.Duration, logger *logrus.Logger) *MyMemoryProvider {
	if baseURL == "" {
		baseURL = DefaultMyMemoryURL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &MyMemoryProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		email:      email,
		httpClient: newHTTPClient(timeout),
		logger:     logger,
	}
}

// responseStatus accepts both 200 and "200"; MyMemory sends either.
type responseStatus int

func (s *responseStatus) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("response status %s: %w", b, err)
	}
	*s = responseStatus(n)
	return nil
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  responseStatus  `json:"responseStatus"`
	ResponseDetails json.RawMessage `json:"responseDetails"`
}

func (p *MyMemoryProvider) Name() string { return ProviderMyMemory }

func (p *MyMemoryProvider) IsAvailable() bool { return true }

// Translate issues GET /get?q=...&langpair=from|to.
func (p *MyMemoryProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	p.logger.WithFields(logrus.Fields{
		"provider":    ProviderMyMemory,
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with MyMemory")

	params := url.Values{}
	params.Set("q", text)
	params.Set("langpair", sourceLang+"|"+targetLang)
	if p.email != "" {
		params.Set("de", p.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/get?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	var mmResp myMemoryResponse
	if err := doJSON(p.httpClient, req, ProviderMyMemory, &mmResp); err != nil {
		return "", err
	}

	if mmResp.ResponseStatus != http.StatusOK {
		return "", providerError(ProviderMyMemory, int(mmResp.ResponseStatus),
			fmt.Errorf("%w: %s", ErrRequestFailed, string(mmResp.ResponseDetails)))
	}

	translated := strings.TrimSpace(mmResp.ResponseData.TranslatedText)
	if translated == "" {
		return "", providerError(ProviderMyMemory, 0, ErrEmptyTranslation)
	}
	// Quota and length errors come back as 200 with the warning as "translation".
	upper := strings.ToUpper(translated)
	if strings.Contains(upper, "MYMEMORY WARNING") || strings.Contains(upper, "QUERY LENGTH LIMIT") {
		return "", providerError(ProviderMyMemory, 0, fmt.Errorf("%w: %s", ErrRequestFailed, translated))
	}

	return translated, nil
}
