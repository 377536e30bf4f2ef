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
	// ProviderAzure is the registry name of Azure Translator.
	ProviderAzure = "azure"
	// DefaultAzureURL is the global Azure Translator endpoint.
	DefaultAzureURL = "https://api.cognitive.microsofttranslator.com"
)

// AzureProvider calls Azure Translator v3. It needs both a subscription key
// and a region.
type AzureProvider struct {
	baseURL    string
	key        string
	region     string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewAzureProvider(baseURL, key, region string, timeout time.Duration, logger *logrus.Logger) *AzureProvider {
	if baseURL == "" {
		baseURL = DefaultAzureURL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &AzureProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		key:        key,
		region:     region,
		httpClient: newHTTPClient(timeout),
		logger:     logger,
	}
}

type azureText struct {
	Text string `json:"Text"`
}

type azureResponse []struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

func (p *AzureProvider) Name() string { return ProviderAzure }

func (p *AzureProvider) IsAvailable() bool { return p.key != "" && p.region != "" }

func (p *AzureProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if !p.IsAvailable() {
		return "", providerError(ProviderAzure, 0, ErrProviderUnavailable)
	}

	p.logger.WithFields(logrus.Fields{
		"provider":    ProviderAzure,
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with Azure Translator")

	params := url.Values{}
	params.Set("api-version", "3.0")
	if from := sourceOrEmpty(sourceLang); from != "" {
		params.Set("from", from)
	}
	params.Set("to", targetLang)

	body, err := json.Marshal([]azureText{{Text: text}})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/translate?"+params.Encode(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", p.key)
	req.Header.Set("Ocp-Apim-Subscription-Region", p.region)

	var azResp azureResponse
	if err := doJSON(p.httpClient, req, ProviderAzure, &azResp); err != nil {
		return "", err
	}
	if len(azResp) == 0 || len(azResp[0].Translations) == 0 {
		return "", providerError(ProviderAzure, 0, fmt.Errorf("%w: no translations", ErrMalformedResponse))
	}

	translated := azResp[0].Translations[0].Text
	if strings.TrimSpace(translated) == "" {
		return "", providerError(ProviderAzure, 0, ErrEmptyTranslation)
	}
	return translated, nil
}
