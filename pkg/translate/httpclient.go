package translate

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultProviderTimeout bounds every provider HTTP call.
const DefaultProviderTimeout = 15 * time.Second

// maxErrorBody caps how much of a failed response body ends up in errors.
const maxErrorBody = 1024

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &http.Client{Timeout: timeout}
}

// doJSON executes req and decodes a 200 response body into out.
func doJSON(client *http.Client, req *http.Request, provider string, out interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return providerError(provider, 0, fmt.Errorf("%w: %w", ErrRequestFailed, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return providerError(provider, resp.StatusCode,
			fmt.Errorf("%w: %s", ErrRequestFailed, strings.TrimSpace(string(body))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return providerError(provider, resp.StatusCode, fmt.Errorf("%w: %w", ErrMalformedResponse, err))
	}
	return nil
}

// sourceOrEmpty maps the "auto" pseudo-code to an empty source so that
// providers which support detection can do it themselves.
func sourceOrEmpty(sourceLang string) string {
	if sourceLang == "auto" {
		return ""
	}
	return sourceLang
}
