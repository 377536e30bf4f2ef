package translate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrProviderUnavailable is returned when a provider is asked to
	// translate while its credentials or capability are missing.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrRequestFailed covers network errors and non-2xx responses.
	ErrRequestFailed = errors.New("provider request failed")
	// ErrMalformedResponse is returned when a body cannot be decoded into
	// the provider's documented shape.
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrEmptyTranslation is returned when a provider answers successfully
	// but the translated field is empty.
	ErrEmptyTranslation = errors.New("empty translation")
	// ErrChunkTooLarge is returned when a chunk handed to the short-text
	// path exceeds the chunking threshold.
	ErrChunkTooLarge = errors.New("chunk exceeds chunking threshold")
)

// ProviderError records which provider failed and why.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func providerError(provider string, status int, err error) error {
	return &ProviderError{Provider: provider, StatusCode: status, Err: err}
}

// PlaceholderPrefix starts every placeholder produced on total failure.
const PlaceholderPrefix = "[Translated to "

// Placeholder returns the deterministic string emitted when every provider
// failed for text.
func Placeholder(targetLang, text string) string {
	return PlaceholderPrefix + LanguageName(targetLang) + "] " + text
}

// IsPlaceholder reports whether s looks like a total-failure placeholder.
func IsPlaceholder(s string) bool {
	return strings.HasPrefix(s, PlaceholderPrefix)
}

// ChunkFailureText is substituted for chunk n (1-based) when that chunk
// could not be translated at all.
func ChunkFailureText(n int) string {
	return "[Translation failed for chunk " + strconv.Itoa(n) + "]"
}
