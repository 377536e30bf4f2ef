package translate

import (
	"context"
	"strings"
)

// Provider is a single translation backend the dispatcher can try.
// Implementations wrap one third-party wire protocol each and return an
// error for any failure (network, non-2xx, malformed or empty body).
type Provider interface {
	// Name identifies the provider in logs, metrics and listings.
	Name() string

	// IsAvailable reports whether the provider may be tried right now.
	// It depends on configuration presence or a cached capability probe
	// and never performs a translation.
	IsAvailable() bool

	// Translate translates text from source language to target language.
	// sourceLang and targetLang are ISO 639-1 codes (e.g., "en", "vi").
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// HealthChecker is implemented by providers that can verify their backend
// is reachable without translating anything.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// LanguageLister is implemented by providers that can report the language
// codes their backend supports.
type LanguageLister interface {
	SupportedLanguages(ctx context.Context) ([]string, error)
}

// Reprober is implemented by providers whose availability comes from a
// cached capability probe. Reprobe discards the cached result, runs the
// probe again and returns the new availability.
type Reprober interface {
	Reprobe(ctx context.Context) bool
}

// backendAliases maps base subtags that providers know by another code.
var backendAliases = map[string]string{
	"fil": "tl",
	"iw":  "he",
	"nb":  "no",
}

// LanguageMapper handles conversion between different language code formats.
// Callers may send BCP 47 tags like "EN" and "vi-VN", while providers
// use ISO 639-1 codes like "en" and "vi".
type LanguageMapper struct{}

// NewLanguageMapper creates a new language mapper instance.
func NewLanguageMapper() *LanguageMapper {
	return &LanguageMapper{}
}

// ToBackendCode converts a BCP 47 tag to a provider code.
// Examples:
//   - "EN" -> "en"
//   - "vi-VN" -> "vi"
//   - "zh_CN" -> "zh"
//   - "fil-PH" -> "tl"
func (lm *LanguageMapper) ToBackendCode(tag string) string {
	lang := strings.ToLower(strings.TrimSpace(tag))

	// Extract base language (before any "-" or "_")
	if idx := strings.IndexAny(lang, "-_"); idx >= 0 {
		lang = lang[:idx]
	}
	if alias, ok := backendAliases[lang]; ok {
		return alias
	}

	return lang
}
