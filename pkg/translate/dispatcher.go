package translate

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultChunkThreshold is the length in characters above which text is
	// chunked. It matches the most restrictive provider (MyMemory).
	DefaultChunkThreshold = 500
	// DefaultChunkBudget is the maximum length of a single chunk.
	DefaultChunkBudget = 400
	// DefaultChunkDelay is the pause between sequential chunk translations.
	DefaultChunkDelay = 100 * time.Millisecond
)

// FailureHook is called once for every failed provider attempt.
type FailureHook func(provider string, err error)

// Result describes how a dispatch was resolved.
type Result struct {
	// Text is the translation, a placeholder, or the reassembled chunks.
	Text string
	// Provider names the provider that produced Text. Chunked results list
	// every contributing provider, comma separated, in first-use order.
	Provider string
	// Degraded is true when Text is a placeholder or contains a chunk
	// failure marker.
	Degraded bool
	// Chunks is the number of chunks, or 0 when the text was sent whole.
	Chunks int
	// Attempts counts provider calls, last resort included.
	Attempts int
	// Duration is the wall time of the whole dispatch.
	Duration time.Duration
}

// Dispatcher tries the available providers of a registry in order and
// always produces a string.
type Dispatcher struct {
	registry  *Registry
	threshold int
	budget    int
	delay     time.Duration
	parallel  int
	fallback  Provider
	onFailure FailureHook
	logger    *logrus.Logger

	chunker    *Chunker
	lastResort *LastResort
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithThreshold sets the chunking threshold in characters.
func WithThreshold(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.threshold = n
		}
	}
}

// WithChunkBudget sets the maximum chunk length in characters. It is capped
// at the threshold.
func WithChunkBudget(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.budget = n
		}
	}
}

// WithChunkDelay sets the pause between chunk translations.
func WithChunkDelay(delay time.Duration) Option {
	return func(d *Dispatcher) {
		if delay >= 0 {
			d.delay = delay
		}
	}
}

// WithChunkConcurrency translates up to n chunks at once. Values below 2
// keep chunk translation sequential.
func WithChunkConcurrency(n int) Option {
	return func(d *Dispatcher) {
		d.parallel = n
	}
}

// WithFallbackProvider sets the provider the last resort tries once more
// before giving up.
func WithFallbackProvider(p Provider) Option {
	return func(d *Dispatcher) {
		d.fallback = p
	}
}

// WithFailureHook replaces the default failure logging.
func WithFailureHook(hook FailureHook) Option {
	return func(d *Dispatcher) {
		if hook != nil {
			d.onFailure = hook
		}
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:  registry,
		threshold: DefaultChunkThreshold,
		budget:    DefaultChunkBudget,
		delay:     DefaultChunkDelay,
		parallel:  1,
		logger:    logrus.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.budget > d.threshold {
		d.budget = d.threshold
	}
	if d.onFailure == nil {
		d.onFailure = d.logFailure
	}

	d.lastResort = NewLastResort(registry, d.fallback, d.onFailure, d.logger)
	d.chunker = &Chunker{
		budget:      d.budget,
		threshold:   d.threshold,
		delay:       d.delay,
		concurrency: d.parallel,
		translate:   d.translateShort,
		logger:      d.logger,
	}
	return d
}

// Registry returns the registry the dispatcher draws providers from.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Threshold returns the chunking threshold in characters.
func (d *Dispatcher) Threshold() int {
	return d.threshold
}

// Translate translates text and never fails. When every provider fails the
// result is the placeholder "[Translated to <Language>] <text>".
func (d *Dispatcher) Translate(ctx context.Context, text, sourceLang, targetLang string) string {
	return d.TranslateDetailed(ctx, text, sourceLang, targetLang).Text
}

// TranslateDetailed is Translate plus a description of how the text was
// produced.
func (d *Dispatcher) TranslateDetailed(ctx context.Context, text, sourceLang, targetLang string) Result {
	start := time.Now()
	if strings.TrimSpace(text) == "" {
		RecordOutcome(OutcomeSkipped)
		return Result{Text: text}
	}

	length := utf8.RuneCountInString(text)
	translationRequestSize.Observe(float64(length))

	var res Result
	if length > d.threshold {
		res = d.chunker.Translate(ctx, text, sourceLang, targetLang)
	} else {
		res = d.translateShort(ctx, text, sourceLang, targetLang)
	}
	res.Duration = time.Since(start)

	if res.Degraded {
		RecordOutcome(OutcomePlaceholder)
	} else {
		RecordOutcome(OutcomeTranslated)
	}

	d.logger.WithFields(logrus.Fields{
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": length,
		"provider":    res.Provider,
		"chunks":      res.Chunks,
		"attempts":    res.Attempts,
		"degraded":    res.Degraded,
		"duration_ms": res.Duration.Milliseconds(),
	}).Info("Translation dispatched")

	return res
}

// translateShort runs the provider sequence on text that is already within
// the threshold.
func (d *Dispatcher) translateShort(ctx context.Context, text, sourceLang, targetLang string) Result {
	attempts := 0
	for _, p := range d.registry.AvailableProviders() {
		attempts++
		out, err := tryProvider(ctx, p, text, sourceLang, targetLang)
		if err == nil {
			return Result{Text: out, Provider: p.Name(), Attempts: attempts}
		}
		d.onFailure(p.Name(), err)
	}

	d.logger.WithFields(logrus.Fields{
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"attempts":    attempts,
	}).Warn("All providers failed, using last resort")

	res := d.lastResort.Translate(ctx, text, sourceLang, targetLang)
	res.Attempts += attempts
	return res
}

func (d *Dispatcher) logFailure(provider string, err error) {
	d.logger.WithError(err).WithFields(logrus.Fields{
		"provider": provider,
	}).Warn("Translation provider failed")
}

// tryProvider calls p once and turns blank output and panics into errors.
func tryProvider(ctx context.Context, p Provider, text, sourceLang, targetLang string) (out string, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = providerError(p.Name(), 0, fmt.Errorf("%w: panic: %v", ErrRequestFailed, r))
		}
		RecordProviderAttempt(p.Name(), time.Since(start), err)
	}()

	out, err = p.Translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", providerError(p.Name(), 0, ErrEmptyTranslation)
	}
	return out, nil
}
