package translate

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LastResort runs after every available provider failed. It re-probes
// providers whose availability is a cached capability check, gives the
// fallback provider one more try, and otherwise returns the placeholder.
type LastResort struct {
	registry  *Registry
	fallback  Provider
	onFailure FailureHook
	logger    *logrus.Logger
}

// NewLastResort creates a last resort. fallback may be nil.
func NewLastResort(registry *Registry, fallback Provider, onFailure FailureHook, logger *logrus.Logger) *LastResort {
	if logger == nil {
		logger = logrus.New()
	}
	if onFailure == nil {
		onFailure = func(string, error) {}
	}
	return &LastResort{
		registry:  registry,
		fallback:  fallback,
		onFailure: onFailure,
		logger:    logger,
	}
}

// Translate never fails.
func (lr *LastResort) Translate(ctx context.Context, text, sourceLang, targetLang string) Result {
	attempts := 0

	if lr.registry != nil {
		for _, p := range lr.registry.All() {
			rp, ok := p.(Reprober)
			if !ok || p.IsAvailable() {
				continue
			}
			if !rp.Reprobe(ctx) {
				continue
			}
			lr.logger.WithFields(logrus.Fields{
				"provider": p.Name(),
			}).Info("Provider became available after re-probe")

			attempts++
			out, err := tryProvider(ctx, p, text, sourceLang, targetLang)
			if err == nil {
				lastResortTotal.WithLabelValues("reprobed").Inc()
				return Result{Text: out, Provider: p.Name(), Attempts: attempts}
			}
			lr.onFailure(p.Name(), err)
		}
	}

	if lr.fallback != nil && lr.fallback.IsAvailable() {
		attempts++
		out, err := tryProvider(ctx, lr.fallback, text, sourceLang, targetLang)
		if err == nil {
			lastResortTotal.WithLabelValues("fallback").Inc()
			return Result{Text: out, Provider: lr.fallback.Name(), Attempts: attempts}
		}
		lr.onFailure(lr.fallback.Name(), err)
	}

	lastResortTotal.WithLabelValues("placeholder").Inc()
	lr.logger.WithFields(logrus.Fields{
		"target_lang": targetLang,
		"text_length": len(text),
	}).Warn("Returning placeholder translation")

	return Result{
		Text:     Placeholder(targetLang, text),
		Degraded: true,
		Attempts: attempts,
	}
}
