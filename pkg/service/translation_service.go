package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dasmlab/tripglot/pkg/cache"
	"github.com/dasmlab/tripglot/pkg/langdetect"
	"github.com/dasmlab/tripglot/pkg/simplify"
	"github.com/dasmlab/tripglot/pkg/translate"
)

// AutoDetect is the source language value that triggers detection.
const AutoDetect = "auto"

const (
	// DefaultBatchSize is how many texts of a batch are translated at once.
	DefaultBatchSize = 5
	// DefaultBatchDelay is the pause between batches.
	DefaultBatchDelay = 100 * time.Millisecond
)

// ErrInvalidRequest is returned for requests missing required fields.
var ErrInvalidRequest = errors.New("invalid request")

// TranslateRequest asks for one translation. Source and Target accept
// language codes, BCP 47 tags or language names. An empty or "auto" Source
// is detected from the text.
type TranslateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// TranslateResponse is the outcome of a translation. Degraded marks a
// placeholder or a partially failed chunked result.
type TranslateResponse struct {
	Text       string `json:"text"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	TargetName string `json:"target_name"`
	Provider   string `json:"provider,omitempty"`
	Degraded   bool   `json:"degraded"`
	Cached     bool   `json:"cached"`
	Chunks     int    `json:"chunks"`
	DurationMs int64  `json:"duration_ms"`
}

// SimplifyResponse is the outcome of Simplify and TranslateAndSimplify.
type SimplifyResponse struct {
	simplify.Output
	Summary    []string `json:"summary"`
	Language   string   `json:"language"`
	Translated bool     `json:"translated"`
	Provider   string   `json:"provider,omitempty"`
	Degraded   bool     `json:"degraded"`
}

// TranslationService resolves languages, consults the cache and hands
// texts to the dispatcher. It backs both the gRPC and HTTP surfaces.
type TranslationService struct {
	dispatcher *translate.Dispatcher
	cache      cache.Cache
	detect     func(text string) string
	mapper     *translate.LanguageMapper
	batchSize  int
	batchDelay time.Duration
	logger     *logrus.Logger
}

// ServiceOption configures a TranslationService.
type ServiceOption func(*TranslationService)

// WithCache stores successful translations in c.
func WithCache(c cache.Cache) ServiceOption {
	return func(s *TranslationService) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithDetector replaces source language detection.
func WithDetector(detect func(text string) string) ServiceOption {
	return func(s *TranslationService) {
		if detect != nil {
			s.detect = detect
		}
	}
}

// WithBatching sets the batch size and the delay between batches.
func WithBatching(size int, delay time.Duration) ServiceOption {
	return func(s *TranslationService) {
		if size > 0 {
			s.batchSize = size
		}
		if delay >= 0 {
			s.batchDelay = delay
		}
	}
}

// NewTranslationService creates a new TranslationService instance.
func NewTranslationService(dispatcher *translate.Dispatcher, logger *logrus.Logger, opts ...ServiceOption) *TranslationService {
	if logger == nil {
		logger = logrus.New()
	}

	s := &TranslationService{
		dispatcher: dispatcher,
		cache:      cache.Nop{},
		detect:     langdetect.DetectISO6391,
		mapper:     translate.NewLanguageMapper(),
		batchSize:  DefaultBatchSize,
		batchDelay: DefaultBatchDelay,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveLanguage turns a code, BCP 47 tag or language name into a provider
// code. Unknown names resolve to translate.DefaultLanguageCode.
func (s *TranslationService) ResolveLanguage(input string) string {
	if code := s.mapper.ToBackendCode(input); translate.IsKnownCode(code) {
		return code
	}
	return translate.ResolveLanguageCode(input)
}

func (s *TranslationService) resolveSource(text, source string) string {
	source = strings.TrimSpace(source)
	if source == "" || strings.EqualFold(source, AutoDetect) {
		if code := s.detect(text); code != "" {
			return code
		}
		return translate.DefaultLanguageCode
	}
	return s.ResolveLanguage(source)
}

// Translate translates one text. It only fails for invalid requests;
// provider failures surface as a Degraded placeholder.
func (s *TranslationService) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Target) == "" {
		return nil, fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}

	source := s.resolveSource(req.Text, req.Source)
	target := s.ResolveLanguage(req.Target)
	resp := &TranslateResponse{
		Source:     source,
		Target:     target,
		TargetName: translate.LanguageName(target),
	}

	if source == target {
		translate.RecordOutcome(translate.OutcomeSkipped)
		resp.Text = req.Text
		return resp, nil
	}

	if cached, ok, err := s.cache.Get(ctx, req.Text, source, target); err != nil {
		s.logger.WithError(err).Warn("Translation cache lookup failed")
	} else if ok {
		translate.RecordOutcome(translate.OutcomeCached)
		resp.Text = cached
		resp.Cached = true
		return resp, nil
	}

	res := s.dispatcher.TranslateDetailed(ctx, req.Text, source, target)
	resp.Text = res.Text
	resp.Provider = res.Provider
	resp.Degraded = res.Degraded
	resp.Chunks = res.Chunks
	resp.DurationMs = res.Duration.Milliseconds()

	if !res.Degraded {
		if err := s.cache.Set(ctx, req.Text, source, target, res.Text); err != nil {
			s.logger.WithError(err).Warn("Translation cache store failed")
		}
	}

	return resp, nil
}

// TranslateBatch translates texts in batches of the configured size, with
// the configured delay between batches. Results keep the input order.
// progress, when non-nil, is called after each batch with the number of
// finished texts.
func (s *TranslationService) TranslateBatch(ctx context.Context, texts []string, source, target string, progress func(done, total int)) ([]*TranslateResponse, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts are required", ErrInvalidRequest)
	}
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}

	results := make([]*TranslateResponse, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		if start > 0 && s.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.batchDelay):
			}
		}

		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				if strings.TrimSpace(texts[i]) == "" {
					results[i] = &TranslateResponse{Text: texts[i], Target: s.ResolveLanguage(target)}
					return nil
				}
				resp, err := s.Translate(ctx, TranslateRequest{Text: texts[i], Source: source, Target: target})
				if err != nil {
					return err
				}
				results[i] = resp
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if progress != nil {
			progress(end, len(texts))
		}
	}

	return results, nil
}

// Simplify rewrites English text at the given level.
func (s *TranslationService) Simplify(ctx context.Context, text, level string) (*SimplifyResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	lvl, err := simplify.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	out := simplify.Simplify(text, lvl)
	return &SimplifyResponse{
		Output:   out,
		Summary:  simplify.Summarize(out.Simplified),
		Language: translate.LanguageName(translate.DefaultLanguageCode),
	}, nil
}

// TranslateAndSimplify translates text into target and simplifies the
// translation. An English target skips translation.
func (s *TranslationService) TranslateAndSimplify(ctx context.Context, req TranslateRequest, level string) (*SimplifyResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	lvl, err := simplify.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	target := translate.DefaultLanguageCode
	if strings.TrimSpace(req.Target) != "" {
		target = s.ResolveLanguage(req.Target)
	}

	out := &SimplifyResponse{Language: translate.LanguageName(target)}
	text := req.Text
	if target != translate.DefaultLanguageCode {
		if req.Source == "" {
			req.Source = translate.DefaultLanguageCode
		}
		req.Target = target
		tr, err := s.Translate(ctx, req)
		if err != nil {
			return nil, err
		}
		text = tr.Text
		out.Translated = true
		out.Provider = tr.Provider
		out.Degraded = tr.Degraded
	}

	out.Output = simplify.Simplify(text, lvl)
	out.Summary = simplify.Summarize(out.Simplified)
	return out, nil
}

// Languages lists the supported languages.
func (s *TranslationService) Languages() []translate.Language {
	return translate.Languages()
}

// Providers lists registered providers in attempt order with their
// availability and, where the backend reports them, supported languages.
func (s *TranslationService) Providers(ctx context.Context) []translate.ProviderStatus {
	return s.dispatcher.Registry().Describe(ctx)
}

// Availability lists registered providers with their availability only.
func (s *TranslationService) Availability() []translate.ProviderStatus {
	return s.dispatcher.Registry().Statuses()
}
