package translate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name      string
	available bool
	fn        func(text string) (string, error)

	mu     sync.Mutex
	calls  int
	inputs []string
}

func newStub(name string, fn func(text string) (string, error)) *stubProvider {
	return &stubProvider{name: name, available: true, fn: fn}
}

func (s *stubProvider) Name() string      { return s.name }
func (s *stubProvider) IsAvailable() bool { return s.available }

func (s *stubProvider) Translate(_ context.Context, text, _, _ string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.inputs = append(s.inputs, text)
	s.mu.Unlock()
	return s.fn(text)
}

func (s *stubProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubProvider) Inputs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.inputs...)
}

func failing(string) (string, error) { return "", errors.New("boom") }

func wrapT(text string) (string, error) { return "T(" + text + ")", nil }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestDispatcher(t *testing.T, opts []Option, providers ...Provider) *Dispatcher {
	t.Helper()
	logger := quietLogger()
	registry := NewRegistry(logger)
	for _, p := range providers {
		require.NoError(t, registry.Register(p))
	}
	base := []Option{WithLogger(logger), WithChunkDelay(0)}
	return NewDispatcher(registry, append(base, opts...)...)
}

func TestDispatcherReturnsFirstSuccess(t *testing.T) {
	p1 := newStub("p1", func(string) (string, error) { return "Xin chào", nil })
	p2 := newStub("p2", wrapT)
	d := newTestDispatcher(t, nil, p1, p2)

	out := d.Translate(context.Background(), "Hello", "en", "vi")

	assert.Equal(t, "Xin chào", out)
	assert.Equal(t, 1, p1.Calls())
	assert.Equal(t, 0, p2.Calls(), "later providers must not be invoked after a success")
}

func TestDispatcherFallsThroughOnFailure(t *testing.T) {
	p1 := newStub("p1", failing)
	p2 := newStub("p2", func(string) (string, error) { return "OK", nil })

	var failed []string
	d := newTestDispatcher(t, []Option{WithFailureHook(func(name string, err error) {
		failed = append(failed, name)
	})}, p1, p2)

	res := d.TranslateDetailed(context.Background(), "Hello", "en", "vi")

	assert.Equal(t, "OK", res.Text)
	assert.Equal(t, "p2", res.Provider)
	assert.Equal(t, 2, res.Attempts)
	assert.False(t, res.Degraded)
	assert.Equal(t, 1, p1.Calls())
	assert.Equal(t, 1, p2.Calls())
	assert.Equal(t, []string{"p1"}, failed)
}

func TestDispatcherTreatsBlankOutputAsFailure(t *testing.T) {
	p1 := newStub("p1", func(string) (string, error) { return "   ", nil })
	p2 := newStub("p2", func(string) (string, error) { return "OK", nil })

	var failures []error
	d := newTestDispatcher(t, []Option{WithFailureHook(func(_ string, err error) {
		failures = append(failures, err)
	})}, p1, p2)

	assert.Equal(t, "OK", d.Translate(context.Background(), "Hello", "en", "vi"))
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], ErrEmptyTranslation)
}

func TestDispatcherSkipsUnavailableProviders(t *testing.T) {
	off := newStub("off", wrapT)
	off.available = false
	on := newStub("on", func(string) (string, error) { return "OK", nil })
	d := newTestDispatcher(t, nil, off, on)

	assert.Equal(t, "OK", d.Translate(context.Background(), "Hello", "en", "vi"))
	assert.Equal(t, 0, off.Calls())
}

func TestDispatcherPlaceholderWhenAllFail(t *testing.T) {
	p1 := newStub("p1", failing)
	p2 := newStub("p2", failing)
	fallback := newStub("fallback", failing)
	d := newTestDispatcher(t, []Option{WithFallbackProvider(fallback)}, p1, p2)

	text := "Where is the train station?"
	res := d.TranslateDetailed(context.Background(), text, "en", "vi")

	assert.Equal(t, "[Translated to Vietnamese] "+text, res.Text)
	assert.True(t, res.Degraded)
	assert.True(t, IsPlaceholder(res.Text))
	assert.Equal(t, 1, p1.Calls())
	assert.Equal(t, 1, p2.Calls())
	assert.Equal(t, 1, fallback.Calls(), "last resort tries the fallback exactly once")

	// Deterministic across runs.
	assert.Equal(t, res.Text, d.Translate(context.Background(), text, "en", "vi"))
}

func TestDispatcherPlaceholderUsesCodeForUnknownLanguage(t *testing.T) {
	d := newTestDispatcher(t, nil, newStub("p1", failing))
	assert.Equal(t, "[Translated to xx] hi", d.Translate(context.Background(), "hi", "en", "xx"))
}

func TestDispatcherWithNoProviders(t *testing.T) {
	d := newTestDispatcher(t, nil)
	assert.Equal(t, "[Translated to Thai] hello", d.Translate(context.Background(), "hello", "en", "th"))
}

func TestDispatcherLastResortFallbackSucceeds(t *testing.T) {
	calls := 0
	flaky := newStub("mymemory", func(string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("rate limited")
		}
		return "Bonjour", nil
	})
	d := newTestDispatcher(t, []Option{WithFallbackProvider(flaky)}, flaky)

	res := d.TranslateDetailed(context.Background(), "Hello", "en", "fr")
	assert.Equal(t, "Bonjour", res.Text)
	assert.Equal(t, "mymemory", res.Provider)
	assert.Equal(t, 2, res.Attempts)
	assert.False(t, res.Degraded)
}

func TestDispatcherNeverFails(t *testing.T) {
	panicky := newStub("panicky", func(string) (string, error) { panic("provider bug") })
	errs := newStub("errs", failing)
	d := newTestDispatcher(t, nil, panicky, errs)

	inputs := []string{"a", "Hello world", strings.Repeat("Long sentence here. ", 80)}
	for _, in := range inputs {
		for _, target := range []string{"vi", "", "zz"} {
			out := d.Translate(context.Background(), in, "en", target)
			assert.NotEmpty(t, out)
		}
	}
}

func TestDispatcherBlankInputIsReturnedUnchanged(t *testing.T) {
	p := newStub("p", wrapT)
	d := newTestDispatcher(t, nil, p)

	assert.Equal(t, "  ", d.Translate(context.Background(), "  ", "en", "vi"))
	assert.Equal(t, 0, p.Calls())
}

func TestDispatcherThresholdBoundary(t *testing.T) {
	t.Run("at threshold is a single call", func(t *testing.T) {
		p := newStub("p", wrapT)
		d := newTestDispatcher(t, nil, p)

		text := strings.Repeat("a", DefaultChunkThreshold)
		res := d.TranslateDetailed(context.Background(), text, "en", "vi")

		assert.Equal(t, 0, res.Chunks)
		assert.Equal(t, 1, p.Calls())
		assert.Equal(t, []string{text}, p.Inputs())
	})

	t.Run("one over threshold is chunked", func(t *testing.T) {
		p := newStub("p", wrapT)
		d := newTestDispatcher(t, nil, p)

		text := strings.Repeat("a", DefaultChunkThreshold+1)
		res := d.TranslateDetailed(context.Background(), text, "en", "vi")

		assert.Equal(t, 2, res.Chunks)
		assert.Equal(t, 2, p.Calls())
		for _, in := range p.Inputs() {
			assert.LessOrEqual(t, utf8.RuneCountInString(in), DefaultChunkBudget)
		}
	})
}

func TestDispatcherChunkedRepeatedSentences(t *testing.T) {
	p := newStub("p", wrapT)
	d := newTestDispatcher(t, nil, p)

	text := strings.Repeat("This is sentence 7. ", 60)
	require.Equal(t, 1200, len(text))

	res := d.TranslateDetailed(context.Background(), text, "en", "vi")

	inputs := p.Inputs()
	require.Len(t, inputs, 3)
	want := make([]string, len(inputs))
	for i, in := range inputs {
		assert.LessOrEqual(t, len(in), 400)
		want[i] = "T(" + in + ")"
	}
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, strings.Join(want, ". "), res.Text)
}

func TestDispatcherChunkOrderSurvivesLatency(t *testing.T) {
	a := strings.Repeat("a", 198)
	b := strings.Repeat("b", 198)
	c := strings.Repeat("c", 198)
	text := strings.Join([]string{a, a, b, b, c, c}, ". ") + "."

	delays := map[byte]time.Duration{'a': 60 * time.Millisecond, 'b': 30 * time.Millisecond, 'c': 0}
	p := newStub("p", func(in string) (string, error) {
		time.Sleep(delays[in[0]])
		return "T(" + in + ")", nil
	})
	d := newTestDispatcher(t, []Option{WithChunkConcurrency(3)}, p)

	out := d.Translate(context.Background(), text, "en", "vi")

	want := strings.Join([]string{
		"T(" + a + ". " + a + ")",
		"T(" + b + ". " + b + ")",
		"T(" + c + ". " + c + ")",
	}, ". ")
	assert.Equal(t, want, out)
}

func TestDispatcherChunkFailuresOnCancelledContext(t *testing.T) {
	p := newStub("p", wrapT)
	d := newTestDispatcher(t, nil, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := d.TranslateDetailed(ctx, strings.Repeat("a", 600), "en", "vi")

	assert.Equal(t, 2, res.Chunks)
	assert.Equal(t, ChunkFailureText(1)+". "+ChunkFailureText(2), res.Text)
	assert.Equal(t, "[Translation failed for chunk 1]. [Translation failed for chunk 2]", res.Text)
	assert.True(t, res.Degraded)
	assert.Equal(t, 0, p.Calls())
}

func TestDispatcherChunkGuard(t *testing.T) {
	p := newStub("p", wrapT)
	registry := NewRegistry(quietLogger())
	require.NoError(t, registry.Register(p))
	d := NewDispatcher(registry, WithLogger(quietLogger()), WithChunkDelay(0))

	// A chunker whose budget exceeds the threshold must not send oversized chunks.
	c := &Chunker{budget: 600, threshold: 500, translate: d.translateShort, logger: quietLogger()}
	res := c.Translate(context.Background(), strings.Repeat("a", 550), "en", "vi")

	assert.Equal(t, ChunkFailureText(1), res.Text)
	assert.Equal(t, 0, p.Calls())
}

func TestDispatcherBudgetCappedAtThreshold(t *testing.T) {
	p := newStub("p", wrapT)
	d := newTestDispatcher(t, []Option{WithThreshold(100), WithChunkBudget(400)}, p)

	res := d.TranslateDetailed(context.Background(), strings.Repeat("a", 250), "en", "vi")

	assert.Equal(t, 3, res.Chunks)
	for _, in := range p.Inputs() {
		assert.LessOrEqual(t, len(in), 100)
	}
}

func TestLastResortReprobesCapabilityProviders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"translated_text":"Hola"}`))
	}))
	defer srv.Close()

	probes := 0
	probe := func(context.Context) bool {
		probes++
		return probes > 1
	}
	onDevice := NewOnDeviceProvider(srv.URL, probe, time.Second, quietLogger())
	remote := newStub("remote", failing)
	d := newTestDispatcher(t, nil, remote, onDevice)

	res := d.TranslateDetailed(context.Background(), "Hello", "en", "es")

	assert.Equal(t, "Hola", res.Text)
	assert.Equal(t, ProviderOnDevice, res.Provider)
	assert.Equal(t, 2, probes)
	assert.True(t, onDevice.IsAvailable())
}
