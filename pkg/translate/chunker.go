package translate

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// chunkSeparator joins sentences inside a chunk and translated chunks in
// the final result.
const chunkSeparator = ". "

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// Chunk is a bounded slice of the input text. Index is its 0-based position.
type Chunk struct {
	Index int
	Text  string
}

// SplitChunks splits text into sentence-aware chunks of at most budget
// characters. Sentences are joined with ". " inside a chunk. A sentence
// longer than budget is hard-split at the budget boundary and its remainder
// starts the next chunk.
func SplitChunks(text string, budget int) []Chunk {
	if budget <= 0 {
		budget = DefaultChunkBudget
	}

	var chunks []Chunk
	current := ""
	currentLen := 0

	flush := func() {
		current = strings.TrimSpace(current)
		if current != "" {
			chunks = append(chunks, Chunk{Index: len(chunks), Text: current})
		}
		current = ""
		currentLen = 0
	}

	for _, part := range sentenceBoundary.Split(text, -1) {
		sentence := strings.TrimSpace(part)
		if sentence == "" {
			continue
		}
		sentenceLen := utf8.RuneCountInString(sentence)

		// Sentence too long on its own: hard-split it
		if sentenceLen > budget {
			flush()
			runes := []rune(sentence)
			for len(runes) > budget {
				current = string(runes[:budget])
				flush()
				runes = runes[budget:]
			}
			current = strings.TrimSpace(string(runes))
			currentLen = utf8.RuneCountInString(current)
			continue
		}

		if current == "" {
			current = sentence
			currentLen = sentenceLen
			continue
		}

		if currentLen+len(chunkSeparator)+sentenceLen > budget {
			flush()
			current = sentence
			currentLen = sentenceLen
			continue
		}

		current += chunkSeparator + sentence
		currentLen += len(chunkSeparator) + sentenceLen
	}
	flush()

	return chunks
}

// Chunker translates oversized text chunk by chunk through the
// dispatcher's short-text path and reassembles the result in order.
type Chunker struct {
	budget      int
	threshold   int
	delay       time.Duration
	concurrency int
	translate   func(ctx context.Context, text, sourceLang, targetLang string) Result
	logger      *logrus.Logger
}

// Translate never fails. Chunks that cannot be translated are replaced by
// "[Translation failed for chunk N]".
func (c *Chunker) Translate(ctx context.Context, text, sourceLang, targetLang string) Result {
	chunks := SplitChunks(text, c.budget)
	if len(chunks) == 0 {
		// Only punctuation and whitespace; nothing to translate.
		return Result{Text: text}
	}
	translationChunks.Observe(float64(len(chunks)))

	c.logger.WithFields(logrus.Fields{
		"text_length":  utf8.RuneCountInString(text),
		"total_chunks": len(chunks),
		"budget":       c.budget,
		"concurrency":  c.concurrency,
	}).Info("Translating text in chunks")

	results := make([]Result, len(chunks))

	if c.concurrency > 1 {
		var g errgroup.Group
		g.SetLimit(c.concurrency)
		for i, chunk := range chunks {
			if i > 0 {
				c.wait(ctx)
			}
			i, chunk := i, chunk
			g.Go(func() error {
				results[i] = c.translateChunk(ctx, chunk, sourceLang, targetLang)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, chunk := range chunks {
			if i > 0 {
				c.wait(ctx)
			}
			results[i] = c.translateChunk(ctx, chunk, sourceLang, targetLang)
		}
	}

	return mergeChunkResults(results)
}

func (c *Chunker) translateChunk(ctx context.Context, chunk Chunk, sourceLang, targetLang string) Result {
	fields := logrus.Fields{
		"chunk":        chunk.Index + 1,
		"chunk_length": utf8.RuneCountInString(chunk.Text),
	}

	if err := ctx.Err(); err != nil {
		c.logger.WithError(err).WithFields(fields).Warn("Chunk skipped")
		return chunkFailure(chunk)
	}
	if utf8.RuneCountInString(chunk.Text) > c.threshold {
		c.logger.WithError(ErrChunkTooLarge).WithFields(fields).Error("Chunk exceeds threshold")
		return chunkFailure(chunk)
	}

	return c.translate(ctx, chunk.Text, sourceLang, targetLang)
}

// wait pauses between chunks and returns early when ctx is done.
func (c *Chunker) wait(ctx context.Context) {
	if c.delay <= 0 {
		return
	}
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func chunkFailure(chunk Chunk) Result {
	chunkFailuresTotal.Inc()
	return Result{Text: ChunkFailureText(chunk.Index + 1), Degraded: true}
}

func mergeChunkResults(results []Result) Result {
	texts := make([]string, len(results))
	var providers []string
	seen := make(map[string]bool)
	merged := Result{Chunks: len(results)}

	for i, r := range results {
		texts[i] = r.Text
		merged.Attempts += r.Attempts
		if r.Degraded {
			merged.Degraded = true
		}
		if r.Provider != "" && !seen[r.Provider] {
			seen[r.Provider] = true
			providers = append(providers, r.Provider)
		}
	}

	merged.Text = strings.Join(texts, chunkSeparator)
	merged.Provider = strings.Join(providers, ",")
	return merged
}
