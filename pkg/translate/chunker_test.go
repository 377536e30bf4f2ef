package translate

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkTexts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func TestSplitChunks(t *testing.T) {
	long := strings.Repeat("x", 450)

	tests := []struct {
		name   string
		text   string
		budget int
		want   []string
	}{
		{
			name:   "empty",
			text:   "",
			budget: 400,
			want:   []string{},
		},
		{
			name:   "punctuation only",
			text:   "...!!!???",
			budget: 400,
			want:   []string{},
		},
		{
			name:   "sentences joined with period space",
			text:   "Hello there! How are you? Fine.",
			budget: 400,
			want:   []string{"Hello there. How are you. Fine"},
		},
		{
			name:   "budget closes chunk",
			text:   "aaaa. bbbb. cccc.",
			budget: 10,
			want:   []string{"aaaa. bbbb", "cccc"},
		},
		{
			name:   "long sentence is hard split and remainder continues",
			text:   long + ". short.",
			budget: 400,
			want:   []string{strings.Repeat("x", 400), strings.Repeat("x", 50) + ". short"},
		},
		{
			name:   "current chunk flushed before long sentence",
			text:   "Hi. " + long,
			budget: 400,
			want:   []string{"Hi", strings.Repeat("x", 400), strings.Repeat("x", 50)},
		},
		{
			name:   "very long sentence splits repeatedly",
			text:   strings.Repeat("y", 1000),
			budget: 400,
			want:   []string{strings.Repeat("y", 400), strings.Repeat("y", 400), strings.Repeat("y", 200)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunkTexts(SplitChunks(tt.text, tt.budget))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitChunksCountsCharactersNotBytes(t *testing.T) {
	chunks := SplitChunks(strings.Repeat("é", 450), 400)

	require.Len(t, chunks, 2)
	assert.Equal(t, 400, utf8.RuneCountInString(chunks[0].Text))
	assert.Equal(t, 50, utf8.RuneCountInString(chunks[1].Text))
}

func TestSplitChunksRepeatedSentences(t *testing.T) {
	chunks := SplitChunks(strings.Repeat("This is sentence 7. ", 60), 400)

	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, 398, len(c.Text))
	}
}

func TestSplitChunksIsDeterministic(t *testing.T) {
	text := strings.Repeat("The museum opens at nine! Tickets cost ten euros? Yes. ", 30)
	first := SplitChunks(text, 120)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, SplitChunks(text, 120))
	}
	for _, c := range first {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 120)
	}
}
