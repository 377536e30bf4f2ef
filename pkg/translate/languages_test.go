package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLanguageCodeIsIdempotent(t *testing.T) {
	for _, l := range languages {
		first := ResolveLanguageCode(l.Name)
		second := ResolveLanguageCode(l.Name)
		assert.Equal(t, first, second, l.Name)
		assert.Equal(t, l.Code, first, l.Name)
	}
}

func TestResolveLanguageCode(t *testing.T) {
	assert.Equal(t, "vi", ResolveLanguageCode("Vietnamese"))
	assert.Equal(t, "th", ResolveLanguageCode("  thai "))
	assert.Equal(t, "zh", ResolveLanguageCode("Chinese"))
	assert.Equal(t, "tl", ResolveLanguageCode("FILIPINO"))

	for i := 0; i < 3; i++ {
		assert.Equal(t, DefaultLanguageCode, ResolveLanguageCode("Klingon"))
	}
	assert.Equal(t, DefaultLanguageCode, ResolveLanguageCode(""))
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Vietnamese", LanguageName("vi"))
	assert.Equal(t, "Mandarin", LanguageName("zh"))
	assert.Equal(t, "English", LanguageName("en"))
	assert.Equal(t, "xx", LanguageName("xx"))
}

func TestLanguagesSkipsAliases(t *testing.T) {
	list := Languages()
	seen := map[string]bool{}
	for _, l := range list {
		assert.False(t, seen[l.Code], "duplicate code %s", l.Code)
		seen[l.Code] = true
	}
	assert.Len(t, list, 51)
	assert.Equal(t, "English", list[0].Name)
}

func TestSpeechLocale(t *testing.T) {
	assert.Equal(t, "vi-VN", SpeechLocale("vi"))
	assert.Equal(t, "fil-PH", SpeechLocale("tl"))
	assert.Equal(t, DefaultSpeechLocale, SpeechLocale("xx"))
}

func TestLanguageMapperToBackendCode(t *testing.T) {
	lm := NewLanguageMapper()
	assert.Equal(t, "en", lm.ToBackendCode("EN"))
	assert.Equal(t, "vi", lm.ToBackendCode("vi-VN"))
	assert.Equal(t, "zh", lm.ToBackendCode("zh_CN"))
	assert.Equal(t, "fr", lm.ToBackendCode(" fr "))
	assert.Equal(t, "tl", lm.ToBackendCode("fil-PH"))
	assert.Equal(t, "no", lm.ToBackendCode("nb-NO"))
}

func TestSpeechLocalesMapBackToCodes(t *testing.T) {
	lm := NewLanguageMapper()
	for _, l := range Languages() {
		assert.Equal(t, l.Code, lm.ToBackendCode(l.Speech), l.Speech)
	}
}
