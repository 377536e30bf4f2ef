package translate

import "strings"

// DefaultLanguageCode is returned for language names missing from the table.
const DefaultLanguageCode = "en"

// DefaultSpeechLocale is returned for codes without a speech locale.
const DefaultSpeechLocale = "en-US"

// Language pairs a human language name with its provider code and the
// locale used for speech synthesis.
type Language struct {
	Name   string `json:"name"`
	Code   string `json:"code"`
	Speech string `json:"speech_locale"`
}

// languages is ordered; reverse lookups return the first matching name.
var languages = []Language{
	{"English", "en", "en-US"},
	{"Spanish", "es", "es-ES"},
	{"Mandarin", "zh", "zh-CN"},
	{"Chinese", "zh", "zh-CN"},
	{"Hindi", "hi", "hi-IN"},
	{"Arabic", "ar", "ar-SA"},
	{"French", "fr", "fr-FR"},
	{"German", "de", "de-DE"},
	{"Portuguese", "pt", "pt-PT"},
	{"Russian", "ru", "ru-RU"},
	{"Japanese", "ja", "ja-JP"},
	{"Korean", "ko", "ko-KR"},
	{"Vietnamese", "vi", "vi-VN"},
	{"Thai", "th", "th-TH"},
	{"Indonesian", "id", "id-ID"},
	{"Malay", "ms", "ms-MY"},
	{"Filipino", "tl", "fil-PH"},
	{"Italian", "it", "it-IT"},
	{"Dutch", "nl", "nl-NL"},
	{"Swedish", "sv", "sv-SE"},
	{"Norwegian", "no", "no-NO"},
	{"Danish", "da", "da-DK"},
	{"Finnish", "fi", "fi-FI"},
	{"Polish", "pl", "pl-PL"},
	{"Czech", "cs", "cs-CZ"},
	{"Hungarian", "hu", "hu-HU"},
	{"Romanian", "ro", "ro-RO"},
	{"Bulgarian", "bg", "bg-BG"},
	{"Croatian", "hr", "hr-HR"},
	{"Slovak", "sk", "sk-SK"},
	{"Slovenian", "sl", "sl-SI"},
	{"Estonian", "et", "et-EE"},
	{"Latvian", "lv", "lv-LV"},
	{"Lithuanian", "lt", "lt-LT"},
	{"Greek", "el", "el-GR"},
	{"Turkish", "tr", "tr-TR"},
	{"Hebrew", "he", "he-IL"},
	{"Persian", "fa", "fa-IR"},
	{"Urdu", "ur", "ur-PK"},
	{"Bengali", "bn", "bn-BD"},
	{"Tamil", "ta", "ta-IN"},
	{"Telugu", "te", "te-IN"},
	{"Gujarati", "gu", "gu-IN"},
	{"Kannada", "kn", "kn-IN"},
	{"Malayalam", "ml", "ml-IN"},
	{"Punjabi", "pa", "pa-IN"},
	{"Marathi", "mr", "mr-IN"},
	{"Nepali", "ne", "ne-NP"},
	{"Sinhala", "si", "si-LK"},
	{"Burmese", "my", "my-MM"},
	{"Khmer", "km", "km-KH"},
	{"Lao", "lo", "lo-LA"},
}

// Languages returns a copy of the language table in display order.
// Aliases sharing a code with an earlier entry are skipped.
func Languages() []Language {
	out := make([]Language, 0, len(languages))
	seen := make(map[string]bool, len(languages))
	for _, l := range languages {
		if seen[l.Code] {
			continue
		}
		seen[l.Code] = true
		out = append(out, l)
	}
	return out
}

// ResolveLanguageCode maps a language name such as "Vietnamese" to its code.
// Matching ignores case and surrounding space. Unknown names resolve to
// DefaultLanguageCode.
func ResolveLanguageCode(name string) string {
	name = strings.TrimSpace(name)
	for _, l := range languages {
		if strings.EqualFold(l.Name, name) {
			return l.Code
		}
	}
	return DefaultLanguageCode
}

// LanguageName maps a code back to the first name registered for it.
// Unknown codes are returned unchanged.
func LanguageName(code string) string {
	for _, l := range languages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// IsKnownCode reports whether code appears in the language table.
func IsKnownCode(code string) bool {
	for _, l := range languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// SpeechLocale returns the speech synthesis locale for a code.
func SpeechLocale(code string) string {
	for _, l := range languages {
		if l.Code == code {
			return l.Speech
		}
	}
	return DefaultSpeechLocale
}
