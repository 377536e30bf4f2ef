// Package simplify rewrites formal text into plainer language and pulls
// out the parts a traveller needs: obligations, fees, deadlines and known
// jargon.
package simplify

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Level controls how aggressively text is simplified.
type Level string

const (
	LevelChild    Level = "child"
	LevelSimple   Level = "simple"
	LevelStandard Level = "standard"
)

const (
	// WordsPerMinute is the reading speed behind ReadTimeMinutes.
	WordsPerMinute = 180
	// MaxKeyPoints caps KeyPoints.
	MaxKeyPoints = 8
	// childSentenceLimit truncates sentences at the child level.
	childSentenceLimit = 140
	// summarySentences is how many leading sentences Summarize falls back to.
	summarySentences = 5
)

// ParseLevel parses a level name. An empty string means LevelSimple.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "", LevelSimple:
		return LevelSimple, nil
	case LevelChild:
		return LevelChild, nil
	case LevelStandard:
		return LevelStandard, nil
	default:
		return "", fmt.Errorf("unknown complexity level: %s (supported: child, simple, standard)", s)
	}
}

// Term is a known piece of jargon and its plain explanation.
type Term struct {
	Term        string `json:"term"`
	Explanation string `json:"explanation"`
}

// Output is the result of Simplify.
type Output struct {
	Simplified      string   `json:"simplified"`
	KeyPoints       []string `json:"key_points"`
	Terms           []Term   `json:"terms"`
	ReadTimeMinutes int      `json:"read_time_minutes"`
}

type replacement struct {
	re   *regexp.Regexp
	with string
}

func phrase(pattern, with string) replacement {
	return replacement{re: regexp.MustCompile(`(?i)` + pattern), with: with}
}

var (
	whitespace       = regexp.MustCompile(`\s+`)
	sentenceEnd      = regexp.MustCompile(`[.!?]\s+`)
	keyPointSplit    = regexp.MustCompile(`\n|[.!?]`)
	summarySplit     = regexp.MustCompile(`[.!?]`)
	keyPointKeywords = regexp.MustCompile(`(?i)must|deadline|fee|pay|due|right|oblig|require|prohibit|not allowed`)

	plainWords = []replacement{
		phrase(`hereby`, "now"),
		phrase(`pursuant to`, "under"),
		phrase(`in accordance with`, "following"),
		phrase(`utilize`, "use"),
		phrase(`commence`, "start"),
		phrase(`terminate`, "end"),
		phrase(`remuneration`, "pay"),
		phrase(`facilitate`, "help"),
		phrase(`prohibited`, "not allowed"),
		phrase(`obligation`, "duty"),
		phrase(`undertake`, "promise"),
	}

	childWords = []replacement{
		phrase(`shall`, "must"),
		phrase(`notwithstanding`, "even so"),
		phrase(`thereof|therein|hereto`, "it"),
	}

	simpleWords = []replacement{
		phrase(`shall`, "must"),
	}
)

var knownTerms = []Term{
	{"HOA", "Homeowners Association: a group that makes rules and collects fees in a neighborhood."},
	{"Security deposit", "Money you pay that a landlord can use for damages or unpaid rent."},
	{"Due date", "The last day something must be done or paid."},
	{"Jurisdiction", "The area or authority where a law or court has power."},
	{"Boarding pass", "The document that lets you get on a plane, showing your seat and gate."},
	{"Layover", "A stop between two flights where you wait for your next plane."},
	{"Customs", "The checkpoint where officers inspect goods you bring into a country."},
	{"Visa", "Official permission to enter or stay in a country."},
	{"Itinerary", "The planned schedule of your trip."},
	{"Cancellation policy", "The rules about refunds or fees if you cancel a booking."},
	{"Tourist tax", "A local fee charged per night or per person to visitors."},
}

// Simplify rewrites text at the given level and extracts key points, known
// terms and an estimated read time.
func Simplify(text string, level Level) Output {
	simplified := simplifyText(text, level)
	return Output{
		Simplified:      simplified,
		KeyPoints:       KeyPoints(simplified),
		Terms:           Terms(text),
		ReadTimeMinutes: ReadTimeMinutes(simplified),
	}
}

func simplifyText(text string, level Level) string {
	sentences := splitSentences(whitespace.ReplaceAllString(text, " "))
	for i, s := range sentences {
		sentences[i] = simplifySentence(s, level)
	}
	return strings.Join(sentences, " ")
}

// splitSentences splits after terminal punctuation followed by whitespace,
// keeping the punctuation.
func splitSentences(text string) []string {
	var out []string
	prev := 0
	for _, m := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[prev : m[0]+1]); s != "" {
			out = append(out, s)
		}
		prev = m[1]
	}
	if s := strings.TrimSpace(text[prev:]); s != "" {
		out = append(out, s)
	}
	return out
}

func simplifySentence(s string, level Level) string {
	r := apply(s, plainWords)

	switch level {
	case LevelChild:
		r = apply(r, childWords)
		if utf8.RuneCountInString(r) > childSentenceLimit {
			r = string([]rune(r)[:childSentenceLimit]) + "…"
		}
	case LevelSimple:
		r = apply(r, simpleWords)
	}
	return r
}

func apply(s string, rules []replacement) string {
	for _, rule := range rules {
		s = rule.re.ReplaceAllString(s, rule.with)
	}
	return s
}

// KeyPoints returns up to MaxKeyPoints sentences that mention obligations,
// payments, rights or deadlines.
func KeyPoints(text string) []string {
	points := []string{}
	for _, part := range keyPointSplit.Split(text, -1) {
		s := strings.TrimSpace(part)
		if s == "" || !keyPointKeywords.MatchString(s) {
			continue
		}
		points = append(points, s)
		if len(points) == MaxKeyPoints {
			break
		}
	}
	return points
}

// Terms returns the known terms mentioned in text, in glossary order.
func Terms(text string) []Term {
	lower := strings.ToLower(text)
	terms := []Term{}
	for _, t := range knownTerms {
		if strings.Contains(lower, strings.ToLower(t.Term)) {
			terms = append(terms, t)
		}
	}
	return terms
}

// ReadTimeMinutes estimates reading time, never less than one minute.
func ReadTimeMinutes(text string) int {
	words := len(strings.Fields(text))
	minutes := int(math.Round(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Summarize returns the key points of text, or its first sentences when it
// has none.
func Summarize(text string) []string {
	if points := KeyPoints(text); len(points) > 0 {
		return points
	}

	sentences := []string{}
	for _, part := range summarySplit.Split(text, -1) {
		if s := strings.TrimSpace(part); s != "" {
			sentences = append(sentences, s)
			if len(sentences) == summarySentences {
				break
			}
		}
	}
	return sentences
}
