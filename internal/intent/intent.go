// Package intent maps a transcribed utterance to one intent of a fixed,
// ordered rule table and pulls the parameters that intent's handler needs.
package intent

import (
	"strings"
	"unicode"
)

type ID string

const (
	Greeting  ID = "greeting"
	LocalTime ID = "local_time"
	Date      ID = "date"
	Presence  ID = "presence"
	Holidays  ID = "holidays"
	WorldTime ID = "world_time"
	OpenApp   ID = "open_app"
	WebSearch ID = "web_search"
	Wikipedia ID = "wikipedia"
	Define    ID = "define"
	Lock      ID = "lock"
	Restart   ID = "restart"
	Shutdown  ID = "shutdown"
	Weather   ID = "weather"
	News      ID = "news"
	Convert   ID = "convert"
	Exit      ID = "exit"
	Unknown   ID = "unknown"
)

type Params map[string]string

type Match struct {
	Intent ID
	Params Params
	// Text is the trimmed utterance as it was heard.
	Text string
}

type Rule struct {
	Intent ID
	// Match sees the normalised (trimmed, lower-cased) utterance.
	Match func(norm string) bool
	// Extract sees the trimmed utterance with its original casing. May be nil.
	Extract func(orig string) Params
}

type Matcher struct {
	rules []Rule
}

func NewMatcher(rules []Rule) *Matcher {
	return &Matcher{rules: append([]Rule(nil), rules...)}
}

// Classify returns the first rule that accepts text, or Unknown.
func (m *Matcher) Classify(text string) Match {
	orig := strings.TrimSpace(text)
	norm := Normalize(orig)
	if norm == "" {
		return Match{Intent: Unknown, Params: Params{}, Text: orig}
	}

	for _, r := range m.rules {
		if !r.Match(norm) {
			continue
		}

		params := Params{}
		if r.Extract != nil {
			if p := r.Extract(orig); p != nil {
				params = p
			}
		}
		return Match{Intent: r.Intent, Params: params, Text: orig}
	}

	return Match{Intent: Unknown, Params: Params{}, Text: orig}
}

func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// Contains reports whether norm triggers any of keywords. A keyword with a
// space is a substring match, a single word must appear as a whole word.
func Contains(norm string, keywords ...string) bool {
	var ws map[string]bool
	for _, kw := range keywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(norm, kw) {
				return true
			}
			continue
		}

		if ws == nil {
			ws = make(map[string]bool)
			for _, w := range words(norm) {
				ws[w] = true
			}
		}
		if ws[kw] {
			return true
		}
	}
	return false
}

func keywords(kws ...string) func(string) bool {
	return func(norm string) bool {
		return Contains(norm, kws...)
	}
}
