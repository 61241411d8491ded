package intent

import (
	"regexp"
	"strings"

	"vassist/pkg/units"
)

var months = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// Longest first so "what time is it in" wins over its suffix.
var locationKeywords = []string{"what time is it in", "time in", "time at", "time for"}

var searchTriggers = []string{"search google chrome", "search google", "search chrome", "search web"}

var (
	wikipediaTrim = regexp.MustCompile(`(?i)\b(?:wikipedia|search|what is|who is|tell me about)\b`)
	defineTrim    = regexp.MustCompile(`(?i)\b(?:what is the meaning of|explain the word|what does|define|mean|meaning of)\b`)
	weatherTrim   = regexp.MustCompile(`(?i)\b(?:weather|forecast|in)\b`)
	unitExpr      = `((?:fl|fluid)\s+(?:oz|ounces?)|[a-z][\w-]*)`
	convertExpr   = regexp.MustCompile(`(?:(?:convert|change)\s+)?(-?\d+(?:\.\d+)?)\s+` + unitExpr + `\s+(?:to|in|into)\s+` + unitExpr)
	spaces        = regexp.MustCompile(`\s+`)
)

// DefaultRules is the assistant's rule table. Order is significant: the
// first rule whose predicate holds wins.
func DefaultRules() []Rule {
	return []Rule{
		{Intent: Greeting, Match: keywords("hello", "hi")},
		{Intent: LocalTime, Match: keywords("current local time")},
		{Intent: Date, Match: keywords("date")},
		{Intent: Presence, Match: keywords("hey assistant", "bot", "can you hear me", "hey")},
		{Intent: Holidays, Match: keywords("holiday", "holidays"), Extract: extractMonth},
		{
			Intent:  WorldTime,
			Match:   keywords("time in", "time at", "world time", "time zones", "what time is it in"),
			Extract: extractLocation,
		},
		{Intent: OpenApp, Match: keywords("open"), Extract: extractApp},
		{
			Intent:  WebSearch,
			Match:   keywords("search google", "search web", "search chrome", "search google chrome"),
			Extract: extractSearch,
		},
		{Intent: Wikipedia, Match: keywords("wikipedia", "what is", "who is", "tell me about"), Extract: extractWikipedia},
		{
			Intent:  Define,
			Match:   keywords("what is the meaning of", "define", "what does mean", "explain the word"),
			Extract: extractWord,
		},
		{Intent: Lock, Match: keywords("lock computer", "lock pc"), Extract: extractConfirm},
		{Intent: Restart, Match: keywords("restart computer", "reboot computer"), Extract: extractConfirm},
		{Intent: Shutdown, Match: keywords("shutdown computer", "turn off computer"), Extract: extractConfirm},
		{Intent: Weather, Match: keywords("weather", "forecast"), Extract: extractCity},
		{Intent: News, Match: keywords("news", "headlines")},
		{Intent: Convert, Match: keywords("convert", "change", "to"), Extract: extractConversion},
		{Intent: Exit, Match: keywords("exit", "quit", "stop")},
	}
}

func clean(s string) string {
	s = spaces.ReplaceAllString(s, " ")
	return strings.Trim(s, " \t?!.,;:\"")
}

func extractMonth(orig string) Params {
	for _, w := range words(Normalize(orig)) {
		for _, m := range months {
			if w == m {
				return Params{"month": m}
			}
		}
	}
	return nil
}

func extractLocation(orig string) Params {
	norm := Normalize(orig)

	at, kwLen := -1, 0
	for _, kw := range locationKeywords {
		if i := strings.LastIndex(norm, kw); i > at {
			at, kwLen = i, len(kw)
		}
	}
	if at < 0 {
		return Params{"location": ""}
	}

	return Params{"location": clean(norm[at+kwLen:])}
}

func extractApp(orig string) Params {
	var rest []string
	for _, w := range strings.Fields(Normalize(orig)) {
		if w != "open" {
			rest = append(rest, w)
		}
	}
	return Params{"app": clean(strings.Join(rest, " "))}
}

func extractSearch(orig string) Params {
	q := Normalize(orig)
	for _, t := range searchTriggers {
		q = strings.ReplaceAll(q, t, "")
	}
	q = clean(q)
	q = strings.TrimPrefix(q, "for ")
	return Params{"query": clean(q)}
}

func extractWikipedia(orig string) Params {
	return Params{"query": clean(wikipediaTrim.ReplaceAllString(orig, ""))}
}

func extractWord(orig string) Params {
	w := clean(defineTrim.ReplaceAllString(orig, ""))
	w = strings.TrimPrefix(strings.ToLower(w), "the ")
	return Params{"word": clean(w)}
}

func extractConfirm(orig string) Params {
	if Contains(Normalize(orig), "confirm") {
		return Params{"confirm": "true"}
	}
	return Params{}
}

func extractCity(orig string) Params {
	return Params{"city": clean(weatherTrim.ReplaceAllString(orig, ""))}
}

func extractConversion(orig string) Params {
	m := convertExpr.FindStringSubmatch(Normalize(orig))
	if m == nil {
		return Params{}
	}
	return Params{
		"value": m[1],
		"from":  units.Normalize(m[2]),
		"to":    units.Normalize(m[3]),
	}
}
