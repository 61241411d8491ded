package handler

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"vassist/internal/intent"
	"vassist/internal/lookup"
	"vassist/internal/system"
	"vassist/pkg/holidays"
	"vassist/pkg/units"
	"vassist/pkg/worldtime"
)

const (
	unknownReply = "I'm not sure how to help with that. Could you try asking something else?"
	convertUsage = "Please specify units to convert from and to (e.g., 'convert 5 kilometers to meters')"
)

type handlers struct {
	Services
}

func reply(text string) Result {
	return Result{Response: text, Next: Continue}
}

// shown is for handlers that posted their own output.
func shown(text string) Result {
	return Result{Response: text, Next: Suppress}
}

func (h *handlers) greeting(context.Context, *Context, intent.Params) Result {
	return reply("Hello! How can I help you today?")
}

func (h *handlers) presence(context.Context, *Context, intent.Params) Result {
	return reply("I am in your service")
}

func (h *handlers) localTime(context.Context, *Context, intent.Params) Result {
	return reply("The current time is " + h.Now().Format("15:04"))
}

func (h *handlers) date(context.Context, *Context, intent.Params) Result {
	return reply("Today's date is " + h.Now().Format("January 02, 2006"))
}

func (h *handlers) exit(context.Context, *Context, intent.Params) Result {
	return Result{Response: "Goodbye! Have a nice day.", Next: Terminate}
}

func (h *handlers) unknown(ctx context.Context, hc *Context, _ intent.Params) Result {
	if h.Chat == nil || hc.Utterance == "" {
		return reply(unknownReply)
	}

	answer, err := h.Chat.Ask(ctx, hc.Utterance)
	if err != nil {
		log.Warn("Chat fallback failed", "err", err)
		return reply(unknownReply)
	}

	return reply(answer)
}

func (h *handlers) holidays(_ context.Context, _ *Context, p intent.Params) Result {
	now := h.Now()

	var month time.Month
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(p["month"], m.String()) {
			month = m
			break
		}
	}

	list := holidays.ByMonth(h.Countries, now.Year(), month)
	if len(list) == 0 {
		return reply("No holidays found for this period.")
	}

	var b strings.Builder
	if month != 0 {
		fmt.Fprintf(&b, "📅 Holidays in %s %d:\n\n", month, now.Year())
	} else {
		b.WriteString("🗓️ Upcoming Global Holidays:\n\n")
	}
	for _, hd := range list {
		fmt.Fprintf(&b, "• %s: %s\n", hd.Date.Format("Jan 02"), hd.Name)
	}

	return reply(b.String())
}

func (h *handlers) worldTime(_ context.Context, hc *Context, p intent.Params) Result {
	location := p["location"]

	times, err := worldtime.Lookup(h.Now(), location)
	if err != nil {
		log.Error("World time lookup failed", "location", location, "err", err)
		return reply("Sorry, I couldn't get the time information.")
	}

	var b strings.Builder
	switch {
	case len(times) == 0:
		fmt.Fprintf(&b, "I couldn't find time information for %s", location)
	case location != "":
		fmt.Fprintf(&b, "⏰ Current time in %s:\n\n", worldtime.Title(location))
	default:
		b.WriteString("⏰ Current World Times:\n\n")
	}
	for _, ct := range times {
		fmt.Fprintf(&b, "• %s: %s\n", ct.City, ct.Time.Format(worldtime.Layout))
	}

	hc.Display(b.String())
	return shown(b.String())
}

func (h *handlers) openApp(ctx context.Context, _ *Context, p intent.Params) Result {
	app := p["app"]
	if app == "" {
		return reply("Which application would you like me to open?")
	}

	err := h.System.OpenApp(ctx, app)
	switch {
	case err == nil:
		return reply("Opening " + app)
	case errors.Is(err, system.ErrNotFound):
		return reply(fmt.Sprintf("Couldn't find %s on this system", app))
	default:
		return reply(fmt.Sprintf("Sorry, I couldn't open %s. Error: %v", app, err))
	}
}

func (h *handlers) webSearch(ctx context.Context, _ *Context, p intent.Params) Result {
	query := p["query"]
	if query == "" {
		return Result{}
	}

	if err := h.System.Search(ctx, query); err != nil {
		log.Warn("Web search failed", "query", query, "err", err)
		return reply("I couldn't perform the search. Please try again.")
	}

	return reply("Searching the web for " + query)
}

func (h *handlers) wikipedia(ctx context.Context, hc *Context, p intent.Params) Result {
	query := p["query"]
	if query == "" {
		return reply("What would you like me to search on Wikipedia?")
	}

	summary, err := h.Wikipedia.Summary(ctx, query)
	switch {
	case errors.Is(err, lookup.ErrAmbiguous):
		return reply("Multiple options found. Please be more specific.")
	case errors.Is(err, lookup.ErrNotFound):
		return reply("No Wikipedia page found. Try a different search.")
	case err != nil:
		return reply(fmt.Sprintf("Search error: %v", err))
	}

	text := fmt.Sprintf("📚 Wikipedia summary for '%s':\n\n%s", query, summary)
	hc.Display(text)
	return shown(text)
}

func (h *handlers) define(ctx context.Context, hc *Context, p intent.Params) Result {
	word := p["word"]
	if word == "" {
		return reply("Please specify a word you'd like me to explain.")
	}

	def, err := h.Dictionary.Define(ctx, word)
	if errors.Is(err, lookup.ErrNotFound) {
		return reply(fmt.Sprintf("Couldn't find a definition for '%s'", word))
	}
	if err != nil {
		log.Warn("Dictionary lookup failed", "word", word, "err", err)
		return reply(fmt.Sprintf("Sorry, I couldn't look up '%s'. Try another word.", word))
	}

	text := explain(def)
	hc.Display(text)
	return shown(text)
}

// explain renders at most three meanings with two senses each.
func explain(def lookup.Definition) string {
	lines := []string{fmt.Sprintf("📖 %s means:", capitalize(def.Word))}

	meanings := def.Meanings
	if len(meanings) > 3 {
		meanings = meanings[:3]
	}
	for _, m := range meanings {
		lines = append(lines, fmt.Sprintf("• As a %s:", m.PartOfSpeech))

		senses := m.Senses
		if len(senses) > 2 {
			senses = senses[:2]
		}
		for _, s := range senses {
			lines = append(lines, "  - "+s.Definition)
			if s.Example != "" {
				lines = append(lines, fmt.Sprintf("    Example: '%s'", s.Example))
			}
		}
	}

	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[n:])
}

func (h *handlers) lock(ctx context.Context, _ *Context, p intent.Params) Result {
	if p["confirm"] == "" {
		return reply("Please confirm you want to lock the computer")
	}

	err := h.System.Lock(ctx)
	switch {
	case err == nil:
		return reply("Computer locked successfully")
	case errors.Is(err, system.ErrUnsupported):
		return reply("Locking not supported on this OS")
	default:
		return reply(fmt.Sprintf("Failed to lock computer: %v", err))
	}
}

func (h *handlers) restart(ctx context.Context, _ *Context, p intent.Params) Result {
	if p["confirm"] == "" {
		return reply("Please confirm you want to restart the computer")
	}

	if err := h.System.Restart(ctx); err != nil {
		return reply(fmt.Sprintf("Failed to restart: %v", err))
	}
	return reply("Restarting computer now...")
}

func (h *handlers) shutdown(ctx context.Context, _ *Context, p intent.Params) Result {
	if p["confirm"] == "" {
		return reply("Please confirm you want to shutdown the computer")
	}

	if err := h.System.Shutdown(ctx); err != nil {
		return reply(fmt.Sprintf("Failed to shutdown: %v", err))
	}
	return reply("Shutting down computer now...")
}

func (h *handlers) weather(ctx context.Context, hc *Context, p intent.Params) Result {
	city := p["city"]
	if city == "" {
		return reply("Please specify a city (e.g., 'weather in London')")
	}

	w, err := h.Weather.Weather(ctx, city)
	if err != nil {
		log.Warn("Weather lookup failed", "city", city, "err", err)
		return reply(fmt.Sprintf("Couldn't get weather data for %s", city))
	}

	spoken := fmt.Sprintf("Current weather in %s: %s, %s°C, %s",
		city, w.Current.At.Format("Monday, January 02"), number(w.Current.TempC), w.Current.Description)

	var b strings.Builder
	fmt.Fprintf(&b, "🌦️ %s Weather Forecast:\n", city)
	for _, f := range w.Forecast {
		fmt.Fprintf(&b, "• %s: %s°C, %s\n", f.At.Format("Mon 15:04"), number(f.TempC), f.Description)
	}

	hc.Say(spoken)
	hc.Display(b.String())
	return shown(spoken)
}

func (h *handlers) news(ctx context.Context, hc *Context, _ intent.Params) Result {
	list, err := h.News.Headlines(ctx)
	if errors.Is(err, lookup.ErrNoNews) {
		return reply("Couldn't fetch news at the moment")
	}
	if err != nil {
		log.Warn("News lookup failed", "err", err)
		return reply("Failed to fetch news updates")
	}

	const intro = "🌍 Top Global News Headlines:"

	items := make([]string, 0, len(list))
	for _, a := range list {
		desc := a.Description
		if desc == "" {
			desc = "No description available"
		}
		desc, _, _ = strings.Cut(desc, ".")
		items = append(items, fmt.Sprintf("📰 %s\n   - %s\n   - Source: %s\n", a.Title, desc, a.Source))
	}

	hc.Say(intro)
	hc.Display(intro + "\n" + strings.Join(items, "\n"))
	return shown(intro)
}

func (h *handlers) convert(_ context.Context, _ *Context, p intent.Params) Result {
	raw, from, to := p["value"], p["from"], p["to"]
	if raw == "" || from == "" || to == "" {
		return reply(convertUsage)
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return reply("Invalid number")
	}

	result, err := units.Convert(value, from, to)
	if err != nil {
		return reply(err.Error())
	}

	return reply(fmt.Sprintf("%s %s = %.2f %s", decimal(value), from, result, to))
}

// number prints a float without trailing zeros: 7.5, 8, -0.25.
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// decimal always keeps a fractional part: 5.0, 2.5.
func decimal(v float64) string {
	s := number(v)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
