package handler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vassist/internal/intent"
	"vassist/internal/lookup"
	"vassist/internal/system"
	"vassist/internal/ui"
)

var noon = time.Date(2025, time.December, 15, 12, 0, 0, 0, time.UTC)

type fakeSystem struct {
	calls []string
	err   error
}

func (f *fakeSystem) OpenApp(_ context.Context, name string) error {
	f.calls = append(f.calls, "open "+name)
	return f.err
}

func (f *fakeSystem) Search(_ context.Context, q string) error {
	f.calls = append(f.calls, "search "+q)
	return f.err
}

func (f *fakeSystem) Lock(context.Context) error {
	f.calls = append(f.calls, "lock")
	return f.err
}

func (f *fakeSystem) Restart(context.Context) error {
	f.calls = append(f.calls, "restart")
	return f.err
}

func (f *fakeSystem) Shutdown(context.Context) error {
	f.calls = append(f.calls, "shutdown")
	return f.err
}

type fakeWeather struct {
	w   lookup.Weather
	err error
}

func (f fakeWeather) Weather(context.Context, string) (lookup.Weather, error) { return f.w, f.err }

type fakeNews struct {
	list []lookup.Headline
	err  error
}

func (f fakeNews) Headlines(context.Context) ([]lookup.Headline, error) { return f.list, f.err }

type fakeDictionary struct {
	def lookup.Definition
	err error
}

func (f fakeDictionary) Define(context.Context, string) (lookup.Definition, error) { return f.def, f.err }

type fakeWiki struct {
	text string
	err  error
}

func (f fakeWiki) Summary(context.Context, string) (string, error) { return f.text, f.err }

type fakeChat struct {
	answer string
	err    error
	asked  []string
}

func (f *fakeChat) Ask(_ context.Context, text string) (string, error) {
	f.asked = append(f.asked, text)
	return f.answer, f.err
}

type recorder struct {
	events []ui.Event
}

func (r *recorder) post(ev ui.Event) { r.events = append(r.events, ev) }

func (r *recorder) kinds() []ui.Kind {
	var out []ui.Kind
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func newRegistry(s Services) *Registry {
	if s.Now == nil {
		s.Now = func() time.Time { return noon }
	}
	return NewRegistry(s)
}

func invoke(r *Registry, id intent.ID, p intent.Params) (Result, *recorder) {
	rec := &recorder{}
	res := r.Invoke(context.Background(), &Context{SessionID: "s1", Post: rec.post}, intent.Match{Intent: id, Params: p})
	return res, rec
}

func TestFixedReplies(t *testing.T) {
	r := newRegistry(Services{})

	tests := []struct {
		id   intent.ID
		want string
		next Continuation
	}{
		{intent.Greeting, "Hello! How can I help you today?", Continue},
		{intent.Presence, "I am in your service", Continue},
		{intent.LocalTime, "The current time is 12:00", Continue},
		{intent.Date, "Today's date is December 15, 2025", Continue},
		{intent.Exit, "Goodbye! Have a nice day.", Terminate},
		{intent.Unknown, "I'm not sure how to help with that. Could you try asking something else?", Continue},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			res, _ := invoke(r, tt.id, nil)
			assert.Equal(t, Result{Response: tt.want, Next: tt.next}, res)
		})
	}
}

func TestUnregisteredIntentFallsBackToUnknown(t *testing.T) {
	r := newRegistry(Services{})

	res, _ := invoke(r, intent.ID("teleport"), nil)
	assert.Equal(t, unknownReply, res.Response)
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	r := newRegistry(Services{})
	r.Register(intent.Greeting, func(context.Context, *Context, intent.Params) Result {
		panic("boom")
	})

	res, _ := invoke(r, intent.Greeting, nil)
	assert.Equal(t, Result{Response: "Sorry, something went wrong: boom", Next: Continue}, res)
}

func TestPowerRequiresConfirmation(t *testing.T) {
	sys := &fakeSystem{}
	r := newRegistry(Services{System: sys})

	res, _ := invoke(r, intent.Shutdown, intent.Params{})
	assert.Equal(t, "Please confirm you want to shutdown the computer", res.Response)
	res, _ = invoke(r, intent.Restart, intent.Params{})
	assert.Equal(t, "Please confirm you want to restart the computer", res.Response)
	assert.Empty(t, sys.calls)

	res, _ = invoke(r, intent.Shutdown, intent.Params{"confirm": "true"})
	assert.Equal(t, "Shutting down computer now...", res.Response)
	res, _ = invoke(r, intent.Restart, intent.Params{"confirm": "true"})
	assert.Equal(t, "Restarting computer now...", res.Response)
	assert.Equal(t, []string{"shutdown", "restart"}, sys.calls)
}

func TestLock(t *testing.T) {
	sys := &fakeSystem{}
	r := newRegistry(Services{System: sys})

	res, _ := invoke(r, intent.Lock, intent.Params{})
	assert.Equal(t, "Please confirm you want to lock the computer", res.Response)
	assert.Empty(t, sys.calls)

	res, _ = invoke(r, intent.Lock, intent.Params{"confirm": "true"})
	assert.Equal(t, "Computer locked successfully", res.Response)
	assert.Equal(t, []string{"lock"}, sys.calls)

	res, _ = invoke(newRegistry(Services{System: &fakeSystem{err: system.ErrUnsupported}}), intent.Lock, intent.Params{"confirm": "true"})
	assert.Equal(t, "Locking not supported on this OS", res.Response)
}

func TestLockUtteranceNeedsConfirm(t *testing.T) {
	sys := &fakeSystem{}
	r := newRegistry(Services{System: sys})
	m := intent.NewMatcher(intent.DefaultRules())

	res := r.Invoke(context.Background(), &Context{SessionID: "s1"}, m.Classify("lock computer"))
	assert.Equal(t, "Please confirm you want to lock the computer", res.Response)
	assert.Empty(t, sys.calls)

	res = r.Invoke(context.Background(), &Context{SessionID: "s1"}, m.Classify("lock computer confirm"))
	assert.Equal(t, "Computer locked successfully", res.Response)
	assert.Equal(t, []string{"lock"}, sys.calls)
}

func TestOpenApp(t *testing.T) {
	sys := &fakeSystem{}
	res, _ := invoke(newRegistry(Services{System: sys}), intent.OpenApp, intent.Params{"app": "calculator"})
	assert.Equal(t, "Opening calculator", res.Response)
	assert.Equal(t, []string{"open calculator"}, sys.calls)

	sys = &fakeSystem{err: system.ErrNotFound}
	res, _ = invoke(newRegistry(Services{System: sys}), intent.OpenApp, intent.Params{"app": "gimp"})
	assert.Equal(t, "Couldn't find gimp on this system", res.Response)

	sys = &fakeSystem{err: errors.New("permission denied")}
	res, _ = invoke(newRegistry(Services{System: sys}), intent.OpenApp, intent.Params{"app": "gimp"})
	assert.Equal(t, "Sorry, I couldn't open gimp. Error: permission denied", res.Response)
}

func TestWebSearch(t *testing.T) {
	sys := &fakeSystem{}
	r := newRegistry(Services{System: sys})

	res, _ := invoke(r, intent.WebSearch, intent.Params{"query": ""})
	assert.Equal(t, Result{}, res)
	assert.Empty(t, sys.calls)

	res, _ = invoke(r, intent.WebSearch, intent.Params{"query": "cats"})
	assert.Equal(t, "Searching the web for cats", res.Response)

	sys.err = errors.New("no browser")
	res, _ = invoke(r, intent.WebSearch, intent.Params{"query": "cats"})
	assert.Equal(t, "I couldn't perform the search. Please try again.", res.Response)
}

func TestConvert(t *testing.T) {
	r := newRegistry(Services{})

	tests := []struct {
		name string
		p    intent.Params
		want string
	}{
		{"length", intent.Params{"value": "5", "from": "km", "to": "m"}, "5.0 km = 5000.00 m"},
		{"temperature", intent.Params{"value": "100", "from": "c", "to": "f"}, "100.0 c = 212.00 f"},
		{"fraction", intent.Params{"value": "2.5", "from": "kg", "to": "g"}, "2.5 kg = 2500.00 g"},
		{"cross family", intent.Params{"value": "1", "from": "km", "to": "kg"}, "Unsupported unit conversion"},
		{"no match", intent.Params{}, convertUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := invoke(r, intent.Convert, tt.p)
			assert.Equal(t, tt.want, res.Response)
		})
	}
}

func TestWeather(t *testing.T) {
	at := time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)
	w := lookup.Weather{
		City:    "London",
		Current: lookup.Conditions{At: at, TempC: 7.5, Description: "light rain"},
		Forecast: []lookup.Conditions{
			{At: at.Add(3 * time.Hour), TempC: 8, Description: "overcast clouds"},
		},
	}
	r := newRegistry(Services{Weather: fakeWeather{w: w}})

	res, rec := invoke(r, intent.Weather, intent.Params{"city": "London"})
	assert.Equal(t, Suppress, res.Next)
	assert.Equal(t, "Current weather in London: Wednesday, January 15, 7.5°C, light rain", res.Response)
	require.Equal(t, []ui.Kind{ui.KindBot, ui.KindDisplay}, rec.kinds())
	assert.Equal(t, "🌦️ London Weather Forecast:\n• Wed 12:00: 8°C, overcast clouds\n", rec.events[1].Text)
	assert.Equal(t, "s1", rec.events[1].Session)

	res, _ = invoke(r, intent.Weather, intent.Params{"city": ""})
	assert.Equal(t, "Please specify a city (e.g., 'weather in London')", res.Response)

	r = newRegistry(Services{Weather: fakeWeather{err: lookup.ErrNotFound}})
	res, _ = invoke(r, intent.Weather, intent.Params{"city": "Atlantis"})
	assert.Equal(t, "Couldn't get weather data for Atlantis", res.Response)
}

func TestNews(t *testing.T) {
	r := newRegistry(Services{News: fakeNews{list: []lookup.Headline{
		{Title: "Rates hold", Description: "Central bank waits. Markets calm.", Source: "Wire"},
		{Title: "Storm ahead", Source: "Post"},
	}}})

	res, rec := invoke(r, intent.News, nil)
	assert.Equal(t, Result{Response: "🌍 Top Global News Headlines:", Next: Suppress}, res)
	require.Len(t, rec.events, 2)
	assert.Equal(t, "🌍 Top Global News Headlines:\n"+
		"📰 Rates hold\n   - Central bank waits\n   - Source: Wire\n"+
		"\n"+
		"📰 Storm ahead\n   - No description available\n   - Source: Post\n", rec.events[1].Text)

	res, _ = invoke(newRegistry(Services{News: fakeNews{err: lookup.ErrNoNews}}), intent.News, nil)
	assert.Equal(t, "Couldn't fetch news at the moment", res.Response)

	res, _ = invoke(newRegistry(Services{News: fakeNews{err: errors.New("dial tcp")}}), intent.News, nil)
	assert.Equal(t, "Failed to fetch news updates", res.Response)
}

func TestWikipedia(t *testing.T) {
	tests := []struct {
		name string
		wiki fakeWiki
		q    string
		want string
		next Continuation
	}{
		{"summary", fakeWiki{text: "A mathematician."}, "Alan Turing", "📚 Wikipedia summary for 'Alan Turing':\n\nA mathematician.", Suppress},
		{"empty", fakeWiki{}, "", "What would you like me to search on Wikipedia?", Continue},
		{"ambiguous", fakeWiki{err: lookup.ErrAmbiguous}, "Mercury", "Multiple options found. Please be more specific.", Continue},
		{"missing", fakeWiki{err: lookup.ErrNotFound}, "Qwzx", "No Wikipedia page found. Try a different search.", Continue},
		{"error", fakeWiki{err: errors.New("timeout")}, "Go", "Search error: timeout", Continue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := invoke(newRegistry(Services{Wikipedia: tt.wiki}), intent.Wikipedia, intent.Params{"query": tt.q})
			assert.Equal(t, Result{Response: tt.want, Next: tt.next}, res)
		})
	}
}

func TestDefine(t *testing.T) {
	def := lookup.Definition{Word: "serendipity", Meanings: []lookup.Meaning{{
		PartOfSpeech: "noun",
		Senses: []lookup.Sense{
			{Definition: "Luck in finding things.", Example: "pure serendipity"},
			{Definition: "A fortunate discovery."},
			{Definition: "Dropped."},
		},
	}}}

	res, rec := invoke(newRegistry(Services{Dictionary: fakeDictionary{def: def}}), intent.Define, intent.Params{"word": "serendipity"})
	want := strings.Join([]string{
		"📖 Serendipity means:",
		"• As a noun:",
		"  - Luck in finding things.",
		"    Example: 'pure serendipity'",
		"  - A fortunate discovery.",
	}, "\n")
	assert.Equal(t, Result{Response: want, Next: Suppress}, res)
	assert.Equal(t, []ui.Kind{ui.KindDisplay}, rec.kinds())

	res, _ = invoke(newRegistry(Services{Dictionary: fakeDictionary{err: lookup.ErrNotFound}}), intent.Define, intent.Params{"word": "qwzx"})
	assert.Equal(t, "Couldn't find a definition for 'qwzx'", res.Response)

	res, _ = invoke(newRegistry(Services{}), intent.Define, intent.Params{"word": ""})
	assert.Equal(t, "Please specify a word you'd like me to explain.", res.Response)
}

func TestWorldTime(t *testing.T) {
	r := newRegistry(Services{})

	res, rec := invoke(r, intent.WorldTime, intent.Params{"location": "london"})
	assert.Equal(t, Suppress, res.Next)
	assert.Equal(t, "⏰ Current time in London:\n\n• London: 12:00 PM (GMT)\n", res.Response)
	assert.Equal(t, []ui.Kind{ui.KindDisplay}, rec.kinds())

	res, _ = invoke(r, intent.WorldTime, intent.Params{"location": "atlantis"})
	assert.Equal(t, "I couldn't find time information for atlantis", res.Response)

	res, _ = invoke(r, intent.WorldTime, intent.Params{"location": ""})
	assert.True(t, strings.HasPrefix(res.Response, "⏰ Current World Times:\n\n• New York: 07:00 AM (EST)\n"))
}

func TestHolidays(t *testing.T) {
	r := newRegistry(Services{Countries: []string{"IN"}})

	res, _ := invoke(r, intent.Holidays, intent.Params{"month": "october"})
	assert.Equal(t, "📅 Holidays in October 2025:\n\n• Oct 02: Gandhi Jayanti\n", res.Response)

	res, _ = invoke(r, intent.Holidays, intent.Params{})
	assert.True(t, strings.HasPrefix(res.Response, "🗓️ Upcoming Global Holidays:\n\n• Jan 26: Republic Day\n"))

	res, _ = invoke(newRegistry(Services{Countries: []string{"XX"}}), intent.Holidays, intent.Params{})
	assert.Equal(t, "No holidays found for this period.", res.Response)
}

func TestUnknownUsesChat(t *testing.T) {
	chat := &fakeChat{answer: "Paris is the capital of France."}
	r := newRegistry(Services{Chat: chat})

	res := r.Invoke(context.Background(), &Context{}, intent.Match{Intent: intent.Unknown, Text: "capital of france"})
	assert.Equal(t, "Paris is the capital of France.", res.Response)
	assert.Equal(t, []string{"capital of france"}, chat.asked)

	chat.err = errors.New("rate limited")
	res = r.Invoke(context.Background(), &Context{}, intent.Match{Intent: intent.Unknown, Text: "capital of france"})
	assert.Equal(t, unknownReply, res.Response)
}
