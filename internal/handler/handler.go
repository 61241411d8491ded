package handler

import (
	"context"
	"fmt"
	log "log/slog"
	"runtime/debug"
	"time"

	"vassist/internal/intent"
	"vassist/internal/ui"
)

// Continuation tells the dispatch loop what to do after a handler returns.
type Continuation int

const (
	// Continue: the loop displays, logs and speaks the response.
	Continue Continuation = iota
	// Terminate: the loop says the response and stops.
	Terminate
	// Suppress: the handler already put its output on the display; the
	// loop logs and speaks the response but does not display it again.
	Suppress
)

func (c Continuation) String() string {
	switch c {
	case Continue:
		return "continue"
	case Terminate:
		return "terminate"
	case Suppress:
		return "suppress"
	default:
		return fmt.Sprintf("continuation(%d)", int(c))
	}
}

type Result struct {
	Response string
	Next     Continuation
}

// Context is what a handler knows about the turn it serves.
type Context struct {
	SessionID string
	// Utterance is the trimmed text that was classified.
	Utterance string
	Post      func(ui.Event)
}

// Display posts display-only output for the current session.
func (c *Context) Display(text string) {
	c.post(ui.KindDisplay, text)
}

// Say posts a bot transcript line ahead of any display output.
func (c *Context) Say(text string) {
	c.post(ui.KindBot, text)
}

func (c *Context) post(kind ui.Kind, text string) {
	if c == nil || c.Post == nil || text == "" {
		return
	}
	c.Post(ui.Event{Session: c.SessionID, Kind: kind, Text: text, At: time.Now()})
}

type Func func(ctx context.Context, hc *Context, p intent.Params) Result

type Registry struct {
	handlers map[intent.ID]Func
}

// NewRegistry wires every intent to its default handler.
func NewRegistry(s Services) *Registry {
	h := &handlers{Services: s.withDefaults()}

	return &Registry{handlers: map[intent.ID]Func{
		intent.Greeting:  h.greeting,
		intent.LocalTime: h.localTime,
		intent.Date:      h.date,
		intent.Presence:  h.presence,
		intent.Holidays:  h.holidays,
		intent.WorldTime: h.worldTime,
		intent.OpenApp:   h.openApp,
		intent.WebSearch: h.webSearch,
		intent.Wikipedia: h.wikipedia,
		intent.Define:    h.define,
		intent.Lock:      h.lock,
		intent.Restart:   h.restart,
		intent.Shutdown:  h.shutdown,
		intent.Weather:   h.weather,
		intent.News:      h.news,
		intent.Convert:   h.convert,
		intent.Exit:      h.exit,
		intent.Unknown:   h.unknown,
	}}
}

// Register replaces the handler for id.
func (r *Registry) Register(id intent.ID, fn Func) {
	r.handlers[id] = fn
}

// Invoke runs the handler for m. A panicking handler is turned into an
// apology so the loop keeps running.
func (r *Registry) Invoke(ctx context.Context, hc *Context, m intent.Match) (res Result) {
	fn, ok := r.handlers[m.Intent]
	if !ok {
		fn = r.handlers[intent.Unknown]
	}

	turn := Context{Utterance: m.Text}
	if hc != nil {
		turn.SessionID = hc.SessionID
		turn.Post = hc.Post
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error("Handler panicked", "intent", m.Intent, "panic", p, "stack", string(debug.Stack()))
			res = Result{Response: fmt.Sprintf("Sorry, something went wrong: %v", p), Next: Continue}
		}
	}()

	params := m.Params
	if params == nil {
		params = intent.Params{}
	}

	return fn(ctx, &turn, params)
}
