package session

import (
	"context"
	"errors"
	"io"
	log "log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"vassist/internal/handler"
	"vassist/internal/intent"
	"vassist/internal/speech"
	"vassist/internal/store"
	"vassist/internal/ui"
)

var ErrStopped = errors.New("loop already ran")

type State int32

const (
	Idle State = iota
	Listening
	Processing
	Speaking
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Processing:
		return "processing"
	case Speaking:
		return "speaking"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type Listener interface {
	Listen(ctx context.Context) (speech.Utterance, error)
}

type Classifier interface {
	Classify(text string) intent.Match
}

type Dispatcher interface {
	Invoke(ctx context.Context, hc *handler.Context, m intent.Match) handler.Result
}

type Recorder interface {
	Record(ctx context.Context, sessionID string, speaker store.Speaker, message string) bool
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Config struct {
	SessionID string
	Listener  Listener
	Matcher   Classifier
	Handlers  Dispatcher
	Log       Recorder
	Voice     Speaker
	// Post receives transcript and display events. May be nil.
	Post func(ui.Event)
	// HandlerTimeout bounds a single handler call; zero means no bound.
	HandlerTimeout time.Duration
}

// Loop listens, dispatches and answers until told to stop or an exit
// intent is handled. A Loop runs at most once.
type Loop struct {
	cfg Config

	// mu serializes processing of utterances, spoken or typed.
	mu   sync.Mutex
	last string

	state   atomic.Int32
	ran     atomic.Bool
	stopped atomic.Bool

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

func New(cfg Config) *Loop {
	return &Loop{cfg: cfg}
}

func (l *Loop) SessionID() string {
	return l.cfg.SessionID
}

func (l *Loop) State() State {
	return State(l.state.Load())
}

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
}

// Stop asks the loop to finish. It is safe to call any number of times
// from any goroutine. A handler already running is allowed to complete.
func (l *Loop) Stop() {
	l.stopped.Store(true)

	l.cancelMu.Lock()
	defer l.cancelMu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
}

func (l *Loop) cancelled(ctx context.Context) bool {
	return l.stopped.Load() || ctx.Err() != nil
}

// Run blocks until the loop stops. It returns ErrStopped if the loop has
// already been run.
func (l *Loop) Run(ctx context.Context) error {
	if !l.ran.CompareAndSwap(false, true) {
		return ErrStopped
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.cancelMu.Lock()
	l.cancel = cancel
	l.cancelMu.Unlock()

	defer l.setState(Stopped)

	log.Info("Session started", "session", l.cfg.SessionID)
	defer log.Info("Session stopped", "session", l.cfg.SessionID)

	for !l.cancelled(ctx) {
		l.setState(Listening)

		u, err := l.cfg.Listener.Listen(ctx)
		switch {
		case errors.Is(err, io.EOF):
			log.Info("Input exhausted", "session", l.cfg.SessionID)
			return nil
		case l.cancelled(ctx):
			return nil
		case errors.Is(err, speech.ErrNoUtterance):
			continue
		case err != nil:
			log.Warn("Listen failed", "err", err)
			continue
		}

		if u.Text == l.lastText() {
			log.Debug("Repeated utterance dropped", "text", u.Text)
			continue
		}

		res, err := l.Process(ctx, u.Text)
		if err != nil || res.Next == handler.Terminate {
			return nil
		}
	}

	return nil
}

func (l *Loop) lastText() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// Process handles one command. Typed commands go through here as well and
// share the processing lock with the listening loop. A stopped loop
// rejects the command with ErrNotRunning before anything is logged.
func (l *Loop) Process(ctx context.Context, text string) (handler.Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return handler.Result{}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped.Load() {
		return handler.Result{}, ErrNotRunning
	}

	l.last = text
	l.setState(Processing)
	defer l.settle()

	l.post(ui.KindUser, text)
	l.record(ctx, store.SpeakerUser, text)

	m := l.cfg.Matcher.Classify(text)
	log.Debug("Classified", "intent", m.Intent, "params", m.Params)

	res := l.invoke(ctx, m)

	if res.Response != "" {
		l.record(ctx, store.SpeakerBot, res.Response)
	}

	if res.Next == handler.Terminate {
		defer l.Stop()
	}

	if l.cancelled(ctx) {
		return res, nil
	}

	l.setState(Speaking)

	if res.Next != handler.Suppress {
		l.post(ui.KindBot, res.Response)
	}

	if err := l.cfg.Voice.Speak(context.WithoutCancel(ctx), res.Response); err != nil {
		log.Warn("Speak failed", "err", err)
	}

	return res, nil
}

func (l *Loop) invoke(ctx context.Context, m intent.Match) handler.Result {
	// Stop must not abort a handler mid-flight.
	hctx := context.WithoutCancel(ctx)
	if l.cfg.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(hctx, l.cfg.HandlerTimeout)
		defer cancel()
	}

	start := time.Now()
	res := l.cfg.Handlers.Invoke(hctx, &handler.Context{SessionID: l.cfg.SessionID, Post: l.cfg.Post}, m)
	log.Debug("Handled", "intent", m.Intent, "next", res.Next, "took", time.Since(start))

	return res
}

// settle leaves Processing/Speaking once a command is done.
func (l *Loop) settle() {
	switch {
	case l.stopped.Load():
		l.setState(Stopped)
	case l.ran.Load():
		l.setState(Listening)
	default:
		l.setState(Idle)
	}
}

func (l *Loop) record(ctx context.Context, speaker store.Speaker, message string) {
	if l.cfg.Log == nil {
		return
	}
	l.cfg.Log.Record(context.WithoutCancel(ctx), l.cfg.SessionID, speaker, message)
}

func (l *Loop) post(kind ui.Kind, text string) {
	if l.cfg.Post == nil || text == "" {
		return
	}
	l.cfg.Post(ui.Event{Session: l.cfg.SessionID, Kind: kind, Text: text, At: time.Now()})
}
