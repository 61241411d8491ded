package speech

import (
	"context"
	"errors"
	"io"
	log "log/slog"
	"strings"
	"time"

	"vassist/internal/ui"
)

// ErrNoUtterance covers every recoverable miss: silence, timeouts and
// audio the recognizer could not turn into text.
var ErrNoUtterance = errors.New("no utterance")

type Utterance struct {
	Text       string
	CapturedAt time.Time
}

// Source yields one phrase of 16 kHz mono samples. It returns io.EOF when
// it has nothing more to give.
type Source interface {
	Capture(ctx context.Context, startTimeout, phraseLimit time.Duration) ([]float32, error)
}

type Recognizer interface {
	Recognize(ctx context.Context, pcm []float32) (string, error)
}

type Config struct {
	Source     Source
	Recognizer Recognizer
	// Post receives the listening bracket events. May be nil.
	Post      func(ui.Event)
	SessionID string
	// Cue runs right before capture starts, e.g. a beep. May be nil.
	Cue          func()
	StartTimeout time.Duration
	PhraseLimit  time.Duration
}

type Transcriber struct {
	cfg Config
}

func NewTranscriber(cfg Config) *Transcriber {
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = 5 * time.Second
	}
	if cfg.PhraseLimit <= 0 {
		cfg.PhraseLimit = 10 * time.Second
	}
	return &Transcriber{cfg: cfg}
}

// Listen blocks for one phrase. The listening state is shown for exactly
// the duration of the call.
func (t *Transcriber) Listen(ctx context.Context) (u Utterance, err error) {
	t.post(ui.KindListening)
	defer t.post(ui.KindListeningDone)

	defer func() {
		if p := recover(); p != nil {
			log.Error("Listen panicked", "panic", p)
			u, err = Utterance{}, ErrNoUtterance
		}
	}()

	if t.cfg.Cue != nil {
		t.cfg.Cue()
	}

	pcm, err := t.cfg.Source.Capture(ctx, t.cfg.StartTimeout, t.cfg.PhraseLimit)
	switch {
	case errors.Is(err, io.EOF):
		return Utterance{}, io.EOF
	case ctx.Err() != nil:
		return Utterance{}, ctx.Err()
	case err != nil:
		log.Debug("Capture missed", "err", err)
		return Utterance{}, ErrNoUtterance
	case len(pcm) == 0:
		return Utterance{}, ErrNoUtterance
	}

	captured := time.Now()

	text, err := t.cfg.Recognizer.Recognize(ctx, pcm)
	if err != nil {
		if ctx.Err() != nil {
			return Utterance{}, ctx.Err()
		}
		log.Debug("Recognition failed", "err", err)
		return Utterance{}, ErrNoUtterance
	}

	text = Clean(text)
	if text == "" {
		log.Debug("Nothing recognized", "samples", len(pcm))
		return Utterance{}, ErrNoUtterance
	}

	log.Info("Transcribed", "text", text)
	return Utterance{Text: text, CapturedAt: captured}, nil
}

func (t *Transcriber) post(kind ui.Kind) {
	if t.cfg.Post == nil {
		return
	}
	t.cfg.Post(ui.Event{Session: t.cfg.SessionID, Kind: kind, At: time.Now()})
}

// whisper marks non-speech segments with bracketed tags.
var nonSpeech = []string{"[BLANK_AUDIO]", "[MUSIC]", "[NOISE]", "(silence)", "[SILENCE]"}

// Clean strips recognizer annotations and surrounding whitespace.
func Clean(text string) string {
	for _, tag := range nonSpeech {
		text = strings.ReplaceAll(text, tag, "")
	}
	return strings.Join(strings.Fields(text), " ")
}
