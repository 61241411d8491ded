package speech

import (
	"context"
	log "log/slog"
	"sync"
	"time"
)

type Synthesizer interface {
	Speak(text string) error
	SetRate(wpm int) error
}

// Ducker lowers other audio streams while the assistant talks.
type Ducker interface {
	DuckOthers(ctx context.Context, factor float64, duration time.Duration) error
	UnduckOthers(ctx context.Context, duration time.Duration) error
}

// Voice serializes access to the process-wide speech engine.
type Voice struct {
	mu   sync.Mutex
	tts  Synthesizer
	duck Ducker
}

func NewVoice(tts Synthesizer, duck Ducker) *Voice {
	return &Voice{tts: tts, duck: duck}
}

func (v *Voice) SetRate(wpm int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.tts.SetRate(wpm)
}

func (v *Voice) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.duck != nil {
		if err := v.duck.DuckOthers(ctx, 0.2, 300*time.Millisecond); err != nil {
			log.Debug("Duck failed", "err", err)
		}
		defer func() {
			// Restore volume even if ctx is already done.
			if err := v.duck.UnduckOthers(context.WithoutCancel(ctx), 500*time.Millisecond); err != nil {
				log.Debug("Unduck failed", "err", err)
			}
		}()
	}

	return v.tts.Speak(text)
}
