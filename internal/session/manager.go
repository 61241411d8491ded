package session

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"

	"github.com/google/uuid"

	"vassist/internal/handler"
)

var (
	ErrNoMicrophone = errors.New("no microphone available")
	ErrNotRunning   = errors.New("no session running")
)

// Factory builds the loop for a session.
type Factory func(ctx context.Context, sessionID string) (*Loop, error)

type Status struct {
	Running   bool   `json:"running"`
	SessionID string `json:"session_id,omitempty"`
	RunID     string `json:"run_id,omitempty"`
	State     string `json:"state"`
}

type run struct {
	id   string
	loop *Loop
	done chan struct{}
}

// Manager keeps at most one loop alive, since the microphone and the
// speech engine are shared by the whole process.
type Manager struct {
	base     context.Context
	checkMic func() error
	factory  Factory

	mu  sync.Mutex
	cur *run
}

// NewManager returns a manager whose loops live until base is done. checkMic
// checks the microphone before each start and may be nil.
func NewManager(base context.Context, checkMic func() error, factory Factory) *Manager {
	return &Manager{base: base, checkMic: checkMic, factory: factory}
}

// Start stops any running loop, waits for it to exit and starts a new one
// for sessionID. It returns the new run id.
func (m *Manager) Start(ctx context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	if m.checkMic != nil {
		if err := m.checkMic(); err != nil {
			return "", fmt.Errorf("%w: %v", ErrNoMicrophone, err)
		}
	}

	loop, err := m.factory(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("build session %s: %w", sessionID, err)
	}

	r := &run{id: uuid.NewString(), loop: loop, done: make(chan struct{})}
	go func() {
		defer close(r.done)
		if err := loop.Run(m.base); err != nil {
			log.Error("Session loop failed", "session", sessionID, "run", r.id, "err", err)
		}
	}()

	m.cur = r
	log.Info("Session run started", "session", sessionID, "run", r.id)

	return r.id, nil
}

// Stop stops the running loop and waits for it. It reports whether a loop
// was running.
func (m *Manager) Stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stopLocked()
}

func (m *Manager) stopLocked() bool {
	if m.cur == nil {
		return false
	}

	m.cur.loop.Stop()
	<-m.cur.done
	m.cur = nil

	return true
}

// Ask processes a typed command in the running session.
func (m *Manager) Ask(ctx context.Context, text string) (handler.Result, error) {
	m.mu.Lock()
	r := m.cur
	m.mu.Unlock()

	if r == nil || r.loop.State() == Stopped {
		return handler.Result{}, ErrNotRunning
	}

	return r.loop.Process(ctx, text)
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return Status{State: Idle.String()}
	}

	st := m.cur.loop.State()
	return Status{
		Running:   st != Stopped,
		SessionID: m.cur.loop.SessionID(),
		RunID:     m.cur.id,
		State:     st.String(),
	}
}

// Done is closed when the current loop exits. It is nil when nothing runs.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return nil
	}
	return m.cur.done
}
