// Package convlog records conversation turns. Persistence problems never
// reach the caller: a failed write is retried once and then dropped.
package convlog

import (
	"context"
	log "log/slog"
	"strings"
	"time"

	"vassist/internal/store"
)

type Appender interface {
	AppendConversation(ctx context.Context, c store.Conversation) error
}

type Logger struct {
	dst Appender
	now func() time.Time
}

func New(dst Appender) *Logger {
	return &Logger{dst: dst, now: time.Now}
}

// WithClock replaces the timestamp source.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now
	return l
}

// Record appends one turn and reports whether it was stored. Empty
// messages are skipped.
func (l *Logger) Record(ctx context.Context, sessionID string, speaker store.Speaker, message string) bool {
	message = strings.TrimSpace(message)
	if message == "" {
		return false
	}

	entry := store.Conversation{
		UserEmail: sessionID,
		Timestamp: l.now().UTC(),
		Speaker:   speaker,
		Message:   message,
	}

	err := l.dst.AppendConversation(ctx, entry)
	if err == nil {
		return true
	}

	log.Warn("Conversation write failed, retrying", "session", sessionID, "speaker", speaker, "err", err)

	if err = l.dst.AppendConversation(ctx, entry); err != nil {
		log.Error("Conversation entry dropped", "session", sessionID, "speaker", speaker, "err", err)
		return false
	}

	return true
}
