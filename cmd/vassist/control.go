package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"vassist/internal/handler"
	"vassist/internal/ipc"
	"vassist/internal/session"
	"vassist/internal/store"
)

type sessions interface {
	Start(ctx context.Context, sessionID string) (string, error)
	Stop() bool
	Ask(ctx context.Context, text string) (handler.Result, error)
	Status() session.Status
}

type history interface {
	Conversations(ctx context.Context, email string) ([]store.Conversation, error)
	SetVoiceSpeed(ctx context.Context, email string, v store.VoiceSpeed) error
}

type rater interface {
	SetRate(wpm int) error
}

// control answers requests from vassist-ctl.
type control struct {
	manager  sessions
	store    history
	voice    rater
	fallback string
}

func (c *control) handle(ctx context.Context, msg ipc.ControlMessage) ipc.Reply {
	switch msg.Cmd {
	case ipc.CmdStart:
		id := c.user(msg)
		runID, err := c.manager.Start(ctx, id)
		if err != nil {
			return ipc.Fail(err)
		}
		return ipc.Reply{OK: true, Text: fmt.Sprintf("session %s started (run %s)", id, runID)}

	case ipc.CmdStop:
		if !c.manager.Stop() {
			return ipc.Reply{OK: true, Text: "no session running"}
		}
		return ipc.Reply{OK: true, Text: "session stopped"}

	case ipc.CmdStatus:
		data, err := json.Marshal(c.manager.Status())
		if err != nil {
			return ipc.Fail(err)
		}
		return ipc.Reply{OK: true, Text: string(data)}

	case ipc.CmdAsk:
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			return ipc.Fail(errors.New("nothing to ask"))
		}
		res, err := c.manager.Ask(ctx, text)
		if err != nil {
			return ipc.Fail(err)
		}
		return ipc.Reply{OK: true, Text: res.Response}

	case ipc.CmdHistory:
		id := c.user(msg)
		convs, err := c.store.Conversations(ctx, id)
		if err != nil {
			return ipc.Fail(err)
		}
		lines := make([]string, 0, len(convs))
		for _, cv := range convs {
			lines = append(lines, fmt.Sprintf("%s %s: %s", cv.Timestamp.Local().Format(time.DateTime), cv.Speaker, cv.Message))
		}
		return ipc.Reply{OK: true, Lines: lines}

	case ipc.CmdSpeed:
		return c.speed(ctx, msg)
	}

	log.Warn("Unknown command", "cmd", msg.Cmd)
	return ipc.Fail(fmt.Errorf("unknown command %q", msg.Cmd))
}

func (c *control) speed(ctx context.Context, msg ipc.ControlMessage) ipc.Reply {
	v, err := store.ParseVoiceSpeed(strings.TrimSpace(msg.Text))
	if err != nil {
		return ipc.Fail(err)
	}

	id := c.user(msg)
	if err := c.store.SetVoiceSpeed(ctx, id, v); err != nil {
		return ipc.Fail(err)
	}

	// Only the live session's voice changes now; others pick it up at start.
	if st := c.manager.Status(); st.Running && st.SessionID == id {
		if err := c.voice.SetRate(v.WordsPerMinute()); err != nil {
			return ipc.Fail(err)
		}
	}

	return ipc.Reply{OK: true, Text: fmt.Sprintf("voice speed for %s set to %s", id, v)}
}

func (c *control) user(msg ipc.ControlMessage) string {
	if id := strings.TrimSpace(msg.User); id != "" {
		return id
	}
	if st := c.manager.Status(); st.SessionID != "" {
		return st.SessionID
	}
	return c.fallback
}
