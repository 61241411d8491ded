package ui

import (
	"fmt"
	"io"
	"sync"
)

// Console writes the conversation transcript as plain lines.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Handle(ev Event) error {
	var line string
	switch ev.Kind {
	case KindListening:
		line = "Listening...\n"
	case KindListeningDone:
		return nil
	case KindUser:
		line = fmt.Sprintf("USER: %s\n", ev.Text)
	case KindBot:
		line = fmt.Sprintf("BOT: %s\n", ev.Text)
	case KindDisplay:
		line = ev.Text + "\n\n"
	default:
		line = fmt.Sprintf("[%s] %s\n", ev.Kind, ev.Text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := io.WriteString(c.w, line)
	return err
}
