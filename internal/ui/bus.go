package ui

import (
	"encoding/json"
	"fmt"
	log "log/slog"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// Bus forwards events to a remote display over a websocket.
type Bus struct {
	mu   sync.Mutex
	conn *websocket.Conn
	url  string
}

type busMessage struct {
	From    string `json:"from"`
	Kind    Kind   `json:"kind"`
	Session string `json:"session"`
	Content string `json:"content"`
	At      int64  `json:"at"`
}

func DialBus(wsURL string) (*Bus, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse bus url: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial bus: %w", err)
	}

	log.Info("Connected to bus", "url", wsURL)
	return &Bus{conn: conn, url: wsURL}, nil
}

func (b *Bus) Handle(ev Event) error {
	data, err := json.Marshal(busMessage{
		From:    "vassist",
		Kind:    ev.Kind,
		Session: ev.Session,
		Content: ev.Text,
		At:      ev.At.UnixMilli(),
	})
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		if err = b.conn.WriteMessage(websocket.TextMessage, data); err == nil {
			return nil
		}
		log.Warn("Bus write failed, redialing", "url", b.url, "err", err)
		b.conn.Close()
		b.conn = nil
	}

	// One redial per event; the queue must keep moving.
	conn, _, err := websocket.DefaultDialer.Dial(b.url, nil)
	if err != nil {
		return fmt.Errorf("redial bus: %w", err)
	}
	b.conn = conn

	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return nil
	}
	_ = b.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return b.conn.Close()
}
