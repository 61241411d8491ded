package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"time"
)

const DefaultSocketPath = "/tmp/vassist.sock"

const (
	CmdStart   = "start"
	CmdStop    = "stop"
	CmdStatus  = "status"
	CmdAsk     = "ask"
	CmdHistory = "history"
	CmdSpeed   = "speed"
)

type ControlMessage struct {
	Cmd  string `json:"cmd"`
	User string `json:"user,omitempty"`
	Text string `json:"text,omitempty"`
}

type Reply struct {
	OK    bool     `json:"ok"`
	Error string   `json:"error,omitempty"`
	Text  string   `json:"text,omitempty"`
	Lines []string `json:"lines,omitempty"`
}

func Fail(err error) Reply {
	return Reply{Error: err.Error()}
}

type Handler func(ctx context.Context, msg ControlMessage) Reply

type Server struct {
	path string
	ln   net.Listener
}

// Listen binds the control socket, replacing a stale one.
func Listen(path string) (*Server, error) {
	if path == "" {
		path = DefaultSocketPath
	}
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	return &Server{path: path, ln: ln}, nil
}

// Serve answers one request per connection until ctx is done.
func (s *Server) Serve(ctx context.Context, h Handler) error {
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warn("Accept failed", "err", err)
			continue
		}
		go handleConn(ctx, conn, h)
	}
}

func (s *Server) Close() error {
	err := s.ln.Close()
	os.Remove(s.path)
	return err
}

func handleConn(ctx context.Context, conn net.Conn, h Handler) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Debug("Bad control message", "err", err)
		return
	}

	log.Debug("Control message", "cmd", msg.Cmd)

	reply := h(ctx, msg)
	if err := json.NewEncoder(conn).Encode(reply); err != nil {
		log.Debug("Reply failed", "err", err)
	}
}

// Send delivers msg and waits for the reply. timeout bounds the whole
// exchange; zero means no bound.
func Send(path string, msg ControlMessage, timeout time.Duration) (Reply, error) {
	if path == "" {
		path = DefaultSocketPath
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()

	if timeout > 0 {
		conn.SetDeadline(time.Now().Add(timeout))
	}

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return Reply{}, fmt.Errorf("send: %w", err)
	}

	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}

	return reply, nil
}
