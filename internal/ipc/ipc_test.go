package ipc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func socketPath(t *testing.T) string {
	t.Helper()
	// Unix socket paths are length-limited; keep it short.
	dir, err := os.MkdirTemp("", "vsk")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s")
}

func TestRoundTrip(t *testing.T) {
	path := socketPath(t)

	srv, err := Listen(path)
	require.NoError(t, err)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- srv.Serve(ctx, func(_ context.Context, msg ControlMessage) Reply {
			if msg.Cmd != CmdAsk {
				return Reply{Error: "unknown command " + msg.Cmd}
			}
			return Reply{OK: true, Text: "echo: " + msg.Text}
		})
	}()

	got, err := Send(path, ControlMessage{Cmd: CmdAsk, Text: "hello"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, Reply{OK: true, Text: "echo: hello"}, got)

	got, err = Send(path, ControlMessage{Cmd: "dance"}, time.Second)
	require.NoError(t, err)
	assert.False(t, got.OK)
	assert.Equal(t, "unknown command dance", got.Error)

	cancel()
	require.NoError(t, <-done)
}

func TestSendWithoutServer(t *testing.T) {
	_, err := Send(socketPath(t), ControlMessage{Cmd: CmdStatus}, time.Second)
	assert.Error(t, err)
}
