package system

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	installed map[string]bool
	failRun   map[string]error
	runs      []string
	starts    []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.runs = append(f.runs, strings.Join(append([]string{name}, args...), " "))
	return f.failRun[name]
}

func (f *fakeRunner) Start(name string, args ...string) error {
	f.starts = append(f.starts, strings.Join(append([]string{name}, args...), " "))
	return nil
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.installed[name] {
		return "/usr/bin/" + name, nil
	}
	return "", errors.New("not found")
}

func TestOpenAppKnownKind(t *testing.T) {
	r := &fakeRunner{installed: map[string]bool{"konsole": true}}
	c := NewFor("linux", r)

	require.NoError(t, c.OpenApp(context.Background(), "Terminal"))
	assert.Equal(t, []string{"konsole"}, r.starts)
	assert.Empty(t, r.runs)
}

func TestOpenAppDarwin(t *testing.T) {
	r := &fakeRunner{installed: map[string]bool{"open": true}}
	c := NewFor("darwin", r)

	require.NoError(t, c.OpenApp(context.Background(), "spotify"))
	assert.Equal(t, []string{"open -a Spotify"}, r.starts)
}

func TestOpenAppFallsBackToOpener(t *testing.T) {
	r := &fakeRunner{}
	c := NewFor("linux", r)

	require.NoError(t, c.OpenApp(context.Background(), "gimp"))
	assert.Equal(t, []string{"xdg-open gimp"}, r.runs)
}

func TestOpenAppNotFound(t *testing.T) {
	r := &fakeRunner{failRun: map[string]error{"xdg-open": errors.New("exit status 4")}}
	c := NewFor("linux", r)

	err := c.OpenApp(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	r := &fakeRunner{installed: map[string]bool{"google-chrome": true}}
	c := NewFor("linux", r)

	require.NoError(t, c.Search(context.Background(), "go generics & you"))
	assert.Equal(t, []string{"google-chrome https://www.google.com/search?q=go+generics+%26+you"}, r.starts)
}

func TestLockFallsBackToLoginctl(t *testing.T) {
	r := &fakeRunner{failRun: map[string]error{"xdg-screensaver": errors.New("no screensaver")}}
	c := NewFor("linux", r)

	require.NoError(t, c.Lock(context.Background()))
	assert.Equal(t, []string{"xdg-screensaver lock", "loginctl lock-session"}, r.runs)
}

func TestPower(t *testing.T) {
	tests := []struct {
		name      string
		goos      string
		installed map[string]bool
		restart   bool
		want      string
	}{
		{"systemd poweroff", "linux", map[string]bool{"systemctl": true}, false, "systemctl poweroff"},
		{"systemd reboot", "linux", map[string]bool{"systemctl": true}, true, "systemctl reboot"},
		{"sysv halt", "linux", nil, false, "shutdown -h now"},
		{"windows restart", "windows", nil, true, "shutdown /r /t 1"},
		{"darwin shutdown", "darwin", nil, false, `osascript -e tell app "System Events" to shut down`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{installed: tt.installed}
			c := NewFor(tt.goos, r)

			var err error
			if tt.restart {
				err = c.Restart(context.Background())
			} else {
				err = c.Shutdown(context.Background())
			}
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, r.runs)
		})
	}
}

func TestUnsupportedOS(t *testing.T) {
	c := NewFor("plan9", &fakeRunner{})

	assert.ErrorIs(t, c.Lock(context.Background()), ErrUnsupported)
	assert.ErrorIs(t, c.Shutdown(context.Background()), ErrUnsupported)
	assert.ErrorIs(t, c.OpenApp(context.Background(), "gimp"), ErrUnsupported)
}
