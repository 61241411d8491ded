package system

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

var (
	ErrUnsupported = errors.New("not supported on this OS")
	ErrNotFound    = errors.New("application not found")
)

// Runner starts external programs.
type Runner interface {
	// Run waits for the command to finish.
	Run(ctx context.Context, name string, args ...string) error
	// Start launches the command and returns without waiting.
	Start(name string, args ...string) error
	LookPath(name string) (string, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (ExecRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Controller performs desktop actions with per-OS command strategies.
type Controller struct {
	goos   string
	runner Runner
}

func New(r Runner) *Controller {
	return NewFor(runtime.GOOS, r)
}

func NewFor(goos string, r Runner) *Controller {
	if r == nil {
		r = ExecRunner{}
	}
	return &Controller{goos: goos, runner: r}
}

// appKinds is checked in order; the first keyword found in the spoken
// name picks the application kind.
var appKinds = []struct {
	kind     string
	keywords []string
}{
	{"terminal", []string{"terminal"}},
	{"file manager", []string{"file", "explorer"}},
	{"browser", []string{"chrome", "browser", "firefox"}},
	{"calculator", []string{"calculator"}},
	{"text editor", []string{"editor"}},
	{"spotify", []string{"spotify"}},
}

// appCommands lists alternative command lines per kind and OS, tried in order.
var appCommands = map[string]map[string][][]string{
	"terminal": {
		"windows": {{"cmd.exe"}},
		"linux":   {{"gnome-terminal"}, {"x-terminal-emulator"}, {"konsole"}, {"xfce4-terminal"}},
		"darwin":  {{"open", "-a", "Terminal"}},
	},
	"file manager": {
		"windows": {{"explorer.exe"}},
		"linux":   {{"nautilus"}, {"dolphin"}, {"thunar"}},
		"darwin":  {{"open", "-a", "Finder"}},
	},
	"browser": {
		"windows": {{"cmd", "/c", "start", "chrome"}},
		"linux":   {{"google-chrome"}, {"firefox"}},
		"darwin":  {{"open", "-a", "Google Chrome"}},
	},
	"calculator": {
		"windows": {{"calc.exe"}},
		"linux":   {{"gnome-calculator"}, {"kcalc"}},
		"darwin":  {{"open", "-a", "Calculator"}},
	},
	"text editor": {
		"windows": {{"notepad.exe"}},
		"linux":   {{"gedit"}, {"kate"}, {"mousepad"}},
		"darwin":  {{"open", "-a", "TextEdit"}},
	},
	"spotify": {
		"windows": {{"spotify"}},
		"linux":   {{"spotify"}},
		"darwin":  {{"open", "-a", "Spotify"}},
	},
}

func appKind(name string) string {
	for _, k := range appKinds {
		for _, kw := range k.keywords {
			if strings.Contains(name, kw) {
				return k.kind
			}
		}
	}
	return ""
}

// OpenApp launches a known application, falling back to the desktop's
// generic opener for anything else.
func (c *Controller) OpenApp(ctx context.Context, name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ErrNotFound
	}

	if kind := appKind(name); kind != "" {
		for _, argv := range appCommands[kind][c.goos] {
			if _, err := c.runner.LookPath(argv[0]); err != nil {
				continue
			}
			if err := c.runner.Start(argv[0], argv[1:]...); err != nil {
				log.Debug("Launch failed", "cmd", argv[0], "err", err)
				continue
			}
			return nil
		}
	}

	opener, err := c.opener()
	if err != nil {
		return err
	}
	if err := c.runner.Run(ctx, opener[0], append(opener[1:], name)...); err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return nil
}

func (c *Controller) opener() ([]string, error) {
	switch c.goos {
	case "windows":
		return []string{"cmd", "/c", "start", ""}, nil
	case "darwin":
		return []string{"open"}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return []string{"xdg-open"}, nil
	default:
		return nil, ErrUnsupported
	}
}

func SearchURL(query string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(query)
}

// Search opens a web search for query in Chrome, or the default browser.
func (c *Controller) Search(ctx context.Context, query string) error {
	u := SearchURL(query)

	if c.goos == "linux" {
		if _, err := c.runner.LookPath("google-chrome"); err == nil {
			return c.runner.Start("google-chrome", u)
		}
	}

	opener, err := c.opener()
	if err != nil {
		return err
	}
	return c.runner.Start(opener[0], append(opener[1:], u)...)
}

func (c *Controller) Lock(ctx context.Context) error {
	switch c.goos {
	case "windows":
		return c.runner.Run(ctx, "rundll32.exe", "user32.dll,LockWorkStation")
	case "darwin":
		return c.runner.Run(ctx, "pmset", "displaysleepnow")
	case "linux":
		if err := c.runner.Run(ctx, "xdg-screensaver", "lock"); err != nil {
			log.Debug("xdg-screensaver lock failed, trying loginctl", "err", err)
			return c.runner.Run(ctx, "loginctl", "lock-session")
		}
		return nil
	default:
		return ErrUnsupported
	}
}

func (c *Controller) Shutdown(ctx context.Context) error {
	return c.power(ctx, "poweroff")
}

func (c *Controller) Restart(ctx context.Context) error {
	return c.power(ctx, "reboot")
}

func (c *Controller) power(ctx context.Context, action string) error {
	reboot := action == "reboot"

	switch c.goos {
	case "windows":
		flag := "/s"
		if reboot {
			flag = "/r"
		}
		return c.runner.Run(ctx, "shutdown", flag, "/t", "1")
	case "darwin":
		verb := "shut down"
		if reboot {
			verb = "restart"
		}
		return c.runner.Run(ctx, "osascript", "-e", fmt.Sprintf(`tell app "System Events" to %s`, verb))
	case "linux":
		if _, err := c.runner.LookPath("systemctl"); err == nil {
			return c.runner.Run(ctx, "systemctl", action)
		}
		flag := "-h"
		if reboot {
			flag = "-r"
		}
		return c.runner.Run(ctx, "shutdown", flag, "now")
	default:
		return ErrUnsupported
	}
}
