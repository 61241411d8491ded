package config

import (
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

type Config struct {
	EnvFile  string
	LogLevel string
	Proxy    string
	DBPath   string
	Socket   string
	Model    string
	Language string
	User     string
	Inputs   []string
	BusURL   string
	Duck     bool
	Beep     string

	ListenTimeout  time.Duration
	PhraseLimit    time.Duration
	HandlerTimeout time.Duration
	Chat           bool

	WeatherKey string
	NewsKey    string
	OpenAIKey  string
}

// SessionID is the identity conversations are filed under.
func (c Config) SessionID() string {
	if c.User == "" {
		return "guest"
	}
	return c.User
}

func (c Config) Level() log.Level {
	return logLevelMap[c.LogLevel]
}

// Load parses args (without the program name), then reads the env file and
// the environment. A missing env file is not an error.
func Load(args []string) (Config, error) {
	var c Config

	fs := cli.NewFlagSet("vassist", cli.ContinueOnError)
	fs.StringVarP(&c.EnvFile, "env", "e", ".env", "Env file path")
	fs.StringVarP(&c.LogLevel, "log", "l", "info", "Log level (debug|info|warn|error)")
	fs.StringVarP(&c.Proxy, "proxy", "p", "", "Socks proxy address for outbound HTTP")
	fs.StringVar(&c.DBPath, "db", "vassist.db", "SQLite database path")
	fs.StringVar(&c.Socket, "socket", "/tmp/vassist.sock", "Control socket path")
	fs.StringVar(&c.Model, "model", "models/ggml-base.en.bin", "Whisper model path")
	fs.StringVar(&c.Language, "lang", "en", "Recognition language")
	fs.StringVarP(&c.User, "user", "u", "", "User email; empty for a guest session")
	fs.StringArrayVar(&c.Inputs, "input", nil, "Audio file to use instead of the microphone (repeatable)")
	fs.StringVar(&c.BusURL, "bus", "", "Websocket URL to forward UI events to")
	fs.BoolVar(&c.Duck, "duck", false, "Lower other audio streams while speaking")
	fs.StringVar(&c.Beep, "beep", "", "MP3 played when listening starts")
	fs.DurationVar(&c.ListenTimeout, "listen-timeout", 5*time.Second, "How long to wait for speech to start")
	fs.DurationVar(&c.PhraseLimit, "phrase-limit", 10*time.Second, "Longest phrase captured")
	fs.DurationVar(&c.HandlerTimeout, "handler-timeout", 0, "Bound on a single command handler; 0 disables")
	fs.BoolVar(&c.Chat, "chat", false, "Answer unknown requests with the OpenAI chat model")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(c.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env %s: %w", c.EnvFile, err)
	}

	c.WeatherKey = os.Getenv("OPENWEATHER_API_KEY")
	c.NewsKey = os.Getenv("NEWSAPI_KEY")
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.User = strings.TrimSpace(c.User)

	return c, c.validate()
}

func (c Config) validate() error {
	if _, ok := logLevelMap[c.LogLevel]; !ok {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.ListenTimeout < 0 || c.PhraseLimit < 0 || c.HandlerTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	if c.Chat && c.OpenAIKey == "" {
		return errors.New("--chat requires OPENAI_API_KEY")
	}
	return nil
}

// SetupLogging installs the tint handler as the default logger.
func SetupLogging(level log.Level) {
	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})))
}
