package main

import (
	"context"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"vassist/internal/audio"
	"vassist/internal/config"
	"vassist/internal/convlog"
	"vassist/internal/handler"
	"vassist/internal/intent"
	"vassist/internal/ipc"
	"vassist/internal/lookup"
	"vassist/internal/notify"
	"vassist/internal/proxy"
	"vassist/internal/session"
	"vassist/internal/speech"
	"vassist/internal/store"
	"vassist/internal/system"
	"vassist/internal/tts"
	"vassist/internal/ui"
	"vassist/pkg/audioconv"
	"vassist/pkg/stt"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Error("Bad configuration", "err", err)
		os.Exit(2)
	}

	config.SetupLogging(cfg.Level())

	log.Info("Booting up")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Error("Failed to open database", "path", cfg.DBPath, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	log.Debug("Loaded database")

	httpClient, err := proxy.NewClient(cfg.Proxy, 0)
	if err != nil {
		log.Error("Failed to set up proxy", "proxy", cfg.Proxy, "err", err)
		os.Exit(1)
	}

	handlers := handler.NewRegistry(newServices(cfg, httpClient, system.ExecRunner{}))
	matcher := intent.NewMatcher(intent.DefaultRules())

	queue := ui.NewQueue(64)
	sinks := []ui.Sink{ui.NewConsole(os.Stdout)}
	if cfg.BusURL != "" {
		bus, err := ui.DialBus(cfg.BusURL)
		if err != nil {
			log.Warn("Bus unavailable, console only", "url", cfg.BusURL, "err", err)
		} else {
			defer bus.Close()
			sinks = append(sinks, bus)
		}
	}
	go queue.Run(ctx, sinks...)

	espeak, err := tts.New(cfg.Language)
	if err != nil {
		log.Error("Failed to init speech synthesis", "err", err)
		os.Exit(1)
	}
	defer espeak.Close()

	var duck speech.Ducker
	if cfg.Duck {
		duck = audio.NewDucker([]string{"vassist", "espeak-ng", "eSpeak"}, 10)
	}
	voice := speech.NewVoice(espeak, duck)

	log.Debug("Loaded voice")

	var (
		checkMic  func() error
		newSource func() speech.Source
	)
	if len(cfg.Inputs) > 0 {
		newSource = func() speech.Source { return audioconv.NewFileSource(cfg.Inputs...) }
	} else {
		rec := audio.NewRecorder()
		if err := rec.Init(); err != nil {
			log.Error("Failed to init audio", "err", err)
			os.Exit(1)
		}
		defer rec.Close()

		checkMic = rec.CheckInput
		newSource = func() speech.Source { return rec }
	}

	log.Debug("Loaded audio input", "files", len(cfg.Inputs))

	recognizer, err := stt.New(cfg.Model, stt.Options{Language: cfg.Language})
	if err != nil {
		log.Error("Failed to init whisper", "model", cfg.Model, "err", err)
		os.Exit(1)
	}
	defer recognizer.Close()

	log.Debug("Loaded whisper")

	transcript := convlog.New(db)

	factory := func(ctx context.Context, sessionID string) (*session.Loop, error) {
		if err := db.EnsureUser(ctx, sessionID, ""); err != nil {
			return nil, err
		}
		applySpeed(ctx, db, voice, sessionID)

		listener := speech.NewTranscriber(speech.Config{
			Source:       newSource(),
			Recognizer:   recognizer,
			Post:         queue.Post,
			SessionID:    sessionID,
			Cue:          cue(ctx, cfg.Beep),
			StartTimeout: cfg.ListenTimeout,
			PhraseLimit:  cfg.PhraseLimit,
		})

		return session.New(session.Config{
			SessionID:      sessionID,
			Listener:       listener,
			Matcher:        matcher,
			Handlers:       handlers,
			Log:            transcript,
			Voice:          voice,
			Post:           queue.Post,
			HandlerTimeout: cfg.HandlerTimeout,
		}), nil
	}

	manager := session.NewManager(ctx, checkMic, factory)
	defer manager.Stop()

	srv, err := ipc.Listen(cfg.Socket)
	if err != nil {
		log.Error("Failed to open control socket", "socket", cfg.Socket, "err", err)
		os.Exit(1)
	}
	defer srv.Close()

	ctl := &control{
		manager:  manager,
		store:    db,
		voice:    voice,
		fallback: cfg.SessionID(),
	}
	go func() {
		if err := srv.Serve(ctx, ctl.handle); err != nil {
			log.Error("Control socket failed", "err", err)
		}
	}()

	runID, err := manager.Start(ctx, cfg.SessionID())
	if err != nil {
		log.Error("Failed to start session", "session", cfg.SessionID(), "err", err)
		os.Exit(1)
	}

	log.Info("Boot up - successful", "session", cfg.SessionID(), "run", runID, "socket", cfg.Socket)

	if len(cfg.Inputs) > 0 {
		// replayed input ends the daemon once the files are used up
		select {
		case <-manager.Done():
		case <-ctx.Done():
		}
	} else {
		<-ctx.Done()
	}

	log.Info("Shutting down")
}

// wikiSentences is how many summary sentences a Wikipedia answer keeps.
const wikiSentences = 3

func newServices(cfg config.Config, hc *http.Client, runner system.Runner) handler.Services {
	services := handler.Services{
		Weather:    &lookup.OpenWeather{HTTP: hc, APIKey: cfg.WeatherKey},
		News:       &lookup.NewsAPI{HTTP: hc, APIKey: cfg.NewsKey},
		Dictionary: &lookup.Dictionary{HTTP: hc},
		Wikipedia:  &lookup.Wikipedia{HTTP: hc, Sentences: wikiSentences},
		System:     system.New(runner),
	}
	if cfg.Chat {
		services.Chat = lookup.NewChat(cfg.OpenAIKey, hc)
		log.Debug("Chat fallback enabled")
	}
	if cfg.WeatherKey == "" {
		log.Warn("OPENWEATHER_API_KEY not set, weather requests will fail")
	}
	if cfg.NewsKey == "" {
		log.Warn("NEWSAPI_KEY not set, news requests will fail")
	}
	return services
}

func applySpeed(ctx context.Context, db *store.Store, voice *speech.Voice, sessionID string) {
	speed, err := db.VoiceSpeed(ctx, sessionID)
	if err != nil {
		log.Warn("Voice speed unavailable, using default", "session", sessionID, "err", err)
	}
	if err := voice.SetRate(speed.WordsPerMinute()); err != nil {
		log.Warn("Failed to set voice rate", "speed", speed, "err", err)
	}
}

// cue returns the pre-capture hook: a beep if configured, and a desktop
// notification. Neither failure blocks listening.
func cue(ctx context.Context, beepPath string) func() {
	return func() {
		if beepPath != "" {
			if err := notify.Beep(beepPath); err != nil {
				log.Debug("Beep failed", "err", err)
			}
		}
		if err := notify.Desktop(ctx, "Listening..."); err != nil {
			log.Debug("Desktop notification failed", "err", err)
		}
	}
}
