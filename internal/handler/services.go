package handler

import (
	"context"
	"time"

	"vassist/internal/lookup"
	"vassist/pkg/holidays"
)

type WeatherService interface {
	Weather(ctx context.Context, city string) (lookup.Weather, error)
}

type NewsService interface {
	Headlines(ctx context.Context) ([]lookup.Headline, error)
}

type DictionaryService interface {
	Define(ctx context.Context, word string) (lookup.Definition, error)
}

type EncyclopediaService interface {
	Summary(ctx context.Context, query string) (string, error)
}

type ChatService interface {
	Ask(ctx context.Context, text string) (string, error)
}

// SystemService controls the local desktop.
type SystemService interface {
	OpenApp(ctx context.Context, name string) error
	Search(ctx context.Context, query string) error
	Lock(ctx context.Context) error
	Restart(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Services are the collaborators handlers call out to. Chat is optional.
type Services struct {
	Now        func() time.Time
	Weather    WeatherService
	News       NewsService
	Dictionary DictionaryService
	Wikipedia  EncyclopediaService
	Chat       ChatService
	System     SystemService
	// Countries whose holiday calendars are aggregated, in priority order.
	Countries []string
}

func (s Services) withDefaults() Services {
	if s.Now == nil {
		s.Now = time.Now
	}
	if len(s.Countries) == 0 {
		s.Countries = holidays.Countries
	}
	return s
}
