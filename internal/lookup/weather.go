package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

const DefaultWeatherURL = "https://api.openweathermap.org/data/2.5"

type Conditions struct {
	At          time.Time
	TempC       float64
	Description string
}

type Weather struct {
	City     string
	Current  Conditions
	Forecast []Conditions
}

// OpenWeather queries the OpenWeatherMap current and forecast endpoints.
type OpenWeather struct {
	HTTP    *http.Client
	BaseURL string
	APIKey  string
	// Periods is the number of forecast entries requested.
	Periods int
}

func (w *OpenWeather) Weather(ctx context.Context, city string) (Weather, error) {
	base := w.BaseURL
	if base == "" {
		base = DefaultWeatherURL
	}
	periods := w.Periods
	if periods <= 0 {
		periods = 5
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("units", "metric")
	q.Set("appid", w.APIKey)

	cur, status, err := fetch(ctx, w.HTTP, base+"/weather?"+q.Encode())
	if err != nil {
		return Weather{}, fmt.Errorf("current weather: %w", err)
	}
	if status == http.StatusNotFound {
		return Weather{}, ErrNotFound
	}
	if status != http.StatusOK {
		return Weather{}, fmt.Errorf("current weather: %s", apiMessage(cur, status))
	}

	q.Set("cnt", fmt.Sprint(periods))
	fc, status, err := fetch(ctx, w.HTTP, base+"/forecast?"+q.Encode())
	if err != nil {
		return Weather{}, fmt.Errorf("forecast: %w", err)
	}
	if status != http.StatusOK {
		return Weather{}, fmt.Errorf("forecast: %s", apiMessage(fc, status))
	}

	out := Weather{City: city, Current: conditions(cur)}
	for _, e := range fc.Get("list").Array() {
		out.Forecast = append(out.Forecast, conditions(e))
	}

	return out, nil
}

func conditions(r gjson.Result) Conditions {
	return Conditions{
		At:          time.Unix(r.Get("dt").Int(), 0),
		TempC:       r.Get("main.temp").Float(),
		Description: r.Get("weather.0.description").String(),
	}
}

func apiMessage(r gjson.Result, status int) string {
	if m := r.Get("message").String(); m != "" {
		return fmt.Sprintf("status %d: %s", status, m)
	}
	return fmt.Sprintf("status %d", status)
}
