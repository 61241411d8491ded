package worldtime

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type City struct {
	Name string
	Zone string
}

type CityTime struct {
	City string
	Time time.Time
}

// Cities is the known city table, in display order.
var Cities = []City{
	// Americas
	{"New York", "America/New_York"},
	{"Los Angeles", "America/Los_Angeles"},
	{"Toronto", "America/Toronto"},
	{"Chicago", "America/Chicago"},
	// Europe
	{"London", "Europe/London"},
	{"Paris", "Europe/Paris"},
	{"Berlin", "Europe/Berlin"},
	{"Rome", "Europe/Rome"},
	// Asia
	{"Tokyo", "Asia/Tokyo"},
	{"Delhi", "Asia/Kolkata"},
	{"Beijing", "Asia/Shanghai"},
	{"Dubai", "Asia/Dubai"},
	// Australia
	{"Sydney", "Australia/Sydney"},
	{"Melbourne", "Australia/Melbourne"},
}

var Regions = map[string][]string{
	"usa":       {"New York", "Los Angeles", "Chicago"},
	"canada":    {"Toronto"},
	"uk":        {"London"},
	"europe":    {"London", "Paris", "Berlin", "Rome"},
	"asia":      {"Tokyo", "Delhi", "Beijing", "Dubai"},
	"australia": {"Sydney", "Melbourne"},
}

// Layout renders a city time as "03:04 PM (CET)".
const Layout = "03:04 PM (MST)"

// Title renders a location the way the city table spells it.
func Title(s string) string {
	// Casers keep state, so each call gets its own.
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(s)))
}

// Lookup resolves a location (city or region keyword) to current times.
// An empty location yields every known city. An unknown location yields
// an empty result.
func Lookup(now time.Time, location string) ([]CityTime, error) {
	loc := strings.ToLower(strings.TrimSpace(location))

	var names []string
	switch {
	case loc == "":
		for _, c := range Cities {
			names = append(names, c.Name)
		}
	case Regions[loc] != nil:
		names = Regions[loc]
	default:
		t := Title(loc)
		if _, ok := zoneOf(t); ok {
			names = []string{t}
		}
	}

	out := make([]CityTime, 0, len(names))
	for _, name := range names {
		zone, _ := zoneOf(name)
		tz, err := time.LoadLocation(zone)
		if err != nil {
			return nil, fmt.Errorf("load zone %s: %w", zone, err)
		}
		out = append(out, CityTime{City: name, Time: now.In(tz)})
	}

	return out, nil
}

func zoneOf(city string) (string, bool) {
	for _, c := range Cities {
		if c.Name == city {
			return c.Zone, true
		}
	}
	return "", false
}
