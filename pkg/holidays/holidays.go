// Package holidays aggregates public-holiday calendars for a fixed set of
// countries on top of rickar/cal.
package holidays

import (
	"sort"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/au"
	"github.com/rickar/cal/v2/br"
	"github.com/rickar/cal/v2/ca"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/it"
	"github.com/rickar/cal/v2/jp"
	"github.com/rickar/cal/v2/mx"
	"github.com/rickar/cal/v2/us"
	"github.com/rickar/cal/v2/za"
)

type Holiday struct {
	Name string
	Date time.Time
}

// Countries is the default aggregation order. When two countries share a
// holiday name the first one listed wins.
var Countries = []string{"US", "GB", "CA", "AU", "IN", "JP", "DE", "FR", "IT", "BR", "ZA", "MX"}

var calendars = map[string][]*cal.Holiday{
	"US": us.Holidays,
	"GB": gb.Holidays,
	"CA": ca.Holidays,
	"AU": au.Holidays,
	"IN": india,
	"JP": jp.Holidays,
	"DE": de.Holidays,
	"FR": fr.Holidays,
	"IT": it.Holidays,
	"BR": br.Holidays,
	"ZA": za.Holidays,
	"MX": mx.Holidays,
}

// India's gazetted fixed-date holidays. Lunar festivals move every year
// and are not listed.
var india = []*cal.Holiday{
	{Name: "Republic Day", Month: time.January, Day: 26, Func: cal.CalcDayOfMonth},
	{Name: "Ambedkar Jayanti", Month: time.April, Day: 14, Func: cal.CalcDayOfMonth},
	{Name: "Independence Day", Month: time.August, Day: 15, Func: cal.CalcDayOfMonth},
	{Name: "Gandhi Jayanti", Month: time.October, Day: 2, Func: cal.CalcDayOfMonth},
	{Name: "Christmas Day", Month: time.December, Day: 25, Func: cal.CalcDayOfMonth},
}

// ByMonth aggregates the calendars of countries for year, keeping holidays
// that fall in month (month 0 keeps the whole year). Holidays are
// de-duplicated by name and sorted by date, then name.
func ByMonth(countries []string, year int, month time.Month) []Holiday {
	sets := make([][]*cal.Holiday, 0, len(countries))
	for _, c := range countries {
		sets = append(sets, calendars[c])
	}
	return aggregate(sets, year, month)
}

func aggregate(sets [][]*cal.Holiday, year int, month time.Month) []Holiday {
	seen := make(map[string]bool)
	var out []Holiday

	for _, set := range sets {
		for _, h := range set {
			actual, _ := h.Calc(year)
			if actual.IsZero() {
				// not in effect that year
				continue
			}
			if month != 0 && actual.Month() != month {
				continue
			}
			if seen[h.Name] {
				continue
			}
			seen[h.Name] = true
			out = append(out, Holiday{
				Name: h.Name,
				Date: time.Date(year, actual.Month(), actual.Day(), 0, 0, 0, 0, time.UTC),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Name < out[j].Name
	})

	return out
}
