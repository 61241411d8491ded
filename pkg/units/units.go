package units

import (
	"errors"
	"strings"
)

var ErrUnsupported = errors.New("Unsupported unit conversion")

// Factors to the family base unit: meters, grams, liters.
var (
	length = map[string]float64{
		"mm": 0.001,
		"cm": 0.01,
		"m":  1.0,
		"km": 1000.0,
		"in": 0.0254,
		"ft": 0.3048,
		"yd": 0.9144,
		"mi": 1609.34,
	}

	weight = map[string]float64{
		"mg":  0.001,
		"g":   1.0,
		"kg":  1000.0,
		"oz":  28.3495,
		"lb":  453.592,
		"ton": 907185,
	}

	volume = map[string]float64{
		"ml":    0.001,
		"l":     1.0,
		"gal":   3.78541,
		"qt":    0.946353,
		"pt":    0.473176,
		"cup":   0.24,
		"fl-oz": 0.0295735,
	}

	families = []map[string]float64{length, weight, volume}
)

var aliases = map[string]string{
	// length
	"millimeter": "mm", "millimeters": "mm", "millimetre": "mm", "millimetres": "mm",
	"centimeter": "cm", "centimeters": "cm", "centimetre": "cm", "centimetres": "cm",
	"meter": "m", "meters": "m", "metre": "m", "metres": "m",
	"kilometer": "km", "kilometers": "km", "kilometre": "km", "kilometres": "km",
	"inch": "in", "inches": "in",
	"foot": "ft", "feet": "ft",
	"yard": "yd", "yards": "yd",
	"mile": "mi", "miles": "mi",
	// weight
	"milligram": "mg", "milligrams": "mg",
	"gram": "g", "grams": "g",
	"kilogram": "kg", "kilograms": "kg", "kilo": "kg", "kilos": "kg",
	"ounce": "oz", "ounces": "oz",
	"pound": "lb", "pounds": "lb", "lbs": "lb",
	"tons": "ton",
	// volume
	"milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml",
	"liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"gallon": "gal", "gallons": "gal",
	"quart": "qt", "quarts": "qt",
	"pint": "pt", "pints": "pt",
	"cups": "cup",
	"floz": "fl-oz", "fl oz": "fl-oz", "fluid ounce": "fl-oz", "fluid ounces": "fl-oz",
	// temperature
	"celsius": "c", "centigrade": "c",
	"fahrenheit": "f",
}

// Normalize maps a spoken unit name to its canonical short form.
// Unknown names are returned lowercased and otherwise untouched.
func Normalize(unit string) string {
	u := strings.Join(strings.Fields(strings.ToLower(unit)), " ")
	if a, ok := aliases[u]; ok {
		return a
	}
	return u
}

// Convert converts value between two canonical units of the same family.
// Temperature uses the direct linear formulas, every other family goes
// through its base unit.
func Convert(value float64, from, to string) (float64, error) {
	from = strings.ToLower(from)
	to = strings.ToLower(to)

	if isTemp(from) && isTemp(to) {
		switch {
		case from == "c" && to == "f":
			return value*9/5 + 32, nil
		case from == "f" && to == "c":
			return (value - 32) * 5 / 9, nil
		default:
			return value, nil
		}
	}

	for _, fam := range families {
		fv, okFrom := fam[from]
		tv, okTo := fam[to]
		if okFrom && okTo {
			return value * fv / tv, nil
		}
	}

	return 0, ErrUnsupported
}

func isTemp(u string) bool {
	return u == "c" || u == "f"
}
