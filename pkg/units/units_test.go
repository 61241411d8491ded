package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		from  string
		to    string
		want  float64
	}{
		{"km to m", 1, "km", "m", 1000},
		{"c to f", 0, "c", "f", 32},
		{"f to c", 32, "f", "c", 0},
		{"boiling", 100, "c", "f", 212},
		{"same temp", 21.5, "c", "c", 21.5},
		{"mi to km", 1, "mi", "km", 1.60934},
		{"kg to lb", 1, "kg", "lb", 2.20462},
		{"gal to l", 1, "gal", "l", 3.78541},
		{"cup to ml", 1, "cup", "ml", 240},
		{"upper case", 2, "KM", "M", 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.value, tt.from, tt.to)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-4)
		})
	}
}

func TestConvertUnsupported(t *testing.T) {
	_, err := Convert(1, "bogus", "units")
	require.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, "Unsupported unit conversion", err.Error())

	// Units from different families never convert.
	_, err = Convert(1, "km", "kg")
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Convert(1, "c", "m")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "km", Normalize("Kilometers"))
	assert.Equal(t, "m", Normalize("meters"))
	assert.Equal(t, "lb", Normalize("pounds"))
	assert.Equal(t, "f", Normalize("fahrenheit"))
	assert.Equal(t, "fl-oz", Normalize("floz"))
	assert.Equal(t, "fl-oz", Normalize("fl  oz"))
	assert.Equal(t, "fl-oz", Normalize("Fluid Ounces"))
	assert.Equal(t, "parsec", Normalize(" Parsec "))
}
