package revforecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHorizon(t *testing.T) {
	testData := map[string]struct {
		input    string
		expected Horizon
		err      error
	}{
		"default":      {input: "", expected: DefaultHorizon},
		"one":          {input: "1", expected: 1},
		"max":          {input: " 24 ", expected: 24},
		"zero":         {input: "0", err: ErrHorizon},
		"too long":     {input: "25", err: ErrHorizon},
		"negative":     {input: "-3", err: ErrHorizon},
		"not a number": {input: "six", err: ErrHorizon},
		"fraction":     {input: "1.5", err: ErrHorizon},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			h, err := ParseHorizon(td.input)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, h)
		})
	}
}

func TestHorizonDays(t *testing.T) {
	testData := map[string]struct {
		h        Horizon
		expected int
	}{
		"one month":  {h: 1, expected: 30},
		"default":    {h: DefaultHorizon, expected: 180},
		"two years":  {h: 24, expected: 720},
		"zero value": {h: 0, expected: 0},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, td.h.Days())
		})
	}
}

func TestHorizonString(t *testing.T) {
	assert.Equal(t, "1 month", Horizon(1).String())
	assert.Equal(t, "6 months", DefaultHorizon.String())
}
