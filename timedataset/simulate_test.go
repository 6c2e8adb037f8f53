package timedataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestGenerateT(t *testing.T) {
	start := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

	numPnts := 7
	res := GenerateDailyT(numPnts, start)
	assert.Len(t, res, numPnts)

	assert.Equal(t, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), res[0])
	assert.Equal(t, time.Date(1970, 1, 7, 0, 0, 0, 0, time.UTC), res[numPnts-1])
}

func TestSeries(t *testing.T) {
	numPnts := 5
	tSeries := GenerateDailyT(numPnts, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC))

	s := GenerateConstY(numPnts, 1)
	res := s.Add(GenerateConstY(numPnts, 2))
	require.Equal(t, Series{3, 3, 3, 3, 3}, res)

	s.Add(GenerateTrend(tSeries, 0.5))
	assert.Equal(t, Series{3, 3.5, 4, 4.5, 5}, s)

	s.Add(GenerateChange(tSeries, tSeries[3], 10, 1))
	assert.Equal(t, Series{3, 3.5, 4, 14.5, 16}, s)
}

func TestGenerateWaveY(t *testing.T) {
	tSeries := GenerateT(4, 6*time.Hour, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC))
	y := GenerateWaveY(tSeries, 2.0, 24*time.Hour, 1.0, 0)
	assert.InDeltaSlice(t, []float64{0, 2, 0, -2}, y, 1e-9)
}

func TestGenerateNoise(t *testing.T) {
	a := GenerateNoise(5000, 3.0, 7)
	b := GenerateNoise(5000, 3.0, 7)
	assert.Equal(t, a, b)

	mean, std := stat.MeanStdDev(a, nil)
	assert.InDelta(t, 0.0, mean, 0.2)
	assert.InDelta(t, 3.0, std, 0.2)
}
