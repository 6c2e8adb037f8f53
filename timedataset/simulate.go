package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateDailyT returns n daily time points starting at start
func GenerateDailyT(n int, start time.Time) []time.Time {
	return GenerateT(n, 24*time.Hour, start)
}

// GenerateT returns n time points spaced by interval starting at start
func GenerateT(n int, interval time.Duration, start time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		t = append(t, start.Add(interval*time.Duration(i)))
	}
	return t
}

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateWaveY generates a sine wave of the given amplitude and period where order
// multiplies the base frequency.
func GenerateWaveY(t []time.Time, amp float64, period time.Duration, order, timeOffset float64) Series {
	n := len(t)
	periodSec := period.Seconds()
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		val := amp * math.Sin(2.0*math.Pi*order/periodSec*(float64(t[i].Unix())+timeOffset))
		y = append(y, val)
	}
	return Series(y)
}

// GenerateTrend generates a line with the given slope per day anchored at zero on the
// first time point.
func GenerateTrend(t []time.Time, slopePerDay float64) Series {
	n := len(t)
	y := make([]float64, n)
	if n == 0 {
		return Series(y)
	}
	for i := 0; i < n; i++ {
		y[i] = slopePerDay * t[i].Sub(t[0]).Hours() / 24.0
	}
	return Series(y)
}

// GenerateChange adds a bias and a daily slope on and after the changepoint time
func GenerateChange(t []time.Time, chpt time.Time, bias, slopePerDay float64) Series {
	n := len(t)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		if t[i].After(chpt) || t[i].Equal(chpt) {
			y[i] = bias + slopePerDay*t[i].Sub(chpt).Hours()/24.0
		}
	}
	return Series(y)
}

// GenerateNoise generates gaussian noise with the given standard deviation from a
// seeded source so tests are repeatable.
func GenerateNoise(n int, stddev float64, seed uint64) Series {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, r.NormFloat64()*stddev)
	}
	return Series(y)
}
