package forecast

import (
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/aouyang1/revforecast/feature"
	"gonum.org/v1/gonum/stat"
)

// intervals estimates the forecast bounds by simulation. Every sample adds observation
// noise with the residual standard deviation and, past the training window, new trend
// changepoints at the historical rate with Laplace distributed slope changes.
func (f *Forecast) intervals(t []time.Time, yhat []float64) ([]float64, []float64) {
	lower := make([]float64, len(t))
	upper := make([]float64, len(t))
	copy(lower, yhat)
	copy(upper, yhat)

	samples := f.opt.UncertaintySamples
	if samples == 0 {
		return lower, upper
	}

	ts := f.scaleTime(t)
	tMax := 1.0
	for _, v := range ts {
		tMax = math.Max(tMax, v)
	}

	// history is scaled to [0, 1] so the rate per unit time is the changepoint count
	var rate float64
	for _, label := range f.fLabels {
		if label.Type() == feature.FeatureTypeChangepoint {
			rate++
		}
	}
	simulateTrend := tMax > 1 && rate > 0 && f.deltaScale > 0

	// each sample keeps its future changepoints in chpts[offsets[s]:offsets[s+1]]
	rng := f.newRand()
	offsets := make([]int, samples+1)
	var chpts, deltas []float64
	for s := 0; s < samples; s++ {
		if simulateTrend {
			k := poisson(rng, rate*(tMax-1))
			for j := 0; j < k; j++ {
				chpts = append(chpts, 1+rng.Float64()*(tMax-1))
				deltas = append(deltas, laplace(rng, f.deltaScale))
			}
		}
		offsets[s+1] = len(chpts)
	}

	lo := (1 - f.opt.IntervalWidth) / 2
	hi := (1 + f.opt.IntervalWidth) / 2
	draws := make([]float64, samples)
	for i, tScaled := range ts {
		for s := range draws {
			v := rng.NormFloat64() * f.sigma
			for j := offsets[s]; j < offsets[s+1]; j++ {
				if tScaled > chpts[j] {
					v += deltas[j] * (tScaled - chpts[j])
				}
			}
			draws[s] = yhat[i] + v*f.yScale
		}
		sort.Float64s(draws)
		lower[i] = math.Min(stat.Quantile(lo, stat.Empirical, draws, nil), yhat[i])
		upper[i] = math.Max(stat.Quantile(hi, stat.Empirical, draws, nil), yhat[i])
	}
	return lower, upper
}

// laplace draws from a zero mean Laplace distribution with the given scale
func laplace(rng *rand.Rand, scale float64) float64 {
	for {
		u := rng.Float64() - 0.5
		p := 1 - 2*math.Abs(u)
		if p <= 0 {
			continue
		}
		if u < 0 {
			return scale * math.Log(p)
		}
		return -scale * math.Log(p)
	}
}

// poisson draws a Poisson count, switching to the normal approximation for large means
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	if lambda > 30 {
		k := math.Round(lambda + math.Sqrt(lambda)*rng.NormFloat64())
		return int(math.Max(k, 0))
	}
	limit := math.Exp(-lambda)
	k := 0
	p := rng.Float64()
	for p > limit {
		k++
		p *= rng.Float64()
	}
	return k
}
