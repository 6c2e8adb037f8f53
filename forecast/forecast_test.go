package forecast

import (
	"bytes"
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/aouyang1/revforecast/feature"
	"github.com/aouyang1/revforecast/timedataset"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWeeklyTrend() ([]time.Time, []float64) {
	t := timedataset.GenerateDailyT(120, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	y := timedataset.GenerateConstY(len(t), 100).
		Add(timedataset.GenerateTrend(t, 0.5)).
		Add(timedataset.GenerateWaveY(t, 10, 7*24*time.Hour, 1, 0))
	return t, y
}

func hasFeatureType(labels []feature.Feature, ftype feature.FeatureType, name string) bool {
	for _, label := range labels {
		if label.Type() != ftype {
			continue
		}
		if val, _ := label.Get("name"); val == name {
			return true
		}
	}
	return false
}

func TestFit(t *testing.T) {
	tWin, y := setupWeeklyTrend()

	opt := NewDefaultOptions()
	opt.Seed = 7
	f, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tWin, y))

	labels := f.FeatureLabels()
	assert.True(t, hasFeatureType(labels, feature.FeatureTypeSeasonality, LabelSeasWeekly))
	assert.False(t, hasFeatureType(labels, feature.FeatureTypeSeasonality, LabelSeasYearly))
	assert.False(t, hasFeatureType(labels, feature.FeatureTypeSeasonality, LabelSeasDaily))

	scores := f.Scores()
	assert.Greater(t, scores.R2, 0.99)
	assert.Less(t, scores.MAPE, 0.01)

	coef, err := f.Coefficients()
	require.Nil(t, err)
	amp := math.Hypot(coef["seas_weekly_01_sin"], coef["seas_weekly_01_cos"])
	assert.InDelta(t, 10.0, amp, 0.5)

	for _, chpt := range f.Changepoints() {
		assert.False(t, chpt.Before(tWin[0]), chpt)
		assert.False(t, chpt.After(tWin[len(tWin)-1]), chpt)
	}

	eq, err := f.ModelEq()
	require.Nil(t, err)
	assert.Contains(t, eq, "y ~ ")
	assert.Contains(t, eq, "*growth_intercept")
}

func TestFitUnsorted(t *testing.T) {
	tWin, y := setupWeeklyTrend()

	sorted, err := New(&Options{
		NumChangepoints:       DefaultNumChangepoints,
		ChangepointRange:      DefaultChangepointRange,
		ChangepointPriorScale: DefaultChangepointPriorScale,
		SeasonalityPriorScale: DefaultSeasonalityPriorScale,
		IntervalWidth:         DefaultIntervalWidth,
	})
	require.Nil(t, err)
	require.Nil(t, sorted.Fit(tWin, y))

	revT := make([]time.Time, len(tWin))
	revY := make([]float64, len(y))
	for i := range tWin {
		revT[len(tWin)-1-i] = tWin[i]
		revY[len(y)-1-i] = y[i]
	}
	reversed, err := New(&Options{
		NumChangepoints:       DefaultNumChangepoints,
		ChangepointRange:      DefaultChangepointRange,
		ChangepointPriorScale: DefaultChangepointPriorScale,
		SeasonalityPriorScale: DefaultSeasonalityPriorScale,
		IntervalWidth:         DefaultIntervalWidth,
	})
	require.Nil(t, err)
	require.Nil(t, reversed.Fit(revT, revY))

	expected, err := sorted.Coefficients()
	require.Nil(t, err)
	res, err := reversed.Coefficients()
	require.Nil(t, err)
	for label, val := range expected {
		assert.InDelta(t, val, res[label], 1e-9, label)
	}
}

func TestFitErrors(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	testData := map[string]struct {
		t   []time.Time
		y   []float64
		err error
	}{
		"no data": {
			err: ErrInsufficientTrainingData,
		},
		"single point": {
			t:   []time.Time{start},
			y:   []float64{1},
			err: ErrInsufficientTrainingData,
		},
		"only one valid point": {
			t:   []time.Time{start, start.Add(24 * time.Hour)},
			y:   []float64{1, math.NaN()},
			err: ErrInsufficientTrainingData,
		},
		"equal timestamps": {
			t:   []time.Time{start, start, start},
			y:   []float64{1, 2, 3},
			err: ErrDegenerateSeries,
		},
		"length mismatch": {
			t:   []time.Time{start, start.Add(time.Hour)},
			y:   []float64{1},
			err: timedataset.ErrDatasetLenMismatch,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f, err := New(nil)
			require.Nil(t, err)
			assert.ErrorIs(t, f.Fit(td.t, td.y), td.err)
		})
	}

	var nilForecast *Forecast
	assert.ErrorIs(t, nilForecast.Fit(nil, nil), ErrUninitializedForecast)
	_, err := nilForecast.Predict([]time.Time{start})
	assert.ErrorIs(t, err, ErrUninitializedForecast)

	f, err := New(nil)
	require.Nil(t, err)
	_, err = f.Predict([]time.Time{start})
	assert.ErrorIs(t, err, ErrUntrainedForecast)

	_, err = f.Model()
	assert.ErrorIs(t, err, ErrUntrainedForecast)

	_, err = New(&Options{})
	assert.ErrorIs(t, err, ErrChangepointRange)
}

func TestPredictShortHistory(t *testing.T) {
	tWin := []time.Time{
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	y := []float64{100, 110, 105}

	f, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tWin, y))

	future, err := timedataset.TimeSlice(tWin).Extend(30, 24*time.Hour)
	require.Nil(t, err)
	require.Len(t, future, 33)

	res, err := f.Predict(future)
	require.Nil(t, err)
	require.Equal(t, 33, res.Len())

	for i := 0; i < res.Len(); i++ {
		assert.False(t, math.IsNaN(res.Forecast[i]) || math.IsInf(res.Forecast[i], 0), "forecast %d", i)
		assert.False(t, math.IsNaN(res.Lower[i]) || math.IsInf(res.Lower[i], 0), "lower %d", i)
		assert.False(t, math.IsNaN(res.Upper[i]) || math.IsInf(res.Upper[i], 0), "upper %d", i)
		assert.LessOrEqual(t, res.Lower[i], res.Forecast[i])
		assert.LessOrEqual(t, res.Forecast[i], res.Upper[i])

		total := res.Components.Trend[i] + res.Components.Seasonality[i] + res.Components.Holidays[i]
		assert.InDelta(t, res.Forecast[i], total, 1e-9)
	}
}

func TestPredictIntervals(t *testing.T) {
	tWin, y := setupWeeklyTrend()
	noise := timedataset.GenerateNoise(len(y), 2.0, 3)
	timedataset.Series(y).Add(noise)

	opt := NewDefaultOptions()
	opt.Seed = 11
	f, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tWin, y))

	future, err := timedataset.TimeSlice(tWin).Extend(90, 24*time.Hour)
	require.Nil(t, err)

	res, err := f.Predict(future)
	require.Nil(t, err)

	for i := 0; i < res.Len(); i++ {
		assert.Greater(t, res.Upper[i]-res.Lower[i], 0.0, "interval %d", i)
	}

	// fixed seed reproduces the same interval
	again, err := f.Predict(future)
	require.Nil(t, err)
	assert.Equal(t, res.Lower, again.Lower)
	assert.Equal(t, res.Upper, again.Upper)

	opt.UncertaintySamples = 0
	res, err = f.Predict(future)
	require.Nil(t, err)
	assert.Equal(t, res.Forecast, res.Lower)
	assert.Equal(t, res.Forecast, res.Upper)
}

func TestPredictIntervalMemory(t *testing.T) {
	tWin, y := setupWeeklyTrend()

	opt := NewDefaultOptions()
	opt.Seed = 13
	f, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tWin, y))

	future, err := timedataset.TimeSlice(tWin).Extend(20000, 5*time.Minute)
	require.Nil(t, err)

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	res, err := f.Predict(future)
	require.Nil(t, err)
	runtime.ReadMemStats(&after)
	require.Equal(t, len(future), res.Len())

	// one draw per point and sample would need len(future)*samples*8 bytes, about 160 MB
	allocated := after.TotalAlloc - before.TotalAlloc
	assert.Less(t, allocated, uint64(48<<20), "predict over %d points allocated %d bytes", len(future), allocated)
}

func TestModelJSON(t *testing.T) {
	tWin, y := setupWeeklyTrend()

	opt := NewDefaultOptions()
	opt.Seed = 5
	f, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tWin, y))

	model, err := f.Model()
	require.Nil(t, err)

	out, err := json.Marshal(model)
	require.Nil(t, err)

	var decoded Model
	require.Nil(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, model.TrainStartTime, decoded.TrainStartTime)
	assert.Equal(t, model.TrainEndTime, decoded.TrainEndTime)
	assert.Equal(t, model.YScale, decoded.YScale)
	assert.Equal(t, model.Weights, decoded.Weights)
	require.NotNil(t, decoded.Scores)
	assert.Greater(t, decoded.Scores.R2, 0.99)
	assert.Equal(t, uint64(5), decoded.Options.Seed)

	var nilForecast *Forecast
	_, err = nilForecast.Model()
	assert.ErrorIs(t, err, ErrUninitializedForecast)

	untrained, err := New(nil)
	require.Nil(t, err)
	_, err = untrained.Model()
	assert.ErrorIs(t, err, ErrUntrainedForecast)
}

func TestFitHolidays(t *testing.T) {
	// independence day falls on a weekday in both 2022 and 2023
	tWin := timedataset.GenerateDailyT(800, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))
	y := timedataset.GenerateConstY(len(tWin), 100)
	for i, tPnt := range tWin {
		if _, m, d := tPnt.Date(); m == time.July && d == 4 {
			y[i] += 50
		}
	}

	opt := NewDefaultOptions()
	opt.HolidayCountry = "US"
	opt.UncertaintySamples = 0
	f, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tWin, y))

	coef, err := f.Coefficients()
	require.Nil(t, err)
	assert.Greater(t, coef[feature.NewHoliday("Independence Day").String()], 10.0)

	res, err := f.Predict(tWin)
	require.Nil(t, err)
	assert.NotZero(t, floatsMax(res.Components.Holidays))

	// unsupported calendars are skipped
	opt = NewDefaultOptions()
	opt.HolidayCountry = "XX"
	f, err = New(opt)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tWin, y))
	assert.False(t, hasFeatureType(f.FeatureLabels(), feature.FeatureTypeHoliday, "Independence Day"))
}

func floatsMax(s []float64) float64 {
	res := math.Inf(-1)
	for _, v := range s {
		res = math.Max(res, v)
	}
	return res
}

func TestAutoChangepoints(t *testing.T) {
	testData := map[string]struct {
		ts       []float64
		n        int
		expected []feature.Feature
	}{
		"too few points": {
			ts: []float64{0, 1},
			n:  25,
		},
		"three points": {
			ts:       []float64{0, 0.5, 1},
			n:        25,
			expected: []feature.Feature{feature.NewChangepoint("auto_00", 0.5)},
		},
		"duplicates collapse": {
			ts:       []float64{0, 0, 0.5, 0.5, 1},
			n:        25,
			expected: []feature.Feature{feature.NewChangepoint("auto_00", 0.5)},
		},
		"capped count": {
			ts: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
			n:  2,
			expected: []feature.Feature{
				feature.NewChangepoint("auto_00", 0.4),
				feature.NewChangepoint("auto_01", 0.7),
			},
		},
		"disabled": {
			ts: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
			n:  0,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := autoChangepoints(td.ts, td.n, DefaultChangepointRange)
			assert.Equal(t, td.expected, res)
		})
	}

	ts := make([]float64, 1000)
	for i := range ts {
		ts[i] = float64(i) / 999
	}
	assert.Len(t, autoChangepoints(ts, DefaultNumChangepoints, DefaultChangepointRange), DefaultNumChangepoints)
}

func TestSeasonalityEnabled(t *testing.T) {
	day := 24 * time.Hour

	testData := map[string]struct {
		cfg        SeasonalityConfig
		span       time.Duration
		minSpacing time.Duration
		expected   bool
	}{
		"weekly auto": {
			cfg:        NewWeeklySeasonalityConfig(SeasonalityAuto),
			span:       14 * day,
			minSpacing: day,
			expected:   true,
		},
		"weekly auto short span": {
			cfg:        NewWeeklySeasonalityConfig(SeasonalityAuto),
			span:       13 * day,
			minSpacing: day,
		},
		"weekly auto sparse": {
			cfg:        NewWeeklySeasonalityConfig(SeasonalityAuto),
			span:       100 * day,
			minSpacing: 7 * day,
		},
		"daily auto hourly": {
			cfg:        NewDailySeasonalityConfig(SeasonalityAuto),
			span:       2 * day,
			minSpacing: time.Hour,
			expected:   true,
		},
		"yearly auto": {
			cfg:        NewYearlySeasonalityConfig(SeasonalityAuto),
			span:       731 * day,
			minSpacing: 30 * day,
			expected:   true,
		},
		"yearly on": {
			cfg:        NewYearlySeasonalityConfig(SeasonalityOn),
			span:       10 * day,
			minSpacing: day,
			expected:   true,
		},
		"daily off": {
			cfg:        NewDailySeasonalityConfig(SeasonalityOff),
			span:       100 * day,
			minSpacing: time.Minute,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, td.cfg.Enabled(td.span, td.minSpacing))
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		update func(o *Options)
		err    error
	}{
		"default":                 {update: func(o *Options) {}},
		"negative changepoints":   {update: func(o *Options) { o.NumChangepoints = -1 }, err: ErrNegativeChangepoints},
		"changepoint range":       {update: func(o *Options) { o.ChangepointRange = 1.5 }, err: ErrChangepointRange},
		"changepoint prior scale": {update: func(o *Options) { o.ChangepointPriorScale = 0 }, err: ErrNonPositivePriorScale},
		"seasonality prior scale": {update: func(o *Options) { o.SeasonalityPriorScale = -1 }, err: ErrNonPositivePriorScale},
		"holiday prior scale": {
			update: func(o *Options) {
				o.HolidayCountry = "US"
				o.HolidayPriorScale = 0
			},
			err: ErrNonPositivePriorScale,
		},
		"interval width":  {update: func(o *Options) { o.IntervalWidth = 1 }, err: ErrIntervalWidth},
		"negative samples": {update: func(o *Options) { o.UncertaintySamples = -1 }, err: ErrNegativeSamples},
		"invalid seasonality": {
			update: func(o *Options) {
				o.SeasonalityConfigs = append(o.SeasonalityConfigs, NewSeasonalityConfig("monthly", 0, 2, SeasonalityOn))
			},
			err: ErrInvalidSeasonality,
		},
		"unknown mode": {
			update: func(o *Options) {
				o.SeasonalityConfigs = append(o.SeasonalityConfigs, NewSeasonalityConfig("monthly", 30*24*time.Hour, 2, "maybe"))
			},
			err: ErrUnknownSeasonalityMode,
		},
		"duplicate seasonality": {
			update: func(o *Options) {
				o.SeasonalityConfigs = append(o.SeasonalityConfigs, NewWeeklySeasonalityConfig(SeasonalityOn))
			},
			err: ErrDuplicateSeasonalityCfg,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt := NewDefaultOptions()
			td.update(opt)
			err := opt.Validate()
			if td.err == nil {
				assert.Nil(t, err)
				return
			}
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestModelTablePrint(t *testing.T) {
	tWin, y := setupWeeklyTrend()
	f, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tWin, y))

	model, err := f.Model()
	require.Nil(t, err)

	var buf bytes.Buffer
	require.Nil(t, model.TablePrint(&buf, "", "  "))
	out := buf.String()
	assert.Contains(t, out, "Forecast:\n")
	assert.Contains(t, out, "  Training Window: 2023-01-01T00:00:00Z to 2023-04-30T00:00:00Z\n")
	assert.Contains(t, out, "  Holidays: None\n")
	assert.Contains(t, out, "Scores:\n")
	assert.Contains(t, out, "Weights:\n")
	assert.Contains(t, out, `{"name":"intercept"}`)

	buf.Reset()
	require.Nil(t, Model{}.TablePrint(&buf, "--", "**"))
	assert.Equal(t, `--Forecast:
--**Training Window: 0001-01-01T00:00:00Z to 0001-01-01T00:00:00Z
--Weights:
 --**Type Labels Value
`, buf.String())
}
