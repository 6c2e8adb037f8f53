// Package forecast fits an additive trend, seasonality and holiday model to a univariate
// time series and extrapolates it with uncertainty intervals.
package forecast

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/aouyang1/revforecast/feature"
	"github.com/aouyang1/revforecast/linearmodel"
	"github.com/aouyang1/revforecast/timedataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrUninitializedForecast    = errors.New("uninitialized forecast")
	ErrInsufficientTrainingData = errors.New("insufficient training data after removing NaNs, need at least 2 points")
	ErrDegenerateSeries         = errors.New("all training timestamps are equal")
	ErrNoModelCoefficients      = errors.New("no model coefficients from fit")
	ErrUntrainedForecast        = errors.New("forecast has not been trained yet")
	ErrNoPredictionTimes        = errors.New("no times to predict")
)

// Forecast represents a single forecast model of a time series. This is a linear model fit
// with coordinate descent on scaled data. It decomposes the series into a piecewise linear
// trend, Fourier seasonal components and optional holiday effects.
type Forecast struct {
	opt    *Options
	scores *Scores

	fLabels []feature.Feature
	coef    []float64

	trainStartTime time.Time
	trainEndTime   time.Time
	yScale         float64

	// residual standard deviation and mean absolute changepoint delta in scaled units
	sigma      float64
	deltaScale float64

	trained bool
}

// New creates a new forecast instance with the given options. If none are provided, a default
// is used
func New(opt *Options) (*Forecast, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, fmt.Errorf("unable to validate forecast options, %w", err)
	}
	return &Forecast{opt: opt}, nil
}

// scaleTime maps times onto [0, 1] over the training window
func (f *Forecast) scaleTime(t []time.Time) []float64 {
	span := f.trainEndTime.Sub(f.trainStartTime).Seconds()
	ts := make([]float64, len(t))
	for i, tPnt := range t {
		ts[i] = tPnt.Sub(f.trainStartTime).Seconds() / span
	}
	return ts
}

// selectFeatures picks the regressors for the training times: growth, automatically
// placed changepoints, enabled seasonalities and holidays observed in the history.
func (f *Forecast) selectFeatures(t timedataset.TimeSlice, ts []float64) ([]feature.Feature, error) {
	labels := []feature.Feature{feature.Intercept(), feature.Linear()}
	labels = append(labels, autoChangepoints(ts, f.opt.NumChangepoints, f.opt.ChangepointRange)...)

	uniq := t.Unique()
	span := uniq.Span()
	minSpacing := uniq.MinSpacing()
	for _, seasCfg := range f.opt.SeasonalityConfigs {
		if !seasCfg.Enabled(span, minSpacing) {
			continue
		}
		slog.Debug("fitting seasonality", "name", seasCfg.Name, "period", seasCfg.Period, "orders", seasCfg.Orders)
		for order := 1; order <= seasCfg.Orders; order++ {
			labels = append(labels,
				feature.NewSeasonality(seasCfg.Name, seasCfg.Period, feature.FourierCompSin, order),
				feature.NewSeasonality(seasCfg.Name, seasCfg.Period, feature.FourierCompCos, order),
			)
		}
	}

	if f.opt.HolidayCountry != "" {
		hols, err := holidayFeatures(f.opt.HolidayCountry, t.StartTime(), t.EndTime())
		if err != nil {
			slog.Warn("skipping holiday features", "country", f.opt.HolidayCountry, "error", err.Error())
		}
		labels = append(labels, hols...)
	}
	return labels, nil
}

// autoChangepoints places up to n changepoints uniformly over the leading fraction of
// the distinct training times
func autoChangepoints(ts []float64, n int, chptRange float64) []feature.Feature {
	uniq := make([]float64, 0, len(ts))
	for i, v := range ts {
		if i == 0 || v != ts[i-1] {
			uniq = append(uniq, v)
		}
	}

	histSize := int(math.Floor(float64(len(uniq)) * chptRange))
	if n+1 > histSize {
		n = histSize - 1
	}
	if n <= 0 {
		return nil
	}

	positions := make([]float64, n+1)
	floats.Span(positions, 0, float64(histSize-1))

	chpts := make([]feature.Feature, 0, n)
	for i, pos := range positions[1:] {
		idx := int(math.Round(pos))
		chpts = append(chpts, feature.NewChangepoint(fmt.Sprintf("auto_%02d", i), uniq[idx]))
	}
	return chpts
}

func (f *Forecast) penalties() ([]float64, []float64) {
	l1 := make([]float64, len(f.fLabels))
	l2 := make([]float64, len(f.fLabels))
	for i, label := range f.fLabels {
		switch label.Type() {
		case feature.FeatureTypeChangepoint:
			l1[i] = f.opt.changepointL1()
		case feature.FeatureTypeSeasonality:
			l2[i] = f.opt.seasonalityL2()
		case feature.FeatureTypeHoliday:
			l2[i] = f.opt.holidayL2()
		}
	}
	return l1, l2
}

// Fit takes the input training data in any order and fits the trend, seasonality and
// holiday components
func (f *Forecast) Fit(t []time.Time, y []float64) error {
	if f == nil || f.opt == nil {
		return ErrUninitializedForecast
	}

	sortedT, sortedY, err := timedataset.SortByTime(t, y)
	if err != nil {
		return fmt.Errorf("unable to sort training data, %w", err)
	}
	trainingData, err := timedataset.NewUnivariateDataset(sortedT, sortedY)
	if err != nil {
		if errors.Is(err, timedataset.ErrNoTrainingData) {
			return ErrInsufficientTrainingData
		}
		return err
	}
	trainingData = trainingData.DropNan()
	if trainingData.Len() < 2 {
		return ErrInsufficientTrainingData
	}

	trainT := timedataset.TimeSlice(trainingData.T)
	if trainT.Span() <= 0 {
		return ErrDegenerateSeries
	}
	f.trainStartTime = trainT.StartTime()
	f.trainEndTime = trainT.EndTime()

	f.yScale = floats.Norm(trainingData.Y, math.Inf(1))
	if f.yScale == 0 {
		f.yScale = 1
	}
	yScaled := make([]float64, trainingData.Len())
	floats.ScaleTo(yScaled, 1/f.yScale, trainingData.Y)

	ts := f.scaleTime(trainT)
	f.fLabels, err = f.selectFeatures(trainT, ts)
	if err != nil {
		return err
	}

	x, err := f.generateFeatures(trainT)
	if err != nil {
		return err
	}

	l1, l2 := f.penalties()
	solverOpt := &linearmodel.Options{
		L1:         l1,
		L2:         l2,
		Iterations: f.opt.Iterations,
		Tolerance:  f.opt.Tolerance,
	}
	if solverOpt.Iterations == 0 {
		solverOpt.Iterations = linearmodel.DefaultIterations
	}
	if solverOpt.Tolerance == 0 {
		solverOpt.Tolerance = linearmodel.DefaultTolerance
	}
	model := linearmodel.NewCoordinateDescent(solverOpt)
	if err := model.Fit(x.Matrix(), yScaled); err != nil {
		return fmt.Errorf("unable to fit linear model, %w", err)
	}
	if model.Iterations() >= solverOpt.Iterations {
		slog.Warn("coordinate descent did not converge", "iterations", model.Iterations(), "features", len(f.fLabels))
	}
	f.coef = model.Coef()
	f.trained = true

	// slope changes drive the simulated future trend changes
	var deltas []float64
	for i, label := range f.fLabels {
		if label.Type() == feature.FeatureTypeChangepoint {
			deltas = append(deltas, math.Abs(f.coef[i]))
		}
	}
	f.deltaScale = 0
	if len(deltas) > 0 {
		f.deltaScale = stat.Mean(deltas, nil) + 1e-8
	}

	predicted, _, err := f.predictPoint(trainT)
	if err != nil {
		return err
	}

	scores, err := NewScores(predicted, trainingData.Y)
	if err != nil {
		return err
	}
	f.scores = scores

	residual := make([]float64, trainingData.Len())
	floats.SubTo(residual, trainingData.Y, predicted)

	scaledResidual := make([]float64, len(residual))
	floats.ScaleTo(scaledResidual, 1/f.yScale, residual)
	f.sigma = math.Sqrt(floats.Dot(scaledResidual, scaledResidual) / float64(len(scaledResidual)))

	return nil
}

// generateFeatures builds the design matrix of the fit feature labels for the given times
func (f *Forecast) generateFeatures(t []time.Time) (*feature.Set, error) {
	ts := f.scaleTime(t)
	set := feature.NewSet()

	var holidayDays map[string][]time.Time
	for _, label := range f.fLabels {
		var data []float64
		switch feat := label.(type) {
		case *feature.Growth:
			data = feat.Generate(ts)
		case *feature.Changepoint:
			data = feat.Generate(ts)
		case *feature.Seasonality:
			data = feat.Generate(t)
		case *feature.Holiday:
			if holidayDays == nil {
				var err error
				holidayDays, err = observedHolidays(f.opt.HolidayCountry, t)
				if err != nil {
					return nil, err
				}
			}
			data = feat.Generate(t, holidayDays[feat.Name])
		default:
			return nil, fmt.Errorf("%s, %w", label, feature.ErrUnknownFeatureType)
		}
		if err := set.Set(label, data); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// predictPoint computes the point forecast and its components in the original units
func (f *Forecast) predictPoint(t []time.Time) ([]float64, Components, error) {
	x, err := f.generateFeatures(t)
	if err != nil {
		return nil, Components{}, err
	}

	comp := Components{
		Trend:       make([]float64, len(t)),
		Seasonality: make([]float64, len(t)),
		Holidays:    make([]float64, len(t)),
	}
	for i, label := range f.fLabels {
		data, _ := x.Get(label)
		var dst []float64
		switch label.Type() {
		case feature.FeatureTypeGrowth, feature.FeatureTypeChangepoint:
			dst = comp.Trend
		case feature.FeatureTypeSeasonality:
			dst = comp.Seasonality
		case feature.FeatureTypeHoliday:
			dst = comp.Holidays
		}
		floats.AddScaled(dst, f.coef[i]*f.yScale, data)
	}

	res := make([]float64, len(t))
	floats.Add(res, comp.Trend)
	floats.Add(res, comp.Seasonality)
	floats.Add(res, comp.Holidays)
	return res, comp, nil
}

// Predict takes a slice of times in any order and produces the point forecast, the
// uncertainty interval and the components for those times given a trained model.
func (f *Forecast) Predict(t []time.Time) (*Results, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}
	if !f.trained {
		return nil, ErrUntrainedForecast
	}
	if len(t) == 0 {
		return nil, ErrNoPredictionTimes
	}

	yhat, comp, err := f.predictPoint(t)
	if err != nil {
		return nil, err
	}

	lower, upper := f.intervals(t, yhat)

	res := &Results{
		T:          make([]time.Time, len(t)),
		Forecast:   yhat,
		Lower:      lower,
		Upper:      upper,
		Components: comp,
	}
	copy(res.T, t)
	return res, nil
}

func (f *Forecast) newRand() *rand.Rand {
	seed := f.opt.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// FeatureLabels returns the slice of feature labels in the order of the coefficients
func (f *Forecast) FeatureLabels() []feature.Feature {
	if f == nil {
		return nil
	}
	labels := make([]feature.Feature, len(f.fLabels))
	copy(labels, f.fLabels)
	return labels
}

// Coefficients returns a forecast model map of coefficients in the original units keyed by
// the string representation of each feature label
func (f *Forecast) Coefficients() (map[string]float64, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}
	if len(f.fLabels) == 0 || len(f.coef) == 0 {
		return nil, ErrNoModelCoefficients
	}
	coef := make(map[string]float64, len(f.coef))
	for i, label := range f.fLabels {
		coef[label.String()] = f.coef[i] * f.yScale
	}
	return coef, nil
}

// Changepoints returns the times of the trend changepoints with a non-zero slope change
func (f *Forecast) Changepoints() []time.Time {
	if f == nil {
		return nil
	}
	span := f.trainEndTime.Sub(f.trainStartTime)
	var res []time.Time
	for i, label := range f.fLabels {
		chpt, ok := label.(*feature.Changepoint)
		if !ok || f.coef[i] == 0 {
			continue
		}
		offset := time.Duration(chpt.Position * float64(span))
		res = append(res, f.trainStartTime.Add(offset))
	}
	return res
}

// Model returns the serializable format of the forecast model composing of the forecast
// options, coefficients with their feature labels, and the model fit scores
func (f *Forecast) Model() (Model, error) {
	if f == nil {
		return Model{}, ErrUninitializedForecast
	}
	if !f.trained {
		return Model{}, ErrUntrainedForecast
	}

	fws := make([]FeatureWeight, 0, len(f.coef))
	for i, c := range f.coef {
		fws = append(fws, NewFeatureWeight(f.fLabels[i], c))
	}
	m := Model{
		TrainStartTime: f.trainStartTime,
		TrainEndTime:   f.trainEndTime,
		YScale:         f.yScale,
		Sigma:          f.sigma,
		DeltaScale:     f.deltaScale,
		Options:        f.opt,
		Scores:         f.scores,
		Weights:        Weights{Coef: fws},
	}
	return m, nil
}

// ModelEq returns a string representation of the model linear equation in the format of
// y ~ m1*x1 + m2*x2 + ... skipping zero weights
func (f *Forecast) ModelEq() (string, error) {
	if f == nil {
		return "", ErrUninitializedForecast
	}

	coef, err := f.Coefficients()
	if err != nil {
		return "", err
	}

	terms := make([]string, 0, len(f.fLabels))
	for _, label := range f.fLabels {
		w := coef[label.String()]
		if w == 0 {
			continue
		}
		terms = append(terms, fmt.Sprintf("%.2f*%s", w, label))
	}
	if len(terms) == 0 {
		return "y ~ 0", nil
	}
	return "y ~ " + strings.Join(terms, "+"), nil
}

// Scores returns the fit scores for evaluating how well the resulting model
// fit the training data
func (f *Forecast) Scores() Scores {
	if f == nil || f.scores == nil {
		return Scores{}
	}
	return *f.scores
}
