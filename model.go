package revforecast

import (
	"time"

	"github.com/aouyang1/revforecast/forecast"
)

// Model is a forecasting engine. Fit accepts points in any order and Predict returns a
// point estimate with interval bounds for every requested time.
type Model interface {
	Fit(t []time.Time, y []float64) error
	Predict(t []time.Time) (*forecast.Results, error)
}

// ModelFactory builds a fresh untrained model for one run
type ModelFactory func() (Model, error)

// DefaultModelFactory builds the additive trend and seasonality forecast with its
// default configuration
func DefaultModelFactory() (Model, error) {
	f, err := forecast.New(nil)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// NewModelFactory returns a factory building the forecast with a copy of opt, taken when
// the factory is made, for every run. Nil options use the defaults.
func NewModelFactory(opt *forecast.Options) ModelFactory {
	if opt == nil {
		return DefaultModelFactory
	}
	base := *opt
	return func() (Model, error) {
		runOpt := base
		f, err := forecast.New(&runOpt)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

var _ Model = (*forecast.Forecast)(nil)
