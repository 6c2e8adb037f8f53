package revforecast

import (
	"fmt"
	"time"

	"github.com/aouyang1/revforecast/series"
	"github.com/aouyang1/revforecast/timedataset"
)

// Fit trains a model from the factory on the full series and predicts over the history
// followed by the horizon at daily steps. A nil factory uses DefaultModelFactory.
func Fit(ts *series.TimeSeries, h Horizon, factory ModelFactory) (*PredictionTable, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	model, err := fitModel(ts, factory)
	if err != nil {
		return nil, err
	}
	return predict(model, ts, h)
}

func fitModel(ts *series.TimeSeries, factory ModelFactory) (Model, error) {
	if factory == nil {
		factory = DefaultModelFactory
	}
	if ts.Len() == 0 {
		return nil, wrapKind(ErrEmptyData, series.ErrNoRows)
	}

	model, err := factory()
	if err != nil {
		return nil, wrapKind(ErrModel, fmt.Errorf("unable to initialize model, %w", err))
	}

	t, y, err := timedataset.SortByTime(ts.T, ts.Y)
	if err != nil {
		return nil, wrapKind(ErrModel, err)
	}
	if err := model.Fit(t, y); err != nil {
		return nil, wrapKind(ErrModel, err)
	}
	return model, nil
}

// ExtendedIndex returns the unique sorted history times followed by h.Days() daily times
func ExtendedIndex(ts *series.TimeSeries, h Horizon) ([]time.Time, error) {
	if ts.Len() == 0 {
		return nil, series.ErrNoRows
	}
	return timedataset.TimeSlice(ts.T).Extend(h.Days(), 24*time.Hour)
}

func predict(model Model, ts *series.TimeSeries, h Horizon) (*PredictionTable, error) {
	idx, err := ExtendedIndex(ts, h)
	if err != nil {
		return nil, wrapKind(ErrModel, err)
	}
	res, err := model.Predict(idx)
	if err != nil {
		return nil, wrapKind(ErrModel, err)
	}
	p, err := NewPredictionTable(res)
	if err != nil {
		return nil, wrapKind(ErrModel, err)
	}
	return p, nil
}
