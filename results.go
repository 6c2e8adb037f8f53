package revforecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/aouyang1/revforecast/forecast"
)

var ErrResultsLenMismatch = errors.New("forecast results have mismatched lengths")

// Prediction is one row of a forecast
type Prediction struct {
	T     time.Time `json:"ds"`
	Yhat  float64   `json:"yhat"`
	Lower float64   `json:"yhat_lower"`
	Upper float64   `json:"yhat_upper"`
}

// PredictionTable covers the unique history times followed by the forecast horizon.
// Trend and Seasonality are aligned with Rows.
type PredictionTable struct {
	Rows        []Prediction `json:"rows"`
	Trend       []float64    `json:"trend"`
	Seasonality []float64    `json:"seasonality"`
}

// NewPredictionTable converts model results into prediction rows
func NewPredictionTable(res *forecast.Results) (*PredictionTable, error) {
	n := res.Len()
	if n == 0 {
		return &PredictionTable{}, nil
	}
	if len(res.Forecast) != n || len(res.Lower) != n || len(res.Upper) != n {
		return nil, fmt.Errorf(
			"%d times, %d forecasts, %d lower and %d upper bounds, %w",
			n, len(res.Forecast), len(res.Lower), len(res.Upper), ErrResultsLenMismatch,
		)
	}

	p := &PredictionTable{
		Rows: make([]Prediction, n),
	}
	for i := 0; i < n; i++ {
		p.Rows[i] = Prediction{
			T:     res.T[i],
			Yhat:  res.Forecast[i],
			Lower: res.Lower[i],
			Upper: res.Upper[i],
		}
	}
	if len(res.Components.Trend) == n {
		p.Trend = res.Components.Trend
	}
	if len(res.Components.Seasonality) == n {
		p.Seasonality = res.Components.Seasonality
	}
	return p, nil
}

// Len returns the number of rows
func (p *PredictionTable) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Rows)
}

// DisplayWindow is the trailing part of a prediction table holding the forecast horizon
type DisplayWindow struct {
	Rows []Prediction `json:"rows"`
}

// Len returns the number of rows
func (w DisplayWindow) Len() int {
	return len(w.Rows)
}

// SelectWindow returns the last h.Days() rows of the table by position. A shorter table
// is returned whole.
func SelectWindow(p *PredictionTable, h Horizon) DisplayWindow {
	n := h.Days()
	if n <= 0 || p.Len() == 0 {
		return DisplayWindow{}
	}
	rows := p.Rows
	if n < len(rows) {
		rows = rows[len(rows)-n:]
	}
	res := make([]Prediction, len(rows))
	copy(res, rows)
	return DisplayWindow{Rows: res}
}
