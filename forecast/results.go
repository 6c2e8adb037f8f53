package forecast

import "time"

// Components are the additive parts of a forecast in the original units
type Components struct {
	Trend       []float64 `json:"trend"`
	Seasonality []float64 `json:"seasonality"`
	Holidays    []float64 `json:"holidays"`
}

// Results is the prediction of a forecast for a set of times. Lower and Upper bound the
// interval around Forecast and always satisfy Lower <= Forecast <= Upper.
type Results struct {
	T          []time.Time `json:"time"`
	Forecast   []float64   `json:"forecast"`
	Lower      []float64   `json:"lower"`
	Upper      []float64   `json:"upper"`
	Components Components  `json:"components"`
}

// Len returns the number of predicted points
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.T)
}
