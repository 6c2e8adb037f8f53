package revforecast

import (
	"strconv"
	"time"

	"github.com/aouyang1/revforecast/series"
)

const (
	TitleSeries   = "Uploaded Data"
	TitleForecast = "Forecast"
	TitleWindow   = "Forecasted Values"
)

// Surface displays the outputs of a run
type Surface interface {
	RenderTable(t Table) error
	RenderChart(c Chart) error
	RenderError(msg string) error
}

// Table is a titled grid of display strings
type Table struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Chart holds the history, the full prediction table and the forecast window of a run
// along with the fitted model that produced them
type Chart struct {
	Title       string
	History     *series.TimeSeries
	Predictions *PredictionTable
	Window      DisplayWindow
	Model       Model
}

// SeriesTable renders a normalized series with the ds and y columns
func SeriesTable(ts *series.TimeSeries) Table {
	tbl := Table{
		Title:   TitleSeries,
		Columns: []string{"ds", "y"},
		Rows:    make([][]string, 0, ts.Len()),
	}
	for i := 0; i < ts.Len(); i++ {
		tbl.Rows = append(tbl.Rows, []string{
			FormatTime(ts.T[i]),
			strconv.FormatFloat(ts.Y[i], 'f', -1, 64),
		})
	}
	return tbl
}

// WindowTable renders a display window with the ds, yhat, yhat_lower and yhat_upper columns
func WindowTable(w DisplayWindow) Table {
	tbl := Table{
		Title:   TitleWindow,
		Columns: []string{"ds", "yhat", "yhat_lower", "yhat_upper"},
		Rows:    make([][]string, 0, w.Len()),
	}
	for _, p := range w.Rows {
		tbl.Rows = append(tbl.Rows, []string{
			FormatTime(p.T),
			FormatValue(p.Yhat),
			FormatValue(p.Lower),
			FormatValue(p.Upper),
		})
	}
	return tbl
}

// FormatTime prints a date, adding the clock only when it is not midnight
func FormatTime(t time.Time) string {
	if t.Equal(t.Truncate(24 * time.Hour)) {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.DateTime)
}

// FormatValue prints a forecast value with two decimals
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
