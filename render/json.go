package render

import (
	"io"
	"time"

	"github.com/aouyang1/revforecast"
	"github.com/aouyang1/revforecast/forecast"
	"github.com/goccy/go-json"
)

// Point is one row of the uploaded series
type Point struct {
	T time.Time `json:"ds"`
	Y float64   `json:"y"`
}

// Document is the json form of a run
type Document struct {
	Series      []Point                  `json:"series,omitempty"`
	Predictions []revforecast.Prediction `json:"predictions,omitempty"`
	Trend       []float64                `json:"trend,omitempty"`
	Seasonality []float64                `json:"seasonality,omitempty"`
	Window      []revforecast.Prediction `json:"window,omitempty"`
	Tables      []revforecast.Table      `json:"tables,omitempty"`
	Error       string                   `json:"error,omitempty"`

	// fitted model details, present when the engine is the built in forecast
	Model        *forecast.Model `json:"model,omitempty"`
	Equation     string          `json:"equation,omitempty"`
	Changepoints []time.Time     `json:"changepoints,omitempty"`
}

// JSON collects the outputs of a run into a single document
type JSON struct {
	doc Document
}

func NewJSON() *JSON {
	return &JSON{}
}

func (j *JSON) RenderTable(t revforecast.Table) error {
	j.doc.Tables = append(j.doc.Tables, t)
	return nil
}

func (j *JSON) RenderChart(c revforecast.Chart) error {
	j.doc.Series = make([]Point, 0, c.History.Len())
	for i := 0; i < c.History.Len(); i++ {
		j.doc.Series = append(j.doc.Series, Point{T: c.History.T[i], Y: c.History.Y[i]})
	}
	if c.Predictions != nil {
		j.doc.Predictions = c.Predictions.Rows
		j.doc.Trend = c.Predictions.Trend
		j.doc.Seasonality = c.Predictions.Seasonality
	}
	j.doc.Window = c.Window.Rows

	f, ok := c.Model.(*forecast.Forecast)
	if !ok {
		return nil
	}
	m, err := f.Model()
	if err != nil {
		return err
	}
	eq, err := f.ModelEq()
	if err != nil {
		return err
	}
	j.doc.Model = &m
	j.doc.Equation = eq
	j.doc.Changepoints = f.Changepoints()
	return nil
}

func (j *JSON) RenderError(msg string) error {
	j.doc.Error = msg
	return nil
}

// Document returns the collected outputs
func (j *JSON) Document() Document {
	return j.doc
}

// Encode writes the collected outputs as indented json
func (j *JSON) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(j.doc)
}
