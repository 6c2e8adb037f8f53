package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/aouyang1/revforecast"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

//go:embed templates/*
var templateFS embed.FS

var pageTemplate = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

const (
	DefaultPageTitle = "Revenue Forecast"
	DefaultAction    = "/forecast"

	FileField   = "file"
	MonthsField = "months"

	chartHeight = 1000

	// missingValue leaves a gap in an echarts series
	missingValue = "-"
)

// Page collects the outputs of a run into the html upload page. An empty page is the
// upload form alone.
type Page struct {
	Title   string
	Action  string
	Horizon revforecast.Horizon

	Tables []revforecast.Table
	Error  string

	chartTitle string
	lines      []*charts.Line
}

// NewPage creates an upload page with the slider set to h
func NewPage(h revforecast.Horizon) *Page {
	return &Page{
		Title:   DefaultPageTitle,
		Action:  DefaultAction,
		Horizon: h,
	}
}

func (p *Page) RenderTable(t revforecast.Table) error {
	p.Tables = append(p.Tables, t)
	return nil
}

func (p *Page) RenderChart(c revforecast.Chart) error {
	p.chartTitle = c.Title
	p.lines = append(p.lines, ForecastChart(c))
	if comp := ComponentsChart(c); comp != nil {
		p.lines = append(p.lines, comp)
	}
	return nil
}

func (p *Page) RenderError(msg string) error {
	p.Error = msg
	return nil
}

type pageData struct {
	Title       string
	Action      string
	FileField   string
	MonthsField string
	Months      int
	MinMonths   int
	MaxMonths   int
	Tables      []revforecast.Table
	Error       string
	ChartTitle  string
	ChartHTML   string
	ChartHeight int
}

// Render writes the page as html. Charts are embedded as a standalone echarts document.
func (p *Page) Render(w io.Writer) error {
	months := p.Horizon
	if months.Validate() != nil {
		months = revforecast.DefaultHorizon
	}
	data := pageData{
		Title:       p.Title,
		Action:      p.Action,
		FileField:   FileField,
		MonthsField: MonthsField,
		Months:      int(months),
		MinMonths:   int(revforecast.MinHorizon),
		MaxMonths:   int(revforecast.MaxHorizon),
		Tables:      p.Tables,
		Error:       p.Error,
		ChartTitle:  p.chartTitle,
		ChartHeight: chartHeight,
	}

	if len(p.lines) > 0 {
		var buf bytes.Buffer
		if err := renderCharts(&buf, p.lines); err != nil {
			return err
		}
		data.ChartHTML = buf.String()
	}

	if err := pageTemplate.ExecuteTemplate(w, "page.html", data); err != nil {
		return fmt.Errorf("unable to render page, %w", err)
	}
	return nil
}

// WriteChart writes a standalone html document with the forecast and component charts
func WriteChart(w io.Writer, c revforecast.Chart) error {
	lines := []*charts.Line{ForecastChart(c)}
	if comp := ComponentsChart(c); comp != nil {
		lines = append(lines, comp)
	}
	return renderCharts(w, lines)
}

func renderCharts(w io.Writer, lines []*charts.Line) error {
	page := components.NewPage()
	for _, line := range lines {
		page.AddCharts(line)
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("unable to render charts, %w", err)
	}
	return nil
}

func newLine(title, subtitle string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title:    title,
				Subtitle: subtitle,
			},
		),
		charts.WithTooltipOpts(
			opts.Tooltip{
				Trigger: "axis",
			},
		),
		charts.WithDataZoomOpts(
			opts.DataZoom{
				Type:  "slider",
				Start: 0,
				End:   100,
			},
		),
	)
	return line
}

// ForecastChart plots the actual history with the fitted and forecast values and their
// interval bounds over the prediction times
func ForecastChart(c revforecast.Chart) *charts.Line {
	subtitle := fmt.Sprintf("%d days forecast", c.Window.Len())
	line := newLine(c.Title, subtitle)

	// repeated dates plot the mean of their values
	sums := make(map[int64]float64, c.History.Len())
	counts := make(map[int64]int, c.History.Len())
	for i := 0; i < c.History.Len(); i++ {
		key := c.History.T[i].UnixNano()
		sums[key] += c.History.Y[i]
		counts[key]++
	}

	n := c.Predictions.Len()
	x := make([]string, 0, n)
	lineDataActual := make([]opts.LineData, 0, n)
	lineDataForecast := make([]opts.LineData, 0, n)
	lineDataUpper := make([]opts.LineData, 0, n)
	lineDataLower := make([]opts.LineData, 0, n)

	for i := 0; i < n; i++ {
		p := c.Predictions.Rows[i]
		x = append(x, revforecast.FormatTime(p.T))

		var actualVal interface{} = missingValue
		if cnt := counts[p.T.UnixNano()]; cnt > 0 {
			actualVal = sums[p.T.UnixNano()] / float64(cnt)
		}
		lineDataActual = append(lineDataActual, opts.LineData{Value: actualVal})
		lineDataForecast = append(lineDataForecast, opts.LineData{Value: p.Yhat})
		lineDataUpper = append(lineDataUpper, opts.LineData{Value: p.Upper})
		lineDataLower = append(lineDataLower, opts.LineData{Value: p.Lower})
	}

	line.SetXAxis(x).
		AddSeries("Actual", lineDataActual).
		AddSeries("Forecast", lineDataForecast).
		AddSeries("Upper", lineDataUpper).
		AddSeries("Lower", lineDataLower)
	return line
}

// ComponentsChart plots the trend and seasonality of the predictions. It returns nil when
// the model reported no components.
func ComponentsChart(c revforecast.Chart) *charts.Line {
	p := c.Predictions
	if p.Len() == 0 || (len(p.Trend) != p.Len() && len(p.Seasonality) != p.Len()) {
		return nil
	}
	line := newLine("Components", "")

	x := make([]string, 0, p.Len())
	for _, row := range p.Rows {
		x = append(x, revforecast.FormatTime(row.T))
	}
	line.SetXAxis(x)

	if len(p.Trend) == p.Len() {
		line.AddSeries("Trend", toLineData(p.Trend))
	}
	if len(p.Seasonality) == p.Len() {
		line.AddSeries("Seasonality", toLineData(p.Seasonality))
	}
	return line
}

func toLineData(y []float64) []opts.LineData {
	res := make([]opts.LineData, 0, len(y))
	for _, v := range y {
		res = append(res, opts.LineData{Value: v})
	}
	return res
}
