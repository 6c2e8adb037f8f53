// Package render implements the display surfaces of a forecast run: a terminal renderer,
// an html page with echarts charts and a json document.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/aouyang1/revforecast"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Flexoki dark
var (
	ColorBorder    = lipgloss.Color("#575653")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorBlue      = lipgloss.Color("#4385BE")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

const (
	DefaultMaxRows        = 20
	DefaultSparklineWidth = 60

	// elided marks rows left out of a long table
	elided = "..."
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Terminal writes tables, a sparkline chart and errors as styled text
type Terminal struct {
	w io.Writer

	// MaxRows is the most table rows printed, keeping the head and tail of longer tables.
	// Zero prints every row.
	MaxRows int

	// SparklineWidth is the number of characters of the forecast sparkline
	SparklineWidth int

	header lipgloss.Style
	value  lipgloss.Style
	dim    lipgloss.Style
	muted  lipgloss.Style
	hist   lipgloss.Style
	fcst   lipgloss.Style
	err    lipgloss.Style
}

// NewTerminal creates a terminal surface writing to w. Colors are only emitted when w is a
// color capable terminal.
func NewTerminal(w io.Writer) *Terminal {
	r := lipgloss.NewRenderer(w)
	return &Terminal{
		w:              w,
		MaxRows:        DefaultMaxRows,
		SparklineWidth: DefaultSparklineWidth,
		header:         r.NewStyle().Bold(true).Foreground(ColorAccent),
		value:          r.NewStyle().Foreground(ColorText),
		dim:            r.NewStyle().Foreground(ColorBorder),
		muted:          r.NewStyle().Foreground(ColorTextMuted),
		hist:           r.NewStyle().Foreground(ColorBlue),
		fcst:           r.NewStyle().Foreground(ColorOrange),
		err:            r.NewStyle().Bold(true).Foreground(ColorRed),
	}
}

func (t *Terminal) RenderTable(tbl revforecast.Table) error {
	_, err := io.WriteString(t.w, t.table(Truncate(tbl, t.MaxRows)))
	return err
}

func (t *Terminal) RenderChart(c revforecast.Chart) error {
	width := t.SparklineWidth
	if width <= 0 {
		width = DefaultSparklineWidth
	}

	var hist, fcst []float64
	for i := 0; i < c.History.Len(); i++ {
		hist = append(hist, c.History.Y[i])
	}
	for _, p := range c.Window.Rows {
		fcst = append(fcst, p.Yhat)
	}

	// history and forecast share one scale so the jump between them is visible
	lo, hi := valueRange(append(append([]float64{}, hist...), fcst...))
	histWidth := width / 2
	if len(fcst) == 0 {
		histWidth = width
	}
	fcstWidth := width - histWidth

	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(t.header.Render(c.Title))
	b.WriteString("\n  ")
	b.WriteString(t.hist.Render(Sparkline(Resample(hist, histWidth), lo, hi)))
	b.WriteString(t.fcst.Render(Sparkline(Resample(fcst, fcstWidth), lo, hi)))
	b.WriteString("\n")
	b.WriteString(t.muted.Render(fmt.Sprintf("  history %d points, forecast %d days",
		c.History.Len(), c.Window.Len())))
	b.WriteString("\n")

	if n := c.Window.Len(); n > 0 {
		last := c.Window.Rows[n-1]
		b.WriteString(t.value.Render(fmt.Sprintf("  %s  yhat %s  interval [%s, %s]",
			revforecast.FormatTime(last.T),
			revforecast.FormatValue(last.Yhat),
			revforecast.FormatValue(last.Lower),
			revforecast.FormatValue(last.Upper),
		)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *Terminal) RenderError(msg string) error {
	_, err := io.WriteString(t.w, t.err.Render(msg)+"\n")
	return err
}

// table draws a bordered table. The first column is left aligned and every other column
// is right aligned.
func (t *Terminal) table(tbl revforecast.Table) string {
	numCols := len(tbl.Columns)
	if numCols == 0 && len(tbl.Rows) > 0 {
		numCols = len(tbl.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range tbl.Columns {
		widths[i] = len(h)
	}
	for _, row := range tbl.Rows {
		for i, cell := range row {
			if i < numCols && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	if tbl.Title != "" {
		b.WriteString("  ")
		b.WriteString(t.header.Render(tbl.Title))
		b.WriteString("\n")
	}

	border := func(left, mid, right string) {
		b.WriteString(t.dim.Render(left))
		for i, w := range widths {
			b.WriteString(t.dim.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(t.dim.Render(mid))
			}
		}
		b.WriteString(t.dim.Render(right))
		b.WriteString("\n")
	}
	line := func(cells []string, style lipgloss.Style) {
		b.WriteString(t.dim.Render("│"))
		for i := 0; i < numCols; i++ {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			var padded string
			if i == 0 || style.GetBold() {
				padded = fmt.Sprintf(" %-*s ", widths[i], cell)
			} else {
				padded = fmt.Sprintf(" %*s ", widths[i], cell)
			}
			b.WriteString(style.Render(padded))
			if i < numCols-1 {
				b.WriteString(t.dim.Render("│"))
			}
		}
		b.WriteString(t.dim.Render("│"))
		b.WriteString("\n")
	}

	border("╭", "┬", "╮")
	if len(tbl.Columns) > 0 {
		line(tbl.Columns, t.header)
		border("├", "┼", "┤")
	}
	for _, row := range tbl.Rows {
		if len(row) == 1 && row[0] == elided {
			line(row, t.muted)
			continue
		}
		line(row, t.value)
	}
	border("╰", "┴", "╯")
	return b.String()
}

// Truncate keeps the first and last rows of a table longer than maxRows with a single
// elided row between them
func Truncate(tbl revforecast.Table, maxRows int) revforecast.Table {
	if maxRows <= 0 || len(tbl.Rows) <= maxRows {
		return tbl
	}
	head := maxRows / 2
	tail := maxRows - head

	rows := make([][]string, 0, maxRows+1)
	rows = append(rows, tbl.Rows[:head]...)
	rows = append(rows, []string{elided})
	rows = append(rows, tbl.Rows[len(tbl.Rows)-tail:]...)
	return revforecast.Table{
		Title:   tbl.Title,
		Columns: tbl.Columns,
		Rows:    rows,
	}
}

// Sparkline maps values onto unicode blocks between lo and hi
func Sparkline(values []float64, lo, hi float64) string {
	if len(values) == 0 {
		return ""
	}
	span := hi - lo
	if span <= 0 || math.IsNaN(span) {
		span = 1
	}

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(sparkBlocks)-1))
		if idx >= len(sparkBlocks) {
			idx = len(sparkBlocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		buf.WriteRune(sparkBlocks[idx])
	}
	return buf.String()
}

// Resample averages values into at most width buckets
func Resample(values []float64, width int) []float64 {
	if width <= 0 {
		return nil
	}
	if len(values) <= width {
		return values
	}
	res := make([]float64, width)
	for i := range res {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		res[i] = stat.Mean(values[start:end], nil)
	}
	return res
}

func valueRange(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return floats.Min(values), floats.Max(values)
}
