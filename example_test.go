package revforecast_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/aouyang1/revforecast"
)

type titleSurface struct{}

func (titleSurface) RenderTable(t revforecast.Table) error {
	fmt.Printf("table %q with %d rows\n", t.Title, len(t.Rows))
	return nil
}

func (titleSurface) RenderChart(c revforecast.Chart) error {
	fmt.Printf("chart %q with %d predictions\n", c.Title, c.Predictions.Len())
	return nil
}

func (titleSurface) RenderError(msg string) error {
	fmt.Println(msg)
	return nil
}

func ExampleRun() {
	upload := strings.NewReader("Date,Revenue,Notes\n2023-01-01,100,launch\n2023-02-01,110,\n2023-03-01,105,\n")

	res, err := revforecast.Run(context.Background(), titleSurface{}, "revenue.csv", upload, 1)
	if err != nil {
		return
	}
	fmt.Println(res.State, res.Window.Len())

	_, err = revforecast.Run(context.Background(), titleSurface{}, "revenue.csv", strings.NewReader("Day,Revenue\n"), 1)
	fmt.Println(revforecast.Kind(err))
	// Output:
	// table "Uploaded Data" with 3 rows
	// chart "Forecast" with 33 predictions
	// table "Forecasted Values" with 30 rows
	// displayed 30
	// Your file must include 'Date' and 'Revenue' columns (missing: Date)
	// schema
}
