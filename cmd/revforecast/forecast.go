package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aouyang1/revforecast"
	"github.com/aouyang1/revforecast/forecast"
	"github.com/aouyang1/revforecast/render"
	"github.com/spf13/cobra"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

var (
	flagMonths int
	flagFormat string
	flagChart  string
)

var forecastCmd = &cobra.Command{
	Use:   "forecast <file>",
	Short: "Forecast revenue from a csv or xlsx file",
	Args:  cobra.ExactArgs(1),
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().IntVarP(&flagMonths, "months", "m", int(revforecast.DefaultHorizon), "Months to forecast (1 to 24)")
	forecastCmd.Flags().StringVarP(&flagFormat, "format", "f", formatTable, "Output format (table or json)")
	forecastCmd.Flags().StringVar(&flagChart, "chart", "", "Also write the forecast chart to this html file")
	rootCmd.AddCommand(forecastCmd)
}

// chartRecorder keeps the chart shown on the wrapped surface
type chartRecorder struct {
	revforecast.Surface
	chart *revforecast.Chart
}

func (c *chartRecorder) RenderChart(chart revforecast.Chart) error {
	c.chart = &chart
	return c.Surface.RenderChart(chart)
}

func runForecast(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	h := cfg.Forecast.Horizon()
	if cmd.Flags().Changed("months") {
		h = revforecast.Horizon(flagMonths)
	}

	var (
		surface revforecast.Surface
		doc     *render.JSON
	)
	switch flagFormat {
	case formatTable:
		surface = render.NewTerminal(cmd.OutOrStdout())
	case formatJSON:
		doc = render.NewJSON()
		surface = doc
	default:
		return fmt.Errorf("unknown format %q, expected %s or %s", flagFormat, formatTable, formatJSON)
	}

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", revforecast.ErrIngest, err)
	}
	defer f.Close()

	rec := &chartRecorder{Surface: surface}
	p := revforecast.NewPipeline(rec)
	p.Factory = cfg.Forecast.Factory()
	p.Logger = logger

	res, runErr := p.Run(cmd.Context(), filepath.Base(path), f, h)
	if doc != nil {
		if err := doc.Encode(cmd.OutOrStdout()); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	if flagVerbose {
		if err := printModel(cmd.ErrOrStderr(), res.Model); err != nil {
			return err
		}
	}

	if flagChart != "" && rec.chart != nil {
		if err := writeChartFile(flagChart, *rec.chart); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "  Chart written to %s\n", flagChart)
	}
	return nil
}

func writeChartFile(path string, c revforecast.Chart) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create chart file, %w", err)
	}
	defer f.Close()
	return render.WriteChart(f, c)
}

// printModel writes the equation and weights of a fitted forecast. Other models print nothing.
func printModel(w io.Writer, m revforecast.Model) error {
	f, ok := m.(*forecast.Forecast)
	if !ok {
		return nil
	}
	eq, err := f.ModelEq()
	if err != nil {
		return err
	}
	model, err := f.Model()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s\n", eq); err != nil {
		return err
	}
	return model.TablePrint(w, "", "  ")
}
