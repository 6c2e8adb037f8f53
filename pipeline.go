// Package revforecast turns an uploaded spreadsheet of dated revenue into a forecast.
// A run reads the file, normalizes the Date and Revenue columns into a series, fits a
// forecast model, predicts the requested horizon and hands every output to a Surface.
package revforecast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/aouyang1/revforecast/ingest"
	"github.com/aouyang1/revforecast/metrics"
	"github.com/aouyang1/revforecast/series"
	"github.com/aouyang1/revforecast/telemetry"
	"github.com/google/uuid"
)

var (
	ErrNoFile    = errors.New("no file uploaded")
	ErrNoSurface = errors.New("no display surface")
)

// State is the position of a run in its lifecycle
type State int

const (
	StateIdle State = iota
	StateFileReceived
	StateValidated
	StateFitted
	StatePredicted
	StateDisplayed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFileReceived:
		return "file_received"
	case StateValidated:
		return "validated"
	case StateFitted:
		return "fitted"
	case StatePredicted:
		return "predicted"
	case StateDisplayed:
		return "displayed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transition is one state change of a run
type Transition struct {
	From State
	To   State
	At   time.Time
}

// Result records everything a run produced. Outputs of stages that never ran are left
// empty.
type Result struct {
	ID      string
	Horizon Horizon
	State   State

	// FailedFrom is the state the run was in when it failed
	FailedFrom  State
	Transitions []Transition
	Err         error

	Series      *series.TimeSeries
	Model       Model
	Predictions *PredictionTable
	Window      DisplayWindow
}

func (r *Result) transition(to State) {
	r.Transitions = append(r.Transitions, Transition{From: r.State, To: to, At: time.Now()})
	r.State = to
}

func (r *Result) fail(err error) {
	r.Err = err
	r.FailedFrom = r.State
	r.transition(StateFailed)
}

// Pipeline runs uploads through ingest, normalization, fitting, prediction and display.
// Every run builds fresh values and a pipeline may be reused across runs.
type Pipeline struct {
	Factory ModelFactory
	Surface Surface
	Logger  *slog.Logger
}

// NewPipeline creates a pipeline with the default model displaying on the given surface
func NewPipeline(surface Surface) *Pipeline {
	return &Pipeline{
		Factory: DefaultModelFactory,
		Surface: surface,
	}
}

// Run executes one run of the pipeline on the default model
func Run(ctx context.Context, surface Surface, name string, r io.Reader, h Horizon) (*Result, error) {
	return NewPipeline(surface).Run(ctx, name, r, h)
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// Run reads the named file and forecasts h months past its last date. The returned
// result is never nil and carries the same error that is returned. A failure renders a
// single message on the surface.
func (p *Pipeline) Run(ctx context.Context, name string, r io.Reader, h Horizon) (*Result, error) {
	res := &Result{
		ID:      uuid.NewString(),
		Horizon: h,
		State:   StateIdle,
	}
	logger := p.logger().With("run_id", res.ID, "file", name, "months", int(h))

	ctx, span := telemetry.StartSpan(ctx, "revforecast.run",
		telemetry.AttrRunID.String(res.ID),
		telemetry.AttrFileName.String(name),
		telemetry.AttrHorizon.Int(int(h)),
	)
	defer span.End()

	start := time.Now()
	err := p.run(ctx, res, name, r, h, logger)
	if err != nil {
		res.fail(err)
		telemetry.RecordError(span, err)
		span.SetAttributes(telemetry.AttrErrorKind.String(Kind(err)))
		logger.Warn("run failed",
			"failed_from", res.FailedFrom.String(), "kind", Kind(err), "err", err)

		if p.Surface != nil {
			if rErr := p.Surface.RenderError(Message(err)); rErr != nil {
				logger.Error("unable to display error", "err", rErr)
			}
		}
	} else {
		logger.Info("run displayed",
			"rows", res.Series.Len(), "predictions", res.Predictions.Len(),
			"duration", time.Since(start))
	}
	span.SetAttributes(telemetry.AttrState.String(res.State.String()))
	metrics.ObserveRun(Kind(err))
	return res, err
}

func (p *Pipeline) run(ctx context.Context, res *Result, name string, r io.Reader, h Horizon, logger *slog.Logger) error {
	if p.Surface == nil {
		return ErrNoSurface
	}
	if err := h.Validate(); err != nil {
		return err
	}
	if r == nil {
		return wrapKind(ErrIngest, ErrNoFile)
	}
	res.transition(StateFileReceived)

	// cancellation is honored only until fitting begins
	if err := ctx.Err(); err != nil {
		return err
	}
	var tbl *ingest.Table
	err := p.stage(ctx, "ingest", logger, func() error {
		var err error
		tbl, err = ingest.Read(name, r)
		return wrapKind(ErrIngest, err)
	})
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	err = p.stage(ctx, "normalize", logger, func() error {
		ts, err := series.Normalize(tbl)
		if err != nil {
			return normalizeKind(err)
		}
		res.Series = ts
		return nil
	})
	if err != nil {
		return err
	}
	metrics.SeriesRows.Observe(float64(res.Series.Len()))
	res.transition(StateValidated)

	if err := p.Surface.RenderTable(SeriesTable(res.Series)); err != nil {
		return wrapKind(ErrDisplay, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	var model Model
	err = p.stage(ctx, "fit", logger, func() error {
		var err error
		model, err = fitModel(res.Series, p.Factory)
		return err
	})
	if err != nil {
		return err
	}
	res.Model = model
	res.transition(StateFitted)

	err = p.stage(ctx, "predict", logger, func() error {
		var err error
		res.Predictions, err = predict(model, res.Series, h)
		return err
	})
	if err != nil {
		return err
	}
	res.transition(StatePredicted)

	res.Window = SelectWindow(res.Predictions, h)
	err = p.stage(ctx, "display", logger, func() error {
		chart := Chart{
			Title:       TitleForecast,
			History:     res.Series,
			Predictions: res.Predictions,
			Window:      res.Window,
			Model:       model,
		}
		if err := p.Surface.RenderChart(chart); err != nil {
			return wrapKind(ErrDisplay, err)
		}
		return wrapKind(ErrDisplay, p.Surface.RenderTable(WindowTable(res.Window)))
	})
	if err != nil {
		return err
	}
	res.transition(StateDisplayed)
	return nil
}

// stage times one step of a run inside its own span
func (p *Pipeline) stage(ctx context.Context, name string, logger *slog.Logger, fn func() error) error {
	_, span := telemetry.StartSpan(ctx, "revforecast."+name)
	defer span.End()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	metrics.ObserveStage(name, elapsed.Seconds())
	telemetry.RecordError(span, err)
	logger.Debug("stage complete", "stage", name, "duration", elapsed, "ok", err == nil)
	return err
}
