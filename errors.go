package revforecast

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aouyang1/revforecast/series"
)

// Every failed run wraps its cause in exactly one of these kinds
var (
	ErrIngest    = errors.New("unable to read file")
	ErrSchema    = errors.New("invalid columns")
	ErrParse     = errors.New("unable to parse values")
	ErrEmptyData = errors.New("no valid rows")
	ErrModel     = errors.New("unable to forecast")
	ErrHorizon   = errors.New("forecast horizon out of range")
	ErrDisplay   = errors.New("unable to display results")
)

const genericMessagePrefix = "Something went wrong: "

// wrapKind tags a stage error with its kind
func wrapKind(kind, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// normalizeKind classifies a normalization failure
func normalizeKind(err error) error {
	switch {
	case errors.Is(err, series.ErrMissingColumns):
		return wrapKind(ErrSchema, err)
	case errors.Is(err, series.ErrNoRows):
		return wrapKind(ErrEmptyData, err)
	default:
		return wrapKind(ErrParse, err)
	}
}

// Kind returns a short stable name for the kind of a run error, used as a metric label
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrIngest):
		return "ingest"
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrEmptyData):
		return "empty_data"
	case errors.Is(err, ErrModel):
		return "model"
	case errors.Is(err, ErrHorizon):
		return "horizon"
	case errors.Is(err, ErrDisplay):
		return "display"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unknown"
	}
}

// Message converts a run error into the single message shown to the user
func Message(err error) string {
	if err == nil {
		return ""
	}
	var mErr *series.MissingColumnsError
	if errors.As(err, &mErr) {
		return fmt.Sprintf(
			"Your file must include '%s' and '%s' columns (missing: %s)",
			series.ColumnDate, series.ColumnRevenue, strings.Join(mErr.Columns, ", "),
		)
	}
	return genericMessagePrefix + err.Error()
}
