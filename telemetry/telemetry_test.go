package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitDisabled(t *testing.T) {
	tp, err := Init(context.Background(), NewDefaultConfig())
	require.Nil(t, err)
	assert.Nil(t, tp)
	assert.Nil(t, Shutdown(context.Background(), tp))

	tp, err = Init(context.Background(), nil)
	require.Nil(t, err)
	assert.Nil(t, tp)
}

func TestInitInvalidSamplingRate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Endpoint = "localhost:4317"
	cfg.SamplingRate = 1.5

	_, err := Init(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrInvalidSamplingRate)
}

func TestStartSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)

	ctx, run := StartSpan(context.Background(), "run", AttrRunID.String("abc"))
	_, stage := StartSpan(ctx, "fit", AttrRows.Int(3))
	stage.End()
	run.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "fit", spans[0].Name)
	assert.Equal(t, "run", spans[1].Name)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Contains(t, spans[0].Attributes, AttrRows.Int(3))

	RecordError(nil, errors.New("ignored"))
	RecordError(run, nil)
}

func TestRecordError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	_, span := tp.Tracer(TracerName).Start(context.Background(), "fit")
	RecordError(span, errors.New("boom"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "boom", spans[0].Status.Description)
	require.Len(t, spans[0].Events, 1)
}
