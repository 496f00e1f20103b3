package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stockledger-api/internal/infrastructure/telemetry"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

func TestNewTracerProvider_DeshabilitadoNoExporta(t *testing.T) {
	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:     false,
		Endpoint:    "localhost:14317",
		ServiceName: "stock-ledger-test",
	}, logger.Nop())
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("x"))
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewWithExporter_ExportaSpansConRecurso(t *testing.T) {
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()
	tp, err := telemetry.NewWithExporter(telemetry.Config{
		ServiceName:   "stock-ledger-test",
		SamplingRatio: 1,
	}, exporter, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	assert.True(t, tp.IsEnabled())
	_, span := tp.Tracer("test").Start(ctx, "StockLedgerService.Post")
	span.SetAttributes(attribute.String("tenant_id", "t1"))
	span.End()
	require.NoError(t, tp.ForceFlush(ctx))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "StockLedgerService.Post", spans[0].Name)
	assert.Contains(t, spans[0].Resource.Attributes(), attribute.String("service.name", "stock-ledger-test"))
}

func TestNewWithExporter_MuestreoCeroNoExporta(t *testing.T) {
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()
	tp, err := telemetry.NewWithExporter(telemetry.Config{ServiceName: "s", SamplingRatio: 0}, exporter, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(ctx, "descartado")
	span.End()
	require.NoError(t, tp.ForceFlush(ctx))
	assert.Empty(t, exporter.GetSpans())
}

func TestSampler_RespetaAlPadre(t *testing.T) {
	parent := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{1},
		TraceFlags: trace.FlagsSampled,
	}))
	res := telemetry.Sampler(0).ShouldSample(sdktrace.SamplingParameters{
		ParentContext: parent,
		TraceID:       trace.TraceID{1},
		Name:          "hijo",
	})
	assert.Equal(t, sdktrace.RecordAndSample, res.Decision)

	res = telemetry.Sampler(0).ShouldSample(sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       trace.TraceID{2},
		Name:          "raíz",
	})
	assert.Equal(t, sdktrace.Drop, res.Decision)
}
