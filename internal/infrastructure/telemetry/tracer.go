// Package telemetry inicializa el TracerProvider de OpenTelemetry del servicio.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// Config exportación OTLP por gRPC.
type Config struct {
	Enabled        bool
	Endpoint       string // host:port del collector
	SamplingRatio  float64
	ServiceName    string
	ServiceVersion string
	Insecure       bool
}

// TracerProvider envuelve el provider del SDK. Deshabilitado no registra nada y
// los spans del servicio quedan en el no-op global.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	log      *logger.Logger
}

// NewTracerProvider arma el exportador OTLP y registra el provider y el propagador globales.
func NewTracerProvider(ctx context.Context, cfg Config, log *logger.Logger) (*TracerProvider, error) {
	log = log.Component("telemetry")
	if !cfg.Enabled {
		log.Info().Msg("trazas deshabilitadas")
		return &TracerProvider{log: log}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: exportador OTLP: %w", err)
	}
	tp, err := NewWithExporter(cfg, exporter, log)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		return nil, err
	}
	log.Info().
		Str("endpoint", cfg.Endpoint).
		Float64("sampling_ratio", cfg.SamplingRatio).
		Str("service_name", cfg.ServiceName).
		Msg("trazas OpenTelemetry inicializadas")
	return tp, nil
}

// NewWithExporter registra un provider global sobre exporter; cfg.Enabled no se consulta.
func NewWithExporter(cfg Config, exporter sdktrace.SpanExporter, log *logger.Logger) (*TracerProvider, error) {
	version := cfg.ServiceVersion
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.SamplingRatio)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{provider: provider, log: log}, nil
}

// Sampler respeta la decisión del span padre; sin padre muestrea según ratio.
func Sampler(ratio float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case ratio >= 1:
		root = sdktrace.AlwaysSample()
	case ratio <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root)
}

func (tp *TracerProvider) IsEnabled() bool {
	return tp.provider != nil
}

// Tracer devuelve el global si el provider está deshabilitado.
func (tp *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if tp.provider == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return tp.provider.Tracer(name, opts...)
}

// ForceFlush exporta los spans pendientes del batcher.
func (tp *TracerProvider) ForceFlush(ctx context.Context) error {
	if tp.provider == nil {
		return nil
	}
	return tp.provider.ForceFlush(ctx)
}

// Shutdown vacía el batcher y cierra el exportador; máximo 10s.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := tp.provider.Shutdown(ctx); err != nil {
		tp.log.Error().Err(err).Msg("cierre del provider de trazas")
		return fmt.Errorf("telemetry: shutdown: %w", err)
	}
	tp.log.Info().Msg("provider de trazas cerrado")
	return nil
}
