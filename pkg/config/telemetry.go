package config

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
	"github.com/fwt-tools/fwt-dashboard-sync-go/version"
)

type Telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

func (t *Telemetry) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			log.Warn("could not shutdown tracer provider", log.ErrorField(err))
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			log.Warn("could not shutdown meter provider", log.ErrorField(err))
		}
	}
}

// SetupTelemetry initializes trace and metric providers. When no telemetry
// endpoint is configured the stdout exporters are used.
func SetupTelemetry(ctx context.Context) (*Telemetry, error) {
	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName("fwt-dashboard-sync"),
			semconv.ServiceVersion(version.Version),
		))
	if err != nil {
		return nil, err
	}

	ret := &Telemetry{}
	if ret.tracerProvider, err = setupTraces(ctx, res); err != nil {
		return nil, err
	}
	if ret.meterProvider, err = setupMetrics(ctx, res); err != nil {
		return nil, err
	}
	otel.SetTracerProvider(ret.tracerProvider)
	otel.SetMeterProvider(ret.meterProvider)
	return ret, nil
}

func setupTraces(ctx context.Context, res *resource.Resource) (
	*sdktrace.TracerProvider, error,
) {
	var exporter sdktrace.SpanExporter
	var err error
	if TelemetryEndpoint != "" {
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(TelemetryEndpoint),
			otlptracegrpc.WithInsecure())
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

func setupMetrics(ctx context.Context, res *resource.Resource) (
	*sdkmetric.MeterProvider, error,
) {
	var exporter sdkmetric.Exporter
	var err error
	if TelemetryEndpoint != "" {
		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(TelemetryEndpoint),
			otlpmetricgrpc.WithInsecure())
	} else {
		exporter, err = stdoutmetric.New()
	}
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(res),
	), nil
}
