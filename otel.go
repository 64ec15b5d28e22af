package nutrisense

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const (
	TracerNameWorkflow = "nutrisense-workflow"
	TracerNameBedrock  = "nutrisense-bedrock"
	TracerNameGemini   = "nutrisense-gemini"
	TracerNameOllama   = "nutrisense-ollama"
)

// OtelConfig configures the OTLP exporters. An empty Endpoint leaves the
// exporters on their own OTEL_* defaults.
type OtelConfig struct {
	Endpoint       string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Headers        string  `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	Insecure       bool    `env:"OTEL_EXPORTER_OTLP_INSECURE,default=false"`
	SampleRatio    float64 `env:"OTEL_TRACES_SAMPLE_RATIO,default=1"`
	ServiceVersion string  `env:"OTEL_SERVICE_VERSION,default=0.1.0"`
	ServiceName    string  `env:"OTEL_SERVICE_NAME,default=nutrisense"`
	DeployEnv      string  `env:"OTEL_DEPLOY_ENV,default=development"`
}

// ParseHeaders reads the "k1=v1,k2=v2" form used by OTEL_EXPORTER_OTLP_HEADERS.
func ParseHeaders(s string) (map[string]string, error) {
	headers := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid OTLP header %q", pair)
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers, nil
}

type otelShutdown func(ctx context.Context) error

// InitOtel initializes the OpenTelemetry SDK, registers the global providers
// and returns them with a shutdown function.
func InitOtel(ctx context.Context) (*trace.TracerProvider, *metric.MeterProvider, otelShutdown, error) {
	var cfg OtelConfig
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, nil, nil, err
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return nil, nil, nil, fmt.Errorf("OTEL_TRACES_SAMPLE_RATIO %.2f outside [0,1]", cfg.SampleRatio)
	}
	headers, err := ParseHeaders(cfg.Headers)
	if err != nil {
		return nil, nil, nil, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.DeployEnv),
	))
	if err != nil {
		return nil, nil, nil, err
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithHeaders(headers)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithHeaders(headers)}
	if cfg.Endpoint != "" {
		traceOpts = append(traceOpts, otlptracegrpc.WithEndpointURL(cfg.Endpoint))
		metricOpts = append(metricOpts, otlpmetricgrpc.WithEndpointURL(cfg.Endpoint))
	}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}

	traceExporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(traceOpts...))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create trace exporter: %w", err)
	}

	metricExporter, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return nil, nil, nil, errors.Join(fmt.Errorf("create metric exporter: %w", err), traceExporter.Shutdown(ctx))
	}

	tracerProvider := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	meterProvider := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(metricExporter)), metric.WithResource(res))

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	shutdown := func(ctx context.Context) error {
		err := errors.Join(
			tracerProvider.Shutdown(ctx),
			meterProvider.Shutdown(ctx),
		)

		// A second shutdown, e.g. from a warm Lambda, is not an error.
		if err != nil && strings.Contains(err.Error(), "exporter is shutdown") {
			return nil
		}

		return err
	}

	return tracerProvider, meterProvider, shutdown, nil
}
