// Package telemetry installs the OpenTelemetry meter and tracer providers
// and exposes the Prometheus scrape endpoint.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// MetricsPath is where the Prometheus handler is mounted.
const MetricsPath = "/metrics"

// Options selects the exporter and identifies the service.
type Options struct {
	Exporter         string
	ServiceName      string
	TraceSampleRatio float64
}

type Provider struct {
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	registry       *prometheus.Registry
}

// Setup builds the providers. With Exporter "none" metrics are recorded
// nowhere and Handler returns nil.
func Setup(opts Options) (*Provider, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = "apontamento"
	}
	res, err := resource.Merge(resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", opts.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	p := &Provider{
		tracerProvider: sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.TraceSampleRatio))),
		),
	}

	switch opts.Exporter {
	case "", "prometheus":
		p.registry = prometheus.NewRegistry()
		p.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exporter, err := otelprom.New(otelprom.WithRegisterer(p.registry))
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}
		p.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(exporter))
	case "none":
	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", opts.Exporter)
	}
	return p, nil
}

// Meter returns a meter from the installed provider, or a no-op meter when
// metrics are disabled.
func (p *Provider) Meter(name string) metric.Meter {
	if p.meterProvider == nil {
		return noop.NewMeterProvider().Meter(name)
	}
	return p.meterProvider.Meter(name)
}

func (p *Provider) TracerProvider() trace.TracerProvider {
	return p.tracerProvider
}

// Handler serves the Prometheus exposition format, or nil when metrics are
// disabled.
func (p *Provider) Handler() http.Handler {
	if p.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// SetGlobal makes the providers the otel globals so instrumentation that
// reads them picks up the same pipeline.
func (p *Provider) SetGlobal() {
	otel.SetTracerProvider(p.tracerProvider)
	if p.meterProvider != nil {
		otel.SetMeterProvider(p.meterProvider)
	}
}

// Shutdown flushes both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.meterProvider != nil {
		errs = append(errs, p.meterProvider.Shutdown(ctx))
	}
	errs = append(errs, p.tracerProvider.Shutdown(ctx))
	return errors.Join(errs...)
}
