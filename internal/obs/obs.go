// Package obs bootstraps the engine's OpenTelemetry tracer and meter
// providers. Every subsystem that wants a tracer or meter calls Tracer/Meter
// with its own instrumentation name; this package owns constructing the
// providers and wiring stdout exporters, since the engine exports no
// traces or metrics over the network.
package obs

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

var (
	once           sync.Once
	tracerProvider trace.TracerProvider = otel.GetTracerProvider()
	meterProvider  metric.MeterProvider = otel.GetMeterProvider()
	shutdownFuncs  []func(context.Context) error
)

// Options controls what Init wires up.
type Options struct {
	// Enabled gates whether real exporters are installed. When false (the
	// default unless CORTEX_OTEL=1 is set), Init installs no-op providers
	// so instrumentation calls cost nothing.
	Enabled bool
	// Writer receives exported spans/metrics when Enabled. Defaults to
	// os.Stderr so exported telemetry never pollutes command stdout.
	Writer io.Writer
}

// Init installs the process-wide tracer/meter providers. Safe to call more
// than once; only the first call takes effect. CORTEX_OTEL=1 in the
// environment enables real stdout exporters even if opts.Enabled is false,
// for ad hoc debugging.
func Init(opts Options) error {
	var err error
	once.Do(func() {
		enabled := opts.Enabled || os.Getenv("CORTEX_OTEL") == "1"
		if !enabled {
			return
		}
		w := opts.Writer
		if w == nil {
			w = os.Stderr
		}

		res, resErr := sdkresource.New(context.Background(),
			sdkresource.WithAttributes(semconv.ServiceName("cortex")),
		)
		if resErr != nil {
			err = fmt.Errorf("obs: build resource: %w", resErr)
			return
		}

		traceExp, tErr := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithoutTimestamps())
		if tErr != nil {
			err = fmt.Errorf("obs: build trace exporter: %w", tErr)
			return
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExp),
			sdktrace.WithResource(res),
		)
		tracerProvider = tp
		otel.SetTracerProvider(tp)
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown)

		metricExp, mErr := stdoutmetric.New(
			stdoutmetric.WithWriter(w),
			stdoutmetric.WithoutTimestamps(),
			stdoutmetric.WithTemporalitySelector(func(sdkmetric.InstrumentKind) metricdata.Temporality {
				return metricdata.CumulativeTemporality
			}),
		)
		if mErr != nil {
			err = fmt.Errorf("obs: build metric exporter: %w", mErr)
			return
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		)
		meterProvider = mp
		otel.SetMeterProvider(mp)
		shutdownFuncs = append(shutdownFuncs, mp.Shutdown)
	})
	return err
}

// Shutdown flushes and releases any exporters Init installed.
func Shutdown(ctx context.Context) error {
	var first error
	for _, fn := range shutdownFuncs {
		if e := fn(ctx); e != nil && first == nil {
			first = e
		}
	}
	return first
}

// Tracer returns a named tracer from the process-wide provider.
func Tracer(name string) trace.Tracer { return tracerProvider.Tracer(name) }

// Meter returns a named meter from the process-wide provider.
func Meter(name string) metric.Meter { return meterProvider.Meter(name) }
