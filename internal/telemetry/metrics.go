package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/ggorockee/dollcatch/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var meter metric.Meter

// HTTP metrics
var (
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
)

// Domain metrics
var (
	// ReviewWritesTotal counts review submit/update/delete by outcome
	ReviewWritesTotal metric.Int64Counter
)

// outcomeClassifier labels a write error. Set by the services package so
// this package does not import it.
var outcomeClassifier = func(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}

// SetOutcomeClassifier replaces the error labeller used by RecordReviewWrite
func SetOutcomeClassifier(fn func(error) string) {
	if fn != nil {
		outcomeClassifier = fn
	}
}

// InitMeter initializes OpenTelemetry meter with OTLP HTTP exporter
func InitMeter(ctx context.Context, serviceName, version, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		logger.GetLogger("telemetry").Info("SIGNOZ_ENDPOINT not set, metrics disabled")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(endpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, serviceName, version)
	if err != nil {
		return nil, err
	}

	// Create meter provider with periodic reader
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(15*time.Second),
			),
		),
	)

	otel.SetMeterProvider(mp)
	meter = mp.Meter(serviceName)

	if err := initInstruments(); err != nil {
		return nil, err
	}

	logger.GetLogger("telemetry").Infof("OpenTelemetry metrics initialized with endpoint: %s", endpoint)

	return mp.Shutdown, nil
}

// initInstruments creates HTTP and domain instruments
func initInstruments() error {
	var errs []error
	var err error

	HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	errs = append(errs, err)

	HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	errs = append(errs, err)

	HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	errs = append(errs, err)

	ReviewWritesTotal, err = meter.Int64Counter(
		"dollcatch_review_writes_total",
		metric.WithDescription("Review writes by operation and outcome"),
		metric.WithUnit("{write}"),
	)
	errs = append(errs, err)

	return errors.Join(errs...)
}

// RecordReviewWrite counts one review write. No-op until InitMeter ran.
func RecordReviewWrite(ctx context.Context, op string, err error) {
	if ReviewWritesTotal == nil {
		return
	}
	ReviewWritesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcomeClassifier(err)),
	))
}
