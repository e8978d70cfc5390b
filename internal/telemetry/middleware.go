package telemetry

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the configuration for the tracing middleware
type Config struct {
	ServiceName string
	Skip        func(*fiber.Ctx) bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ServiceName: "dollcatch-api",
		Skip: func(c *fiber.Ctx) bool {
			switch c.Path() {
			case "/healthz", "/v1/healthz", "/v1/liveness", "/v1/readiness", "/metrics":
				return true
			}
			return false
		},
	}
}

// New returns a tracing and metrics middleware for Fiber
func New(config ...Config) fiber.Handler {
	cfg := DefaultConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(c *fiber.Ctx) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return c.Next()
		}

		start := time.Now()
		method := c.Method()

		if HTTPActiveRequests != nil {
			HTTPActiveRequests.Add(c.Context(), 1, metric.WithAttributes(attribute.String("method", method)))
			defer HTTPActiveRequests.Add(c.Context(), -1, metric.WithAttributes(attribute.String("method", method)))
		}

		tr := otel.GetTracerProvider().Tracer(cfg.ServiceName)

		// Extract context from incoming request headers
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := tr.Start(ctx, method+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethodKey.String(method),
				semconv.HTTPURLKey.String(c.OriginalURL()),
				semconv.HTTPTargetKey.String(c.Path()),
				semconv.NetHostNameKey.String(c.Hostname()),
				semconv.HTTPUserAgentKey.String(string(c.Request().Header.UserAgent())),
			),
		)
		defer span.End()

		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			span.SetAttributes(attribute.String("request.id", rid))
		}

		c.Locals("otel-span", span)
		c.SetUserContext(ctx)

		err := c.Next()

		// route template keeps label cardinality bounded
		route := c.Route().Path
		span.SetName(method + " " + route)
		span.SetAttributes(semconv.HTTPRouteKey.String(route))

		status := c.Response().StatusCode()
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.Bool("error", true))
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(status))

		attrs := metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", route),
			attribute.String("status", strconv.Itoa(status)),
		)
		if HTTPRequestsTotal != nil {
			HTTPRequestsTotal.Add(c.Context(), 1, attrs)
		}
		if HTTPRequestDuration != nil {
			HTTPRequestDuration.Record(c.Context(), time.Since(start).Seconds(), attrs)
		}

		return err
	}
}

// SpanFromContext gets the current span from fiber context
func SpanFromContext(c *fiber.Ctx) trace.Span {
	span, ok := c.Locals("otel-span").(trace.Span)
	if !ok {
		return trace.SpanFromContext(c.UserContext())
	}
	return span
}
