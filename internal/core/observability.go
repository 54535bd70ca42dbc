package core

import (
	"context"
	"time"
)

// Logger receives structured operational events from the service.
type Logger interface {
	Log(ctx context.Context, event string, fields map[string]any)
}

// MetricsRecorder receives timing and outcome data for service operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan terminates a span, recording the outcome error if any.
type TraceSpan interface {
	End(err error)
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithLogger attaches a structured logger to the service.
func WithLogger(l Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithMetricsRecorder attaches a metrics recorder to the service.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) { s.metrics = rec }
}

// WithTracer attaches a tracer to the service.
func WithTracer(tr Tracer) ServiceOption {
	return func(s *Service) { s.tracer = tr }
}

// instrument wraps a service operation with tracing and metrics. The returned
// finish func must be called with the operation outcome.
func (s *Service) instrument(ctx context.Context, operation string) (context.Context, func(error)) {
	started := time.Now()
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}
	return ctx, func(err error) {
		if span != nil {
			span.End(err)
		}
		elapsed := time.Since(started)
		if s.metrics != nil {
			s.metrics.Observe(ctx, operation, err == nil, elapsed)
		}
		if s.logger != nil {
			fields := map[string]any{
				"operation":   operation,
				"duration_ms": float64(elapsed) / float64(time.Millisecond),
				"success":     err == nil,
			}
			if err != nil {
				fields["error"] = err.Error()
			}
			s.logger.Log(ctx, "service.operation", fields)
		}
	}
}
