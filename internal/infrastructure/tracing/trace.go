package tracing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/shared/id"
)

type contextKey int

const traceIDKey contextKey = iota

// Span is one traced operation.
type Span struct {
	TraceID    id.RequestID
	Name       string
	StartTime  time.Time
	Duration   time.Duration
	StatusCode int
	Tags       map[string]string
	Error      error
}

// Tracer logs finished spans.
type Tracer struct {
	service string
	logger  *logging.Logger
}

// New creates a tracer for service.
func New(service string, logger *logging.Logger) *Tracer {
	return &Tracer{
		service: service,
		logger:  logging.OrNop(logger).Named("trace"),
	}
}

// StartSpan starts a span, continuing the trace carried by ctx or opening
// a new one.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID := FromContext(ctx)
	if traceID == "" {
		traceID = id.NewRequestID()
	}

	span := &Span{
		TraceID:   traceID,
		Name:      name,
		StartTime: time.Now(),
		Tags:      make(map[string]string),
	}
	return span, WithTraceID(ctx, traceID)
}

// Finish records the span duration.
func (s *Span) Finish() {
	s.Duration = time.Since(s.StartTime)
}

// SetTag adds a tag to the span
func (s *Span) SetTag(key, value string) {
	s.Tags[key] = value
}

// Submit logs a finished span. Server errors are logged as warnings.
func (t *Tracer) Submit(span *Span) {
	fields := []zap.Field{
		zap.String("trace_id", string(span.TraceID)),
		zap.String("operation", span.Name),
		zap.String("service", t.service),
		zap.Duration("duration", span.Duration),
		zap.Int("status", span.StatusCode),
		zap.Any("tags", span.Tags),
	}
	if span.Error != nil {
		fields = append(fields, zap.Error(span.Error))
	}

	if span.StatusCode >= 500 || span.Error != nil {
		t.logger.Warn("Span failed", fields...)
		return
	}
	t.logger.Debug("Span finished", fields...)
}

// WithTraceID returns ctx carrying traceID.
func WithTraceID(ctx context.Context, traceID id.RequestID) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// FromContext returns the trace ID carried by ctx, if any.
func FromContext(ctx context.Context) id.RequestID {
	traceID, _ := ctx.Value(traceIDKey).(id.RequestID)
	return traceID
}
