package telemetry

import (
	"context"

	"github.com/wippyai/simbridge/callback"
	"github.com/wippyai/simbridge/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/wippyai/simbridge"

// SpanName is the name of the span around each invocation.
const SpanName = "callback.invoke"

// Tracer records one span per callback invocation, with the call's log
// entries as span events.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

var _ callback.Observer = (*Tracer)(nil)

// NewTracer creates a tracer on its own SDK provider.
func NewTracer(opts ...sdktrace.TracerProviderOption) *Tracer {
	provider := sdktrace.NewTracerProvider(opts...)
	return &Tracer{
		provider: provider,
		tracer:   provider.Tracer(instrumentationName),
	}
}

// NewTracerFrom wraps an existing provider. Shutdown is then a no-op.
func NewTracerFrom(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(instrumentationName)}
}

// Shutdown flushes and stops the provider created by NewTracer.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

func (t *Tracer) Observe(ctx context.Context, callbackID string) (context.Context, func(*callback.Result, error)) {
	ctx, span := t.tracer.Start(ctx, SpanName,
		trace.WithAttributes(attribute.String("callback.id", callbackID)))

	return ctx, func(res *callback.Result, err error) {
		defer span.End()

		if res != nil {
			span.SetAttributes(
				attribute.String("call.id", res.CallID),
				attribute.Bool("call.fatal", res.Fatal),
				attribute.Int("call.log_entries", len(res.Entries)))
			for _, e := range res.Entries {
				span.AddEvent("log", trace.WithTimestamp(e.Time), trace.WithAttributes(
					attribute.String("log.level", e.Level.String()),
					attribute.String("log.message", e.Message)))
			}
		}

		switch {
		case err != nil:
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.kind", string(errors.KindOf(err))))
			span.SetStatus(codes.Error, err.Error())
		case res != nil && res.Fatal:
			span.SetStatus(codes.Error, res.FatalMessage)
		default:
			span.SetStatus(codes.Ok, "")
		}
	}
}
