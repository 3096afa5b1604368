package pool

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/utkarsh5026/futures/pool"

func (p *Pool[T, R]) startTaskSpan(ctx context.Context, ev TaskEvent) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "futures.task",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("task.index", ev.Index),
			attribute.String("batch.id", ev.Batch),
			attribute.Int("worker.id", ev.WorkerID),
			attribute.Int("task.attempt", ev.Attempt),
		),
	)
}

func (p *Pool[T, R]) startBatchSpan(ctx context.Context, batch string, size int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "futures.submit",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("batch.id", batch),
			attribute.Int("batch.size", size),
		),
	)
}

// endSpan records err, if any, as the span status and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
