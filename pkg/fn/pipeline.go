package fn

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("pkg/fn")

// Stage is one step of a context-aware pipeline.
type Stage[T, U any] func(context.Context, T) Result[U]

// Then composes two stages. The second stage runs only if the first
// succeeds.
func Then[T, U, V any](first Stage[T, U], second Stage[U, V]) Stage[T, V] {
	return func(ctx context.Context, in T) Result[V] {
		r := first(ctx, in)
		if r.IsErr() {
			return Err[V](r.err)
		}
		return second(ctx, r.val)
	}
}

// Named wraps a stage in an otel span carrying the stage name. Errors are
// recorded on the span.
func Named[T, U any](name string, stage Stage[T, U]) Stage[T, U] {
	return func(ctx context.Context, in T) Result[U] {
		ctx, span := tracer.Start(ctx, name,
			trace.WithAttributes(attribute.String("pipeline.stage", name)))
		defer span.End()

		r := stage(ctx, in)
		if r.IsErr() {
			span.RecordError(r.err)
			span.SetStatus(codes.Error, r.err.Error())
		}
		return r
	}
}

// Tap runs a side effect on success and passes the value through. Errors
// from the side effect are ignored.
func Tap[T any](f func(context.Context, T)) Stage[T, T] {
	return func(ctx context.Context, in T) Result[T] {
		f(ctx, in)
		return Ok(in)
	}
}
