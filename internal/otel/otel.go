// Package otel turns server events into OpenTelemetry spans.
package otel

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hanpama/resolverlog/internal/eventbus"
	"github.com/hanpama/resolverlog/internal/events"
	"github.com/hanpama/resolverlog/internal/reqid"
)

const instrumentationName = "github.com/hanpama/resolverlog"

// Setup exports traces to the OTLP gRPC endpoint and subscribes span
// builders to the global event bus. If endpoint is empty, no telemetry is
// configured and the returned shutdown is a no-op.
func Setup(ctx context.Context, endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Register(tp.Tracer(instrumentationName))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

type operationSpan struct {
	span           trace.Span
	resolverErrors atomic.Int64
}

type subscriber struct {
	tracer    trace.Tracer
	httpSpans sync.Map // rid -> trace.Span
	gqlSpans  sync.Map // rid -> *operationSpan
}

// Register subscribes span builders for HTTP requests, GraphQL operations
// and resolver errors to the global event bus, using tracer for new spans.
// The returned function removes the subscriptions.
func Register(tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	return s.register()
}

func (s *subscriber) register() func() {
	unsubs := []func(){
		eventbus.Subscribe(s.httpStart),
		eventbus.Subscribe(s.httpFinish),
		eventbus.Subscribe(s.graphqlStart),
		eventbus.Subscribe(s.graphqlFinish),
		eventbus.Subscribe(s.resolverError),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *subscriber) httpStart(ctx context.Context, e events.HTTPStart) {
	rid, _ := reqid.FromContext(ctx)
	_, span := s.tracer.Start(ctx, "http.request", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		semconv.HTTPMethodKey.String(e.Request.Method),
		attribute.String("http.target", e.Request.URL.Path),
		attribute.Int64(reqid.FieldKey, rid),
	)
	s.httpSpans.Store(rid, span)
}

func (s *subscriber) httpFinish(ctx context.Context, e events.HTTPFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.httpSpans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
	if e.Status >= 500 {
		span.SetStatus(codes.Error, "")
	}
	span.End()
}

func (s *subscriber) graphqlStart(ctx context.Context, e events.GraphQLStart) {
	rid, _ := reqid.FromContext(ctx)
	parent := ctx
	if v, ok := s.httpSpans.Load(rid); ok {
		parent = trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	_, span := s.tracer.Start(parent, "graphql.operation")
	span.SetAttributes(
		attribute.String("graphql.operation.name", e.OperationName),
		attribute.String("graphql.operation.type", e.OperationType),
	)
	s.gqlSpans.Store(rid, &operationSpan{span: span})
}

func (s *subscriber) graphqlFinish(ctx context.Context, e events.GraphQLFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.gqlSpans.LoadAndDelete(rid)
	if !ok {
		return
	}
	op := v.(*operationSpan)
	op.span.SetAttributes(
		attribute.Int("graphql.error_count", len(e.Errors)),
		attribute.Int64("graphql.resolver_error_count", op.resolverErrors.Load()),
	)
	if len(e.Errors) > 0 {
		op.span.SetStatus(codes.Error, e.Errors[0].Error())
	}
	op.span.End()
}

// resolverError records the error on the operation span of the request,
// falling back to the span in ctx.
func (s *subscriber) resolverError(ctx context.Context, e events.ResolverError) {
	opts := trace.WithAttributes(attribute.String("graphql.field", e.Hint))
	rid, ok := reqid.FromContext(ctx)
	if ok {
		if v, ok := s.gqlSpans.Load(rid); ok {
			op := v.(*operationSpan)
			op.resolverErrors.Add(1)
			op.span.RecordError(e.Err, opts)
			return
		}
	}
	trace.SpanFromContext(ctx).RecordError(e.Err, opts)
}
