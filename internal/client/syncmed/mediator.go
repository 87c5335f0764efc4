package syncmed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/wheelvault/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const (
	otelScope = "wheelvault/syncmed"
	spanFetch = "syncmed.fetch"

	metricCacheHit         = "syncmed.cache.hit"
	metricCacheMiss        = "syncmed.cache.miss"
	metricRemoteFetch      = "syncmed.remote.fetch"
	metricWriteBackFailure = "syncmed.writeback.failure"
)

// Ops are the operations of one mediator call. Name labels logs and
// metrics, e.g. "cars" or "brands".
type Ops[T any] struct {
	Name   string
	Local  func(ctx context.Context) (T, error)
	Remote func(ctx context.Context) (T, error)
	Save   func(ctx context.Context, data T) error
}

// Mediator owns the background write-backs started by Fetch, FetchList and
// FetchMap. Close it on shutdown.
type Mediator struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	logger logging.Logger
	tracer trace.Tracer

	cntHit     metric.Int64Counter
	cntMiss    metric.Int64Counter
	cntRemote  metric.Int64Counter
	cntFailure metric.Int64Counter
}

type Option func(*options)

type options struct {
	meter  metric.MeterProvider
	tracer trace.TracerProvider
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meter = mp }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp }
}

func New(logger logging.Logger, opts ...Option) *Mediator {
	o := options{meter: otel.GetMeterProvider(), tracer: otel.GetTracerProvider()}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.meter.Meter(otelScope)
	mustCounter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			logger.Error(context.Background(), "creating OTel counter", "name", name, "error", err)
			return noop.Int64Counter{}
		}
		return c
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Mediator{
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
		tracer:     o.tracer.Tracer(otelScope),
		cntHit:     mustCounter(metricCacheHit, "Reads served from the local cache"),
		cntMiss:    mustCounter(metricCacheMiss, "Reads that found the local cache empty"),
		cntRemote:  mustCounter(metricRemoteFetch, "Reads that went to the backend"),
		cntFailure: mustCounter(metricWriteBackFailure, "Cache write-backs that failed"),
	}
}

// Wait blocks until every write-back started so far has finished.
func (m *Mediator) Wait() {
	m.wg.Wait()
}

// Close cancels running write-backs and waits for them. Later calls still
// fetch but no longer write back.
func (m *Mediator) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// Fetch reads a single entity; nil means absent.
func Fetch[T any](ctx context.Context, m *Mediator, forceRefresh bool, ops Ops[*T]) (*T, error) {
	return fetch(ctx, m, forceRefresh, ops, func(v *T) bool { return v != nil })
}

// FetchList reads a list; an empty list means absent.
func FetchList[T any](ctx context.Context, m *Mediator, forceRefresh bool, ops Ops[[]T]) ([]T, error) {
	return fetch(ctx, m, forceRefresh, ops, func(v []T) bool { return len(v) > 0 })
}

// FetchMap reads a map; an empty map means absent.
func FetchMap[K comparable, V any](ctx context.Context, m *Mediator, forceRefresh bool, ops Ops[map[K]V]) (map[K]V, error) {
	return fetch(ctx, m, forceRefresh, ops, func(v map[K]V) bool { return len(v) > 0 })
}

func fetch[T any](ctx context.Context, m *Mediator, forceRefresh bool, ops Ops[T], present func(T) bool) (T, error) {
	var zero T

	ctx, span := m.tracer.Start(ctx, spanFetch, trace.WithAttributes(
		attribute.String("syncmed.family", ops.Name),
		attribute.Bool("syncmed.force", forceRefresh),
	))
	defer span.End()

	family := metric.WithAttributes(attribute.String("family", ops.Name))

	if !forceRefresh {
		local, err := ops.Local(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "local fetch failed")
			return zero, fmt.Errorf("%s: local fetch: %w", ops.Name, err)
		}
		if present(local) {
			m.cntHit.Add(ctx, 1, family)
			span.SetAttributes(attribute.String("syncmed.source", "cache"))
			return local, nil
		}
		m.cntMiss.Add(ctx, 1, family)
	}

	m.cntRemote.Add(ctx, 1, family)
	span.SetAttributes(attribute.String("syncmed.source", "remote"))

	data, err := ops.Remote(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote fetch failed")
		return zero, fmt.Errorf("%s: remote fetch: %w", ops.Name, err)
	}

	if present(data) && ops.Save != nil {
		m.writeBack(ctx, ops.Name, func(ctx context.Context) error {
			return ops.Save(ctx, data)
		})
	}
	return data, nil
}

// writeBack runs save in a goroutine that outlives the caller's context but
// not the mediator.
func (m *Mediator) writeBack(ctx context.Context, name string, save func(context.Context) error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.logger.Debug(ctx, "mediator closed, skipping cache write-back", "family", name)
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(m.ctx, cancel)

	go func() {
		defer m.wg.Done()
		defer cancel()
		defer stop()
		defer func() {
			if p := recover(); p != nil {
				m.cntFailure.Add(bg, 1, metric.WithAttributes(attribute.String("family", name)))
				m.logger.Error(bg, "cache write-back panicked", "family", name, "panic", p)
			}
		}()

		err := save(bg)
		if err == nil {
			return
		}
		if bg.Err() != nil || errors.Is(err, context.Canceled) {
			m.logger.Debug(bg, "cache write-back cancelled", "family", name, "error", err)
			return
		}
		m.cntFailure.Add(bg, 1, metric.WithAttributes(attribute.String("family", name)))
		m.logger.Error(bg, "cache write-back failed", "family", name, "error", err)
	}()
}
