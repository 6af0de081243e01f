// Package future provides a settle-once deferred value implementing
// resolver.Thenable.
//
// Continuations run synchronously on the goroutine that settles the future,
// in registration order. A continuation registered after settlement runs
// immediately on the registering goroutine. Fulfilling a future with another
// Thenable adopts that Thenable's eventual settlement.
package future

import (
	"context"
	"sync"

	"github.com/hanpama/resolverlog/internal/resolver"
)

// ErrNoReason is returned by Wait for a future rejected with a nil reason.
var ErrNoReason = resolver.ErrNoReason

type state int

const (
	pending state = iota
	fulfilled
	rejected
)

// Future is a deferred value. The zero value is not usable; use New.
type Future struct {
	mu       sync.Mutex
	state    state
	value    any
	reason   any
	handlers []func()
	done     chan struct{}
}

var _ resolver.Thenable = (*Future)(nil)

// New returns a pending future with its resolve and reject functions. Only
// the first call to either has any effect.
func New() (*Future, func(value any), func(reason any)) {
	f := &Future{done: make(chan struct{})}
	return f, f.resolve, f.reject
}

// Resolved returns a future already fulfilled with value.
func Resolved(value any) *Future {
	f, resolve, _ := New()
	resolve(value)
	return f
}

// Rejected returns a future already rejected with reason.
func Rejected(reason any) *Future {
	f, _, reject := New()
	reject(reason)
	return f
}

// Go runs fn on a new goroutine and settles the returned future with its
// result. A panic in fn rejects the future with the recovered value.
func Go(ctx context.Context, fn func(ctx context.Context) (any, error)) *Future {
	f, resolve, reject := New()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				reject(r)
			}
		}()
		v, err := fn(ctx)
		if err != nil {
			reject(err)
			return
		}
		resolve(v)
	}()
	return f
}

func (f *Future) resolve(value any) {
	if t, ok := resolver.AsThenable(value); ok {
		if t == resolver.Thenable(f) {
			return
		}
		t.Then(
			func(v any) (any, error) { f.settle(fulfilled, v, nil); return v, nil },
			func(r any) (any, error) { f.settle(rejected, nil, r); return nil, resolver.AsError(r) },
		)
		return
	}
	f.settle(fulfilled, value, nil)
}

func (f *Future) reject(reason any) { f.settle(rejected, nil, reason) }

func (f *Future) settle(s state, value, reason any) {
	f.mu.Lock()
	if f.state != pending {
		f.mu.Unlock()
		return
	}
	f.state, f.value, f.reason = s, value, reason
	handlers := f.handlers
	f.handlers = nil
	close(f.done)
	f.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}

// subscribe runs h once f has settled.
func (f *Future) subscribe(h func()) {
	f.mu.Lock()
	if f.state == pending {
		f.handlers = append(f.handlers, h)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	h()
}

// Then registers continuations for fulfillment and rejection and returns a
// future settled by whichever handler runs.
func (f *Future) Then(onFulfilled func(value any) (any, error), onRejected func(reason any) (any, error)) resolver.Thenable {
	next, resolve, reject := New()
	f.subscribe(func() {
		// state is immutable once settled
		if f.state == fulfilled {
			if onFulfilled == nil {
				resolve(f.value)
				return
			}
			run(onFulfilled, f.value, resolve, reject)
			return
		}
		if onRejected == nil {
			reject(f.reason)
			return
		}
		run(onRejected, f.reason, resolve, reject)
	})
	return next
}

// Catch registers a rejection-only continuation.
func (f *Future) Catch(onRejected func(reason any) (any, error)) resolver.Thenable {
	return f.Then(nil, onRejected)
}

func run(h func(any) (any, error), in any, resolve, reject func(any)) {
	defer func() {
		if r := recover(); r != nil {
			reject(r)
		}
	}()
	v, err := h(in)
	if err != nil {
		reject(err)
		return
	}
	resolve(v)
}

// Done is closed once the future has settled.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until f settles or ctx is done. A rejection reason is returned
// as an error normalized with resolver.AsError.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == rejected {
		return nil, resolver.AsError(f.reason)
	}
	return f.value, nil
}
