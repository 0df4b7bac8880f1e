package disposable

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

// AsyncDisposer is implemented by handles whose release takes a context and
// may block.
type AsyncDisposer interface {
	Dispose(ctx context.Context) error
}

// ReleaseResult is delivered by the channels returned from
// ReleaseReferenceAsync and DisposeAsync.
type ReleaseResult struct {
	// Count is the number of references left after the release.
	Count int64

	// Err is the error returned by the release callback, if it ran.
	Err error
}

// AsyncOwner is the counterpart of Owner for release callbacks that take a
// context and may block. The count is kept as an immutable Counter swapped
// in atomically.
type AsyncOwner[T any] struct {
	count atomic.Pointer[Counter]

	value   T
	release func(context.Context, T) error
}

func newAsyncOwner[T any](value T, release func(context.Context, T) error) *AsyncOwner[T] {
	o := &AsyncOwner[T]{
		value:   value,
		release: release,
	}

	initial := NewCounter(1)
	o.count.Store(&initial)

	return o
}

// Count returns a snapshot of the number of outstanding leases.
func (o *AsyncOwner[T]) Count() int64 {
	return o.count.Load().Value()
}

// Value returns the shared value. It returns ErrorDisposed once the last
// lease was released.
func (o *AsyncOwner[T]) Value() (T, error) {
	if o.count.Load().IsZero() {
		var zero T
		return zero, &ErrorDisposed{Type: typeName[T]()}
	}

	return o.value, nil
}

// AddReference returns a new lease on the value. It returns ErrorDisposed if
// the value was already released.
func (o *AsyncOwner[T]) AddReference() (AsyncLease[T], error) {
	lease, ok := o.TryAddReference()
	if !ok {
		return lease, &ErrorDisposed{Type: typeName[T]()}
	}

	return lease, nil
}

// TryAddReference is like AddReference but reports a released value with
// false and the inactive lease instead of an error.
func (o *AsyncOwner[T]) TryAddReference() (AsyncLease[T], bool) {
	var s spinner

	for {
		current := o.count.Load()
		if current.IsZero() {
			return AsyncLease[T]{}, false
		}

		next := current.Increment()
		if o.count.CompareAndSwap(current, &next) {
			return AsyncLease[T]{owner: o}, true
		}

		s.Spin()
	}
}

// ReleaseReference gives up one reference and returns the remaining count.
// The call that drops the count to 0 waits for the release callback and
// returns its error. The count is committed before the callback starts, so
// no other caller can observe a live owner or run the callback again.
func (o *AsyncOwner[T]) ReleaseReference(ctx context.Context) (int64, error) {
	remaining, ok := o.decrement()
	if !ok || remaining > 0 {
		return remaining, nil
	}

	return 0, o.runRelease(ctx)
}

// ReleaseReferenceAsync gives up one reference without waiting for the
// release callback. The count is updated before it returns; the callback, if
// this call dropped the count to 0, runs on its own goroutine. The returned
// channel yields exactly one result and is then closed. A panic in the
// callback is recovered and delivered as ErrorReleasePanic.
func (o *AsyncOwner[T]) ReleaseReferenceAsync(ctx context.Context) <-chan ReleaseResult {
	results := make(chan ReleaseResult, 1)

	remaining, ok := o.decrement()
	if !ok || remaining > 0 {
		results <- ReleaseResult{Count: remaining}
		close(results)

		return results
	}

	go func() {
		defer close(results)

		defer func() {
			if r := recover(); r != nil {
				results <- ReleaseResult{Err: &ErrorReleasePanic{Value: r}}
			}
		}()

		results <- ReleaseResult{Err: o.runRelease(ctx)}
	}()

	return results
}

func (o *AsyncOwner[T]) runRelease(ctx context.Context) error {
	Logger().Debug("releasing shared value", zap.String("type", typeName[T]()), zap.Bool("async", true))

	if o.release == nil {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	return o.release(ctx, o.value)
}

// releaseUnsafe decrements the count without ever running the release
// callback. Only NewAsync may call it.
func (o *AsyncOwner[T]) releaseUnsafe() int64 {
	remaining, _ := o.decrement()
	return remaining
}

func (o *AsyncOwner[T]) decrement() (remaining int64, ok bool) {
	var s spinner

	for {
		current := o.count.Load()
		if current.IsZero() {
			return 0, false
		}

		next := current.Decrement()
		if o.count.CompareAndSwap(current, &next) {
			return next.Value(), true
		}

		s.Spin()
	}
}

// AsyncLease is one counted reference to a value shared with NewAsync. The
// zero AsyncLease is inactive. Like Lease, disposing the same value twice
// releases two references.
type AsyncLease[T any] struct {
	owner *AsyncOwner[T]
}

// IsActive reports whether the lease references an owner.
func (l AsyncLease[T]) IsActive() bool {
	return l.owner != nil
}

// Owner returns the owner the lease references, or nil for an inactive
// lease.
func (l AsyncLease[T]) Owner() *AsyncOwner[T] {
	return l.owner
}

// Value returns the shared value.
func (l AsyncLease[T]) Value() (T, error) {
	if l.owner == nil {
		var zero T
		return zero, &ErrorInactiveLease{Type: typeName[T]()}
	}

	return l.owner.Value()
}

// AddReference returns a new lease on the same value.
func (l AsyncLease[T]) AddReference() (AsyncLease[T], error) {
	if l.owner == nil {
		return AsyncLease[T]{}, &ErrorInactiveLease{Type: typeName[T]()}
	}

	return l.owner.AddReference()
}

// TryAddReference returns a new lease on the same value, or false if the
// value was released in the meantime. The error is only set for an inactive
// lease.
func (l AsyncLease[T]) TryAddReference() (AsyncLease[T], bool, error) {
	if l.owner == nil {
		return AsyncLease[T]{}, false, &ErrorInactiveLease{Type: typeName[T]()}
	}

	lease, ok := l.owner.TryAddReference()

	return lease, ok, nil
}

// Dispose releases the reference held by the lease, waiting for the release
// callback if this was the last reference.
func (l AsyncLease[T]) Dispose(ctx context.Context) error {
	if l.owner == nil {
		return nil
	}

	_, err := l.owner.ReleaseReference(ctx)

	return err
}

// DisposeAsync releases the reference held by the lease without waiting for
// the release callback.
func (l AsyncLease[T]) DisposeAsync(ctx context.Context) <-chan ReleaseResult {
	if l.owner == nil {
		results := make(chan ReleaseResult, 1)
		results <- ReleaseResult{}
		close(results)

		return results
	}

	return l.owner.ReleaseReferenceAsync(ctx)
}
