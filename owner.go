// Package disposable provides composable resource-lifetime primitives. The
// centerpiece is a reference-counted shared value: an Owner holds the value
// and its count, and every Lease handed out represents one unit of that
// count. The release callback runs exactly once, when the last lease is
// closed.
package disposable

import (
	"math"
	"sync/atomic"

	"go.uber.org/zap"
)

const maxCount = math.MaxInt64

// Owner holds a shared value, the number of live leases on it and the
// callback that releases it. Owners are created by New and are only reached
// through leases.
type Owner[T any] struct {
	// count is the number of outstanding leases. Once it reaches 0 it never
	// changes again.
	count atomic.Int64

	value   T
	release func(T) error
}

func newOwner[T any](value T, release func(T) error) *Owner[T] {
	o := &Owner[T]{
		value:   value,
		release: release,
	}

	o.count.Store(1)

	return o
}

// Count returns a snapshot of the number of outstanding leases.
func (o *Owner[T]) Count() int64 {
	return o.count.Load()
}

// Value returns the shared value. It returns ErrorDisposed once the last
// lease was released.
func (o *Owner[T]) Value() (T, error) {
	if o.count.Load() == 0 {
		var zero T
		return zero, &ErrorDisposed{Type: typeName[T]()}
	}

	return o.value, nil
}

// AddReference returns a new lease on the value. It returns ErrorDisposed if
// the value was already released.
func (o *Owner[T]) AddReference() (Lease[T], error) {
	lease, ok := o.TryAddReference()
	if !ok {
		return lease, &ErrorDisposed{Type: typeName[T]()}
	}

	return lease, nil
}

// TryAddReference is like AddReference but reports a released value with
// false and the inactive lease instead of an error.
func (o *Owner[T]) TryAddReference() (Lease[T], bool) {
	var s spinner

	for {
		current := o.count.Load()
		if current == 0 {
			return Lease[T]{}, false
		}

		if current == maxCount {
			panic(errOverflow)
		}

		if o.count.CompareAndSwap(current, current+1) {
			return Lease[T]{owner: o}, true
		}

		s.Spin()
	}
}

// ReleaseReference gives up one reference and returns the remaining count.
// The call that drops the count to 0 runs the release callback and returns
// its error as is; the owner stays released even if the callback fails.
// Releasing an already released owner returns 0 and does nothing.
func (o *Owner[T]) ReleaseReference() (int64, error) {
	remaining, ok := o.decrement()
	if !ok || remaining > 0 {
		return remaining, nil
	}

	Logger().Debug("releasing shared value", zap.String("type", typeName[T]()))

	if o.release == nil {
		return 0, nil
	}

	return 0, o.release(o.value)
}

// releaseUnsafe decrements the count without ever running the release
// callback. Only New may call it, to retire its bootstrap reference.
func (o *Owner[T]) releaseUnsafe() int64 {
	remaining, _ := o.decrement()
	return remaining
}

// decrement lowers the count by one. ok is false when the count was already
// 0. remaining is the value written by the winning compare-and-swap, so only
// one caller can ever see it reach 0.
func (o *Owner[T]) decrement() (remaining int64, ok bool) {
	var s spinner

	for {
		current := o.count.Load()
		if current == 0 {
			return 0, false
		}

		if o.count.CompareAndSwap(current, current-1) {
			return current - 1, true
		}

		s.Spin()
	}
}
