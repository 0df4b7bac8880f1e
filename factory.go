package disposable

import (
	"context"

	"go.uber.org/zap"
)

// New shares value and returns the first lease on it. release, when not nil,
// is called with value exactly once, when the last lease is closed.
//
//	lease := disposable.New(conn, func(c *Conn) error {
//		return c.Close()
//	})
//	defer lease.Close()
func New[T any](value T, release func(T) error) Lease[T] {
	owner := newOwner(value, release)

	// The owner starts out holding a reference for New itself. It is given
	// up once the caller's lease exists, so the count can never touch 0 on
	// the way and the callback cannot run.
	defer func() {
		if remaining := owner.releaseUnsafe(); remaining != 1 {
			Logger().DPanic("unexpected reference count after creating lease",
				zap.String("type", typeName[T]()),
				zap.Int64("count", remaining))
		}
	}()

	lease, _ := owner.TryAddReference()

	return lease
}

// NewAsync is like New, for values whose release needs a context and may
// block.
func NewAsync[T any](value T, release func(context.Context, T) error) AsyncLease[T] {
	owner := newAsyncOwner(value, release)

	defer func() {
		if remaining := owner.releaseUnsafe(); remaining != 1 {
			Logger().DPanic("unexpected reference count after creating lease",
				zap.String("type", typeName[T]()),
				zap.Int64("count", remaining))
		}
	}()

	lease, _ := owner.TryAddReference()

	return lease
}
