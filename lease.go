package disposable

// Lease is one counted reference to a shared value. The zero Lease is
// inactive and references nothing.
//
// Leases are plain values without a closed flag of their own: closing the
// same lease twice releases two references. Drop a lease right after
// closing it, for example by assigning Lease[T]{} to the variable.
type Lease[T any] struct {
	owner *Owner[T]
}

// IsActive reports whether the lease references an owner.
func (l Lease[T]) IsActive() bool {
	return l.owner != nil
}

// Owner returns the owner the lease references, or nil for an inactive
// lease.
func (l Lease[T]) Owner() *Owner[T] {
	return l.owner
}

// Value returns the shared value.
func (l Lease[T]) Value() (T, error) {
	if l.owner == nil {
		var zero T
		return zero, &ErrorInactiveLease{Type: typeName[T]()}
	}

	return l.owner.Value()
}

// AddReference returns a new lease on the same value.
func (l Lease[T]) AddReference() (Lease[T], error) {
	if l.owner == nil {
		return Lease[T]{}, &ErrorInactiveLease{Type: typeName[T]()}
	}

	return l.owner.AddReference()
}

// TryAddReference returns a new lease on the same value, or false if the
// value was released in the meantime. The error is only set for an inactive
// lease.
func (l Lease[T]) TryAddReference() (Lease[T], bool, error) {
	if l.owner == nil {
		return Lease[T]{}, false, &ErrorInactiveLease{Type: typeName[T]()}
	}

	lease, ok := l.owner.TryAddReference()

	return lease, ok, nil
}

// Close releases the reference held by the lease. The last Close runs the
// release callback and returns its error. Closing an inactive lease does
// nothing.
func (l Lease[T]) Close() error {
	if l.owner == nil {
		return nil
	}

	_, err := l.owner.ReleaseReference()

	return err
}
