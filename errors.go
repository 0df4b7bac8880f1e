package disposable

import (
	"fmt"
)

// ErrorDisposed is returned when the value or a new reference is requested
// from an owner whose reference count already dropped to zero.
type ErrorDisposed struct {
	// Type is the name of the shared value's type.
	Type string
}

func (e *ErrorDisposed) Error() string {
	return fmt.Sprintf("disposable: use of released %s", e.Type)
}

// ErrorInactiveLease is returned when a lease that does not reference an
// owner is used, such as the zero Lease. It means the handle was never
// valid, as opposed to ErrorDisposed which means the resource was released
// after the handle was obtained.
type ErrorInactiveLease struct {
	// Type is the name of the shared value's type.
	Type string
}

func (e *ErrorInactiveLease) Error() string {
	return fmt.Sprintf("disposable: inactive lease of %s", e.Type)
}

// ErrorReleasePanic is delivered by ReleaseReferenceAsync and DisposeAsync
// when the release callback panics on its goroutine.
type ErrorReleasePanic struct {
	// Value is the value the callback panicked with.
	Value any
}

func (e *ErrorReleasePanic) Error() string {
	return fmt.Sprintf("disposable: release callback panicked: %v", e.Value)
}
