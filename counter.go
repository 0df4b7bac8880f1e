package disposable

import (
	"errors"
)

var errNegativeCount = errors.New("disposable: reference count cannot be negative")

// Counter is an immutable reference count. Increment and Decrement return new
// values and never modify the receiver, which lets AsyncOwner publish counts
// through an atomic pointer swap.
type Counter struct {
	n int64
}

// NewCounter returns a counter holding n. It panics if n is negative.
func NewCounter(n int64) Counter {
	if n < 0 {
		panic(errNegativeCount)
	}

	return Counter{n: n}
}

// Value returns the count.
func (c Counter) Value() int64 {
	return c.n
}

// IsZero reports whether the count is zero.
func (c Counter) IsZero() bool {
	return c.n == 0
}

// Increment returns a counter one larger than c.
func (c Counter) Increment() Counter {
	if c.n == maxCount {
		panic(errOverflow)
	}

	return Counter{n: c.n + 1}
}

// Decrement returns a counter one smaller than c. It panics if c is zero.
func (c Counter) Decrement() Counter {
	if c.n == 0 {
		panic(errNegativeCount)
	}

	return Counter{n: c.n - 1}
}
