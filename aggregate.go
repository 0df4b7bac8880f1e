package disposable

import (
	"io"
	"sync"
)

// Aggregate holds zero or one disposable that can be replaced over time.
// Closing the aggregate closes the value it holds; values installed after
// that are closed right away. The zero value is an empty, open aggregate.
type Aggregate struct {
	lock    sync.Mutex
	current io.Closer
	closed  bool
}

// Get returns the held disposable, or nil.
func (a *Aggregate) Get() io.Closer {
	a.lock.Lock()
	defer a.lock.Unlock()

	return a.current
}

// IsClosed reports whether Close was called.
func (a *Aggregate) IsClosed() bool {
	a.lock.Lock()
	defer a.lock.Unlock()

	return a.closed
}

// Set installs c and closes the previously held disposable, returning the
// error from closing it.
func (a *Aggregate) Set(c io.Closer) error {
	previous, err := a.Swap(c)
	if err != nil {
		return err
	}

	return closeIfSet(previous)
}

// Swap installs c and returns the previously held disposable without closing
// it. If the aggregate is closed, c is closed instead and nil is returned
// along with the error from closing c.
func (a *Aggregate) Swap(c io.Closer) (io.Closer, error) {
	a.lock.Lock()

	if a.closed {
		a.lock.Unlock()
		return nil, closeIfSet(c)
	}

	previous := a.current
	a.current = c
	a.lock.Unlock()

	return previous, nil
}

// Close closes the held disposable. Only the first call has an effect.
func (a *Aggregate) Close() error {
	a.lock.Lock()

	if a.closed {
		a.lock.Unlock()
		return nil
	}

	current := a.current
	a.current = nil
	a.closed = true
	a.lock.Unlock()

	return closeIfSet(current)
}

func closeIfSet(c io.Closer) error {
	if c == nil {
		return nil
	}

	return c.Close()
}
