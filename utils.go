package disposable

import (
	"errors"
	"reflect"
	"runtime"
)

// spinLimit is the number of failed compare-and-swap attempts retried
// immediately before the spinner starts yielding the processor.
const spinLimit = 8

var errOverflow = errors.New("disposable: reference count overflow")

// spinner backs off between failed compare-and-swap attempts. The zero
// value is ready to use.
type spinner struct {
	attempts int
}

// Spin records a failed attempt. The first spinLimit attempts return
// immediately, after that every attempt yields to the scheduler so the
// goroutine that won the race can make progress.
func (s *spinner) Spin() {
	s.attempts += 1

	if s.attempts > spinLimit {
		runtime.Gosched()
	}
}

// typeName returns the name of T, used in error messages and logs.
func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
