package disposable

import (
	"context"
)

// Empty is a disposable that holds nothing. Closing or disposing it any
// number of times does nothing.
var Empty emptyDisposable

type emptyDisposable struct{}

func (emptyDisposable) Close() error {
	return nil
}

func (emptyDisposable) Dispose(context.Context) error {
	return nil
}
