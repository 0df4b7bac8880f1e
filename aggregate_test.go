package disposable

import (
	"context"
	"errors"
	"io"
	"testing"
)

type testCloser struct {
	Closed int
	Error  error
}

func (c *testCloser) Close() error {
	c.Closed += 1
	return c.Error
}

func TestAggregateSet(t *testing.T) {
	var aggregate Aggregate

	first := &testCloser{}
	second := &testCloser{Error: context.Canceled}

	if err := aggregate.Set(first); err != nil {
		t.Errorf("Unexpected error %v", err)
	}

	if aggregate.Get() != first {
		t.Error("Expected the first closer to be held")
	}

	if err := aggregate.Set(second); err != nil {
		t.Errorf("Unexpected error %v", err)
	}

	if first.Closed != 1 {
		t.Errorf("First closer was closed %d times, but was supposed to be closed once", first.Closed)
	}

	if err := aggregate.Close(); !errors.Is(err, context.Canceled) {
		t.Errorf("Unexpected error %v", err)
	}

	if second.Closed != 1 {
		t.Errorf("Second closer was closed %d times, but was supposed to be closed once", second.Closed)
	}

	if !aggregate.IsClosed() {
		t.Error("Expected the aggregate to be closed")
	}

	if aggregate.Get() != nil {
		t.Error("Expected a closed aggregate to hold nothing")
	}

	if err := aggregate.Close(); err != nil {
		t.Errorf("Unexpected error %v", err)
	}

	if second.Closed != 1 {
		t.Errorf("Second closer was closed %d times, but was supposed to be closed once", second.Closed)
	}
}

func TestAggregateSwap(t *testing.T) {
	var aggregate Aggregate

	first := &testCloser{}
	second := &testCloser{}

	previous, err := aggregate.Swap(first)
	if previous != nil || err != nil {
		t.Errorf("Unexpected result %v, %v", previous, err)
	}

	previous, err = aggregate.Swap(second)
	if previous != first || err != nil {
		t.Errorf("Unexpected result %v, %v", previous, err)
	}

	if first.Closed != 0 {
		t.Error("Swap must not close the previous value")
	}
}

func TestAggregateClosesLateValues(t *testing.T) {
	var aggregate Aggregate

	if err := aggregate.Close(); err != nil {
		t.Errorf("Unexpected error %v", err)
	}

	late := &testCloser{Error: context.Canceled}

	if err := aggregate.Set(late); !errors.Is(err, context.Canceled) {
		t.Errorf("Unexpected error %v", err)
	}

	previous, err := aggregate.Swap(late)
	if previous != nil || !errors.Is(err, context.Canceled) {
		t.Errorf("Unexpected result %v, %v", previous, err)
	}

	if late.Closed != 2 {
		t.Errorf("Late closer was closed %d times, but was supposed to be closed twice", late.Closed)
	}

	if aggregate.Get() != nil {
		t.Error("Expected a closed aggregate to hold nothing")
	}
}

func TestAggregateHoldsLease(t *testing.T) {
	released := 0

	lease := New("resource", func(string) error {
		released += 1
		return nil
	})

	var aggregate Aggregate

	if err := aggregate.Set(lease); err != nil {
		t.Fatalf("Unexpected error %v", err)
	}

	if err := aggregate.Set(Empty); err != nil {
		t.Errorf("Unexpected error %v", err)
	}

	if released != 1 {
		t.Errorf("Release was called %d times, but was supposed to be called once", released)
	}

	if err := aggregate.Close(); err != nil {
		t.Errorf("Unexpected error %v", err)
	}
}

func TestEmpty(t *testing.T) {
	var (
		closer   io.Closer     = Empty
		disposer AsyncDisposer = Empty
	)

	for i := 0; i < 2; i += 1 {
		if err := closer.Close(); err != nil {
			t.Errorf("Unexpected error %v", err)
		}

		if err := disposer.Dispose(context.Background()); err != nil {
			t.Errorf("Unexpected error %v", err)
		}
	}
}
