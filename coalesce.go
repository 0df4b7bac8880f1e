package disposable

import (
	"context"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Cache is the interface with which a Group can cache loaded values.
type Cache[V any] interface {
	// Add records the value loaded for key.
	Add(ctx context.Context, key string, value V) error

	// Get looks up key. ok is false if nothing is cached for it.
	Get(ctx context.Context, key string) (value V, ok bool, err error)
}

// Group shares in-flight loads between concurrent callers. While any caller
// holds the value loaded for a key, further calls with that key receive the
// same value instead of loading it again. Zero value is safe to use.
type Group[V any] struct {
	// Release, when set, is called with a loaded value once every caller
	// that received it has closed its lease.
	Release func(V) error

	// Cache, when set, will be used to cache and lookup values.
	Cache Cache[V]

	// lock is used to synchronize access to flights.
	lock sync.Mutex

	// flights holds the owner of the shared load for each key. Before a
	// value is loaded, this map is consulted to see if there's already a
	// live load for the key. If there is, a new lease on it is taken.
	flights map[string]*Owner[*flight[V]]
}

// flight is a single load shared by every caller that joined it.
type flight[V any] struct {
	key string

	// result runs the load once. A load that panics panics again for
	// every caller of result.
	result func() (V, error)

	// value and loaded are set by result before it returns.
	value  V
	loaded bool
}

// Do returns the value for key, calling load at most once for all
// concurrent callers sharing the key. The returned closer must be closed
// exactly once when the value is no longer used; the last close for a key
// calls Release. The context of the caller that started the load is the one
// passed to load, so cancelling it fails the load for everyone sharing it.
// A failed load is shared the same way until every caller that joined it
// has returned; the next call loads again. A panicking load panics in
// every caller sharing it and does not keep the key held.
func (g *Group[V]) Do(ctx context.Context, key string, load func(context.Context) (V, error)) (V, io.Closer, error) {
	var zero V

	if ctx == nil {
		ctx = context.Background()
	}

	if g.Cache != nil {
		value, ok, err := g.Cache.Get(ctx, key)
		if err != nil {
			return zero, nil, err
		}

		if ok {
			return value, Empty, nil
		}
	}

	lease := g.join(ctx, key, load)

	// lease is live until closed below, so Value cannot fail
	f, _ := lease.Value()

	// closes the lease if result panics
	settled := false
	defer func() {
		if !settled {
			lease.Close()
		}
	}()

	value, err := f.result()
	settled = true

	if err != nil {
		if closeErr := lease.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr)
		}

		return zero, nil, err
	}

	return value, lease, nil
}

// Len returns the number of keys with a live shared load.
func (g *Group[V]) Len() int {
	g.lock.Lock()
	defer g.lock.Unlock()

	return len(g.flights)
}

func (g *Group[V]) join(ctx context.Context, key string, load func(context.Context) (V, error)) Lease[*flight[V]] {
	g.lock.Lock()
	defer g.lock.Unlock()

	if g.flights == nil {
		g.flights = make(map[string]*Owner[*flight[V]])
	}

	if owner, ok := g.flights[key]; ok {
		if lease, ok := owner.TryAddReference(); ok {
			Logger().Debug("joining in-flight load", zap.String("key", key))
			return lease
		}

		// The last lease on this flight was released but its release
		// callback has not removed it yet. It is replaced below, and the
		// callback leaves the replacement alone.
	}

	Logger().Debug("starting load", zap.String("key", key))

	var owner *Owner[*flight[V]]

	f := &flight[V]{
		key: key,
	}

	f.result = sync.OnceValues(func() (V, error) {
		value, err := load(ctx)
		if err != nil {
			return value, err
		}

		f.value = value
		f.loaded = true

		if g.Cache != nil {
			if err := g.Cache.Add(ctx, key, value); err != nil {
				return value, err
			}
		}

		return value, nil
	})

	lease := New(f, func(f *flight[V]) error {
		return g.releaseFlight(owner, f)
	})

	owner = lease.Owner()
	g.flights[key] = owner

	return lease
}

func (g *Group[V]) releaseFlight(owner *Owner[*flight[V]], f *flight[V]) error {
	g.lock.Lock()
	if g.flights[f.key] == owner {
		delete(g.flights, f.key)
	}
	g.lock.Unlock()

	if f.loaded && g.Release != nil {
		return g.Release(f.value)
	}

	return nil
}
