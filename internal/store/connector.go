// Package store owns the process-wide handle to the durable record store.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"devevent/internal/domain"
)

// OpenFunc establishes a new store handle.
type OpenFunc[T any] func(ctx context.Context) (T, error)

// CloseFunc releases a store handle.
type CloseFunc[T any] func(T) error

// Connector lazily establishes one store handle and hands it to every caller.
// Concurrent callers that arrive while the first attempt is in flight wait for
// that same attempt. A failed attempt is not remembered, so the next Get
// tries again.
type Connector[T any] struct {
	openFn  OpenFunc[T]
	closeFn CloseFunc[T]

	group singleflight.Group

	mu    sync.RWMutex
	conn  T
	ready bool
	// gen advances on every Reset or Close; an attempt started under an
	// older generation must not cache its handle.
	gen uint64
}

var errResetWhileConnecting = errors.New("connector reset while connecting")

// NewConnector returns a Connector that opens handles with open. closeFn may be nil.
func NewConnector[T any](open OpenFunc[T], closeFn CloseFunc[T]) *Connector[T] {
	return &Connector[T]{openFn: open, closeFn: closeFn}
}

// Get returns the cached handle, establishing it first if needed.
// Connection failures wrap domain.ErrStoreUnavailable.
func (c *Connector[T]) Get(ctx context.Context) (T, error) {
	if conn, ok := c.cached(); ok {
		return conn, nil
	}

	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	v, err, _ := c.group.Do("connect-"+strconv.FormatUint(gen, 10), func() (any, error) {
		if conn, ok := c.cached(); ok {
			return conn, nil
		}
		// The attempt is shared, so one caller's cancellation must not fail the rest.
		conn, err := c.openFn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			if c.closeFn != nil {
				_ = c.closeFn(conn)
			}
			return nil, errResetWhileConnecting
		}
		c.conn, c.ready = conn, true
		c.mu.Unlock()
		return conn, nil
	})
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return v.(T), nil
}

// Reset drops and closes the cached handle so the next Get reconnects.
// Repositories call it when the store stops answering. An attempt already in
// flight when Reset is called fails rather than caching a handle.
func (c *Connector[T]) Reset() error {
	c.mu.Lock()
	conn, ready := c.conn, c.ready
	var zero T
	c.conn, c.ready = zero, false
	c.gen++
	c.mu.Unlock()

	if !ready || c.closeFn == nil {
		return nil
	}
	return c.closeFn(conn)
}

// Close releases the cached handle, if any. The connector stays usable; a
// later Get opens a new handle.
func (c *Connector[T]) Close() error {
	return c.Reset()
}

// Ready reports whether a handle is currently cached.
func (c *Connector[T]) Ready() bool {
	_, ok := c.cached()
	return ok
}

func (c *Connector[T]) cached() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn, c.ready
}
