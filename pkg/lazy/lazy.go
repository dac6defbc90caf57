// Package lazy provides a value that is created on first use and shared afterwards.
package lazy

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrNoInit is returned when a Value has no init function.
var ErrNoInit = errors.New("lazy: no init function configured")

const initKey = "init"

// Value holds a resource built by init on the first successful Get. A failed
// init is not cached: the next Get tries again. Concurrent callers share one
// in-flight init, so at most one resource is ever stored and a failing init
// fails every waiter at once.
type Value[T any] struct {
	mu    sync.Mutex
	init  func(context.Context) (T, error)
	val   T
	ready bool
	group singleflight.Group
}

// New creates a Value that builds its resource with init.
func New[T any](init func(context.Context) (T, error)) *Value[T] {
	return &Value[T]{init: init}
}

// Get returns the shared resource, creating it if needed. A caller whose ctx
// ends while an init is in flight returns ctx.Err(); the init keeps running
// for the remaining waiters.
func (v *Value[T]) Get(ctx context.Context) (T, error) {
	var zero T
	if val, ok := v.Peek(); ok {
		return val, nil
	}
	if v.init == nil {
		return zero, ErrNoInit
	}

	initCtx := context.WithoutCancel(ctx)
	ch := v.group.DoChan(initKey, func() (any, error) {
		if val, ok := v.Peek(); ok {
			return val, nil
		}
		val, err := v.init(initCtx)
		if err != nil {
			return nil, err
		}
		v.mu.Lock()
		v.val = val
		v.ready = true
		v.mu.Unlock()
		return val, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		val, _ := res.Val.(T)
		return val, nil
	}
}

// Peek returns the resource without creating it.
func (v *Value[T]) Peek() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.val, v.ready
}

// Reset drops the stored resource and returns it so the caller can release it.
func (v *Value[T]) Reset() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	val, ok := v.val, v.ready
	var zero T
	v.val = zero
	v.ready = false
	return val, ok
}
