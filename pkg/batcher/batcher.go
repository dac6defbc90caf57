// Package batcher groups items and hands them to a flush function by size or time.
package batcher

import (
	"context"
	"errors"
	"sync"
	"time"
)

// FlushFunc persists one batch.
type FlushFunc[T any] func(ctx context.Context, batch []T) error

// Batcher collects items and flushes them based on size or time thresholds.
type Batcher[T any] struct {
	mu        sync.Mutex
	buffer    []T
	maxSize   int
	interval  time.Duration
	flushFn   FlushFunc[T]
	ctx       context.Context
	stop      chan struct{}
	wg        sync.WaitGroup
	lastError error
	flushMu   sync.Mutex
}

// New creates a new batcher instance. ctx is passed to every flush; the final
// flush in Close runs even when ctx is already cancelled.
func New[T any](ctx context.Context, maxSize int, interval time.Duration, flushFn FlushFunc[T]) *Batcher[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	b := &Batcher[T]{
		maxSize:  maxSize,
		interval: interval,
		flushFn:  flushFn,
		ctx:      ctx,
		stop:     make(chan struct{}),
	}
	b.wg.Add(1)
	go b.loop()
	return b
}

// Add queues an item for batching. If the size threshold is met it flushes immediately.
func (b *Batcher[T]) Add(item T) error {
	b.mu.Lock()
	b.buffer = append(b.buffer, item)
	var batch []T
	if len(b.buffer) >= b.maxSize {
		batch = b.detach()
	}
	b.mu.Unlock()
	return b.runFlush(b.ctx, batch)
}

// Flush forces a flush of the accumulated items.
func (b *Batcher[T]) Flush() error {
	return b.flush(b.ctx)
}

// Pending reports how many items wait for the next flush.
func (b *Batcher[T]) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buffer)
}

// Close stops the background ticker and flushes remaining items.
func (b *Batcher[T]) Close() error {
	close(b.stop)
	b.wg.Wait()
	return b.flush(context.WithoutCancel(b.ctx))
}

// LastError returns the last flush error encountered by the background ticker.
func (b *Batcher[T]) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastError
}

func (b *Batcher[T]) loop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.mu.Lock()
				b.lastError = err
				b.mu.Unlock()
			}
		case <-b.stop:
			return
		}
	}
}

func (b *Batcher[T]) flush(ctx context.Context) error {
	b.mu.Lock()
	batch := b.detach()
	b.mu.Unlock()
	return b.runFlush(ctx, batch)
}

func (b *Batcher[T]) detach() []T {
	if len(b.buffer) == 0 {
		return nil
	}
	batch := make([]T, len(b.buffer))
	copy(batch, b.buffer)
	b.buffer = b.buffer[:0]
	return batch
}

// runFlush serializes flushes so batches reach the store in order.
func (b *Batcher[T]) runFlush(ctx context.Context, batch []T) error {
	if len(batch) == 0 {
		return nil
	}
	if b.flushFn == nil {
		return errors.New("batcher: no flush function configured")
	}
	b.flushMu.Lock()
	defer b.flushMu.Unlock()
	return b.flushFn(ctx, batch)
}
