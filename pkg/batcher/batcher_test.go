package batcher_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lead-gateway/pkg/batcher"
)

func TestBatcherFlushBySize(t *testing.T) {
	var (
		mu      sync.Mutex
		flushed [][]int
	)
	b := batcher.New(context.Background(), 3, time.Second, func(_ context.Context, items []int) error {
		mu.Lock()
		defer mu.Unlock()
		cp := append([]int(nil), items...)
		flushed = append(flushed, cp)
		return nil
	})
	defer b.Close()

	require.NoError(t, b.Add(1))
	require.NoError(t, b.Add(2))
	require.Equal(t, 2, b.Pending())
	require.NoError(t, b.Add(3))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(flushed) == 1 && len(flushed[0]) == 3
	}, time.Second, 50*time.Millisecond)
	require.Equal(t, 0, b.Pending())
}

func TestBatcherFlushByInterval(t *testing.T) {
	var (
		mu      sync.Mutex
		flushed int
	)
	b := batcher.New(context.Background(), 10, 50*time.Millisecond, func(_ context.Context, items []int) error {
		mu.Lock()
		defer mu.Unlock()
		flushed += len(items)
		return nil
	})
	defer b.Close()

	require.NoError(t, b.Add(42))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return flushed == 1
	}, time.Second, 20*time.Millisecond)
}

func TestBatcherCloseFlushesWithCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var got []string
	b := batcher.New(ctx, 100, time.Hour, func(ctx context.Context, items []string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		got = append(got, items...)
		return nil
	})
	require.NoError(t, b.Add("a"))
	require.NoError(t, b.Add("b"))
	cancel()

	require.NoError(t, b.Close())
	require.Equal(t, []string{"a", "b"}, got)
}

func TestBatcherRecordsTickerErrors(t *testing.T) {
	boom := errors.New("insert failed")
	b := batcher.New(context.Background(), 10, 20*time.Millisecond, func(context.Context, []int) error {
		return boom
	})
	defer b.Close()

	require.NoError(t, b.Add(1))
	require.Eventually(t, func() bool {
		return errors.Is(b.LastError(), boom)
	}, time.Second, 10*time.Millisecond)
}
