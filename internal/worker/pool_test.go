package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"note-ranker/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_MapRunsEveryIndex(t *testing.T) {
	pool := worker.NewPool(3)
	results := make([]int, 10)

	err := pool.Map(context.Background(), len(results), func(_ context.Context, i int) error {
		results[i] = i * i
		return nil
	})
	require.NoError(t, err)

	for i, got := range results {
		assert.Equal(t, i*i, got)
	}
}

func TestPool_MapPropagatesFirstError(t *testing.T) {
	pool := worker.NewPool(2)
	boom := errors.New("scorer failed")

	err := pool.Map(context.Background(), 5, func(_ context.Context, i int) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestPool_MapCancelsRemainingWork(t *testing.T) {
	pool := worker.NewPool(1)
	var ran atomic.Int32

	err := pool.Map(context.Background(), 100, func(ctx context.Context, i int) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ran.Add(1)
		if i == 0 {
			return errors.New("stop")
		}
		return nil
	})
	require.Error(t, err)
	assert.Less(t, ran.Load(), int32(100))
}

func TestPool_ZeroItems(t *testing.T) {
	pool := worker.NewPool(4)
	err := pool.Map(context.Background(), 0, func(_ context.Context, _ int) error {
		t.Fatal("should not run")
		return nil
	})
	assert.NoError(t, err)
}

func TestNewPool_DefaultsToGOMAXPROCS(t *testing.T) {
	pool := worker.NewPool(0)
	assert.Greater(t, pool.Size(), 0)

	pool = worker.NewPool(-5)
	assert.Greater(t, pool.Size(), 0)
}
