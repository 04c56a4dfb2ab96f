package biz

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-shortlink/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(repo *fakeClickRepo, workers, queueSize int) *ClickRecorder {
	opts := NewOptions(nil)
	opts.ClickWorkers = workers
	opts.ClickQueueSize = queueSize
	opts.ClickTimeout = time.Second
	return NewClickRecorder(repo, fakeEnricher{}, opts, log.DefaultLogger)
}

func TestClickRecorder_DrainsOnStop(t *testing.T) {
	repo := &fakeClickRepo{}
	r := newTestRecorder(repo, 4, 256)
	require.NoError(t, r.Start(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			assert.True(t, r.Record(&domain.Click{LinkID: id}))
		}(int64(i + 1))
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))

	assert.Equal(t, 100, repo.insertedCount())
	for _, c := range repo.inserted {
		assert.Equal(t, "Desktop", c.DeviceType)
		assert.Equal(t, "Direct", c.TrafficSource)
		assert.Equal(t, "Unknown", c.CountryCode)
	}
}

func TestClickRecorder_DropsWhenFull(t *testing.T) {
	repo := &fakeClickRepo{}
	r := newTestRecorder(repo, 1, 2)

	// Not started, so nothing drains the queue.
	assert.True(t, r.Record(&domain.Click{LinkID: 1}))
	assert.True(t, r.Record(&domain.Click{LinkID: 2}))
	assert.False(t, r.Record(&domain.Click{LinkID: 3}))

	require.NoError(t, r.Start(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))

	assert.Equal(t, 2, repo.insertedCount())
}

func TestClickRecorder_RecordAfterStop(t *testing.T) {
	r := newTestRecorder(&fakeClickRepo{}, 1, 8)
	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Stop(context.Background()))

	assert.NotPanics(t, func() {
		assert.False(t, r.Record(&domain.Click{LinkID: 1}))
	})
	// Stopping twice is harmless.
	assert.NoError(t, r.Stop(context.Background()))
}

func TestClickRecorder_StopWithoutStart(t *testing.T) {
	r := newTestRecorder(&fakeClickRepo{}, 1, 8)
	r.Record(&domain.Click{LinkID: 1})

	assert.NoError(t, r.Stop(context.Background()))
	assert.NoError(t, r.Start(context.Background()), "a stopped recorder does not restart")
}

func TestClickRecorder_StopDeadlineAbandonsQueue(t *testing.T) {
	repo := &fakeClickRepo{block: make(chan struct{})}
	r := newTestRecorder(repo, 1, 16)
	require.NoError(t, r.Start(context.Background()))

	for i := 0; i < 5; i++ {
		require.True(t, r.Record(&domain.Click{LinkID: int64(i + 1)}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := r.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(repo.block)
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("workers did not exit after abandon")
	}
	assert.LessOrEqual(t, repo.insertedCount(), 1)
}

func TestClickRecorder_FailedInsertIsNotRetried(t *testing.T) {
	repo := &fakeClickRepo{insertErr: domain.ErrStoreUnavailable}
	r := newTestRecorder(repo, 2, 16)
	require.NoError(t, r.Start(context.Background()))

	for i := 0; i < 3; i++ {
		r.Record(&domain.Click{LinkID: 1})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))

	assert.Equal(t, 3, repo.callCount())
	assert.Zero(t, repo.insertedCount())
}

func TestClickRecorder_InsertUsesDetachedTimeout(t *testing.T) {
	repo := &fakeClickRepo{block: make(chan struct{})}
	opts := NewOptions(nil)
	opts.ClickWorkers = 1
	opts.ClickTimeout = 20 * time.Millisecond
	r := NewClickRecorder(repo, nil, opts, log.DefaultLogger)
	require.NoError(t, r.Start(context.Background()))

	require.True(t, r.Record(&domain.Click{LinkID: 1}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx), "a hung insert is cut off by the per-click timeout")
	assert.Zero(t, repo.insertedCount())
}
