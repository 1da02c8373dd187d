package jobstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hirelens/interview-analysis-be/internal/analysis/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Create(t *testing.T) {
	store := NewMemoryStore()

	job, err := store.Create(context.Background(), "interview.mp4")
	require.NoError(t, err)

	snap := job.Snapshot()
	assert.Equal(t, domain.StatusPending, snap.Status)
	assert.Equal(t, "interview.mp4", snap.OriginalFilename)
	assert.Equal(t, 0.0, snap.Progress)

	_, err = uuid.Parse(job.ID())
	assert.NoError(t, err, "job id should be a uuid")
}

func TestMemoryStore_Get(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "interview.mp4")
	require.NoError(t, err)

	t.Run("returns the same record handle", func(t *testing.T) {
		got, err := store.Get(ctx, created.ID())
		require.NoError(t, err)
		assert.Same(t, created, got)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.New().String())
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
	})
}

func TestMemoryStore_ListInsertionOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		job, err := store.Create(ctx, fmt.Sprintf("video-%d.mp4", i))
		require.NoError(t, err)
		ids = append(ids, job.ID())
	}

	jobs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 5)
	for i, job := range jobs {
		assert.Equal(t, ids[i], job.ID())
	}
}

func TestMemoryStore_ConcurrentCreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	idCh := make(chan string, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job, err := store.Create(ctx, "interview.mp4")
			if assert.NoError(t, err) {
				idCh <- job.ID()
			}
		}()
	}
	wg.Wait()
	close(idCh)

	for id := range idCh {
		_, err := store.Get(ctx, id)
		assert.NoError(t, err)
	}

	jobs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, n)
}

func TestMemoryStore_SyncIsNoOp(t *testing.T) {
	store := NewMemoryStore()
	job, err := store.Create(context.Background(), "interview.mp4")
	require.NoError(t, err)

	assert.NoError(t, store.Sync(context.Background(), job))
}
