package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/videochop/internal/errs"
)

func TestPool_BoundsConcurrency(t *testing.T) {
	p := NewPool(context.Background(), 2)

	var running, peak int32
	for range 8 {
		_, err := p.Submit(SubmitRequest{
			Name: "sleep",
			Run: func(_ context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			},
		})
		require.NoError(t, err)
	}

	report := p.Wait()
	assert.Len(t, report.Tasks, 8)
	assert.Equal(t, 8, report.Succeeded())
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.Equal(t, int32(0), atomic.LoadInt32(&running))
}

func TestPool_IsolatesFailures(t *testing.T) {
	p := NewPool(context.Background(), 3)

	var completed int32
	submit := func(name string, kind errs.Kind, fn Func) {
		_, err := p.Submit(SubmitRequest{Group: "ep01", Name: name, Kind: kind, Run: fn})
		require.NoError(t, err)
	}

	submit("ok-1", errs.KindEncode, func(_ context.Context) error {
		atomic.AddInt32(&completed, 1)
		return nil
	})
	submit("broken", errs.KindEncode, func(_ context.Context) error {
		return errors.New("ffmpeg exited 1")
	})
	submit("panics", errs.KindSlice, func(_ context.Context) error {
		panic("nil track")
	})
	submit("ok-2", errs.KindSlice, func(_ context.Context) error {
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&completed, 1)
		return nil
	})

	report := p.Wait()
	assert.Equal(t, int32(2), atomic.LoadInt32(&completed))
	assert.Equal(t, 2, report.Succeeded())

	failed := report.Failed()
	require.Len(t, failed, 2)
	assert.Equal(t, "broken", failed[0].Name)
	assert.True(t, errs.Is(failed[0].Err, errs.KindEncode))
	assert.Contains(t, failed[0].Error, "ffmpeg exited 1")
	assert.Equal(t, "panics", failed[1].Name)
	assert.True(t, errs.Is(failed[1].Err, errs.KindSlice))
	assert.Contains(t, failed[1].Error, "nil track")
}

func TestPool_KeepsTypedTaskErrors(t *testing.T) {
	p := NewPool(context.Background(), 1)
	_, err := p.Submit(SubmitRequest{
		Name: "write",
		Kind: errs.KindEncode,
		Run: func(_ context.Context) error {
			return errs.New(errs.KindSlice, "disk full")
		},
	})
	require.NoError(t, err)

	failed := p.Wait().Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, errs.KindSlice, errs.KindOf(failed[0].Err))
}

func TestPool_WaitBlocksUntilAllDone(t *testing.T) {
	p := NewPool(context.Background(), 4)
	release := make(chan struct{})

	for range 3 {
		_, err := p.Submit(SubmitRequest{
			Name: "blocked",
			Run: func(_ context.Context) error {
				<-release
				return nil
			},
		})
		require.NoError(t, err)
	}

	done := make(chan *Report, 1)
	go func() { done <- p.Wait() }()

	select {
	case <-done:
		t.Fatal("Wait returned before tasks finished")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	select {
	case report := <-done:
		assert.Equal(t, 3, report.Succeeded())
		for _, task := range report.Tasks {
			assert.True(t, task.Done())
			assert.False(t, task.FinishedAt.Before(task.StartedAt))
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return")
	}
}

func TestPool_OnDoneAndSnapshots(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	p := NewPool(context.Background(), 2, WithOnDone(func(task Task) {
		mu.Lock()
		seen = append(seen, task.Name)
		mu.Unlock()
	}))

	first, err := p.Submit(SubmitRequest{Name: "a", Run: func(_ context.Context) error { return nil }})
	require.NoError(t, err)
	_, err = p.Submit(SubmitRequest{Name: "b", Run: func(_ context.Context) error { return nil }})
	require.NoError(t, err)

	report := p.Wait()
	require.Len(t, report.Tasks, 2)
	assert.Equal(t, "a", report.Tasks[0].Name)
	assert.Equal(t, "b", report.Tasks[1].Name)
	assert.ElementsMatch(t, []string{"a", "b"}, seen)

	got, ok := p.Get(first.ID)
	require.True(t, ok)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Len(t, p.List(), 2)

	_, err = p.Submit(SubmitRequest{Name: "late", Run: func(_ context.Context) error { return nil }})
	assert.Error(t, err)
}

func TestPool_CanceledContextFailsPendingTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPool(ctx, 1)

	var ran bool
	_, err := p.Submit(SubmitRequest{
		Name: "never",
		Kind: errs.KindEncode,
		Run: func(_ context.Context) error {
			ran = true
			return nil
		},
	})
	require.NoError(t, err)

	failed := p.Wait().Failed()
	require.Len(t, failed, 1)
	assert.False(t, ran)
	assert.ErrorIs(t, failed[0].Err, context.Canceled)
	assert.True(t, errs.Is(failed[0].Err, errs.KindEncode))
}

func TestPool_RejectsNilBody(t *testing.T) {
	p := NewPool(context.Background(), 0)
	assert.Equal(t, DefaultWorkers, p.Workers())
	_, err := p.Submit(SubmitRequest{Name: "empty"})
	assert.Error(t, err)
}
