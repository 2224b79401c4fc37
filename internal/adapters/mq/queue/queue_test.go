package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/snakedraft/internal/domain/model"
	"github.com/okian/snakedraft/internal/domain/scoring"
)

func job(i int) Job {
	return Job{Index: i, Input: scoring.Input{Genome: i, Roster: model.Roster{{Name: "A", Position: model.QB}}}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, job(1)) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.Index != 1 || got.Input.Genome != 1 {
		t.Errorf("expected job 1, got %+v", got)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job(1)) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, job(2)) {
		t.Error("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, job(3)) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_EnqueueWait(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx := context.Background()

	if err := q.EnqueueWait(ctx, job(1)); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}

	// Full queue: the second producer waits until a consumer makes room.
	done := make(chan error, 1)
	go func() { done <- q.EnqueueWait(ctx, job(2)) }()

	select {
	case err := <-done:
		t.Fatalf("expected EnqueueWait to block on a full queue, got %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	out := q.Dequeue(ctx)
	<-out
	if err := <-done; err != nil {
		t.Errorf("expected waiting enqueue to succeed, got %v", err)
	}
	if got := <-out; got.Index != 2 {
		t.Errorf("expected job 2, got %d", got.Index)
	}
}

func TestInMemoryQueue_EnqueueWaitCancelled(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	if err := q.EnqueueWait(context.Background(), job(1)); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := q.EnqueueWait(ctx, job(2)); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(16))
	ctx := context.Background()
	const producers, perProducer = 8, 50

	var consumed sync.WaitGroup
	consumed.Add(producers * perProducer)
	for i := 0; i < 4; i++ {
		go func() {
			for range q.Dequeue(ctx) {
				consumed.Done()
			}
		}()
	}

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := q.EnqueueWait(ctx, job(p*perProducer+i)); err != nil {
					t.Errorf("enqueue failed: %v", err)
				}
			}
		}(p)
	}
	wg.Wait()
	consumed.Wait()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, job(1)) {
		t.Error("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, job(2)) {
		t.Error("expected enqueue to fail after closing")
	}
	if err := q.EnqueueWait(ctx, job(2)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// Queued jobs are still delivered, then the channel closes.
	out := q.Dequeue(ctx)
	if got := <-out; got.Index != 1 {
		t.Errorf("expected job 1 to drain, got %d", got.Index)
	}
	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected dequeue channel to be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("expected dequeue channel to be closed within timeout")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
