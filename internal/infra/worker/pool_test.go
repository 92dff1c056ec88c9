//go:build !integration

package worker_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"paintball2go-backend/internal/infra/worker"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := worker.NewPool(2)
	p.Start(ctx)
	defer p.Stop()

	var ran int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		task := func(ctx context.Context) error {
			defer wg.Done()
			atomic.AddInt64(&ran, 1)
			return nil
		}
		if err := p.SubmitWait(ctx, task); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	wg.Wait()

	if got := atomic.LoadInt64(&ran); got != 8 {
		t.Errorf("tasks ran = %d, want 8", got)
	}
}

func TestPool_SubmitFailsWhenQueueFull(t *testing.T) {
	// Not started, so nothing drains the queue. Capacity is workers*4.
	p := worker.NewPool(1)

	noop := func(ctx context.Context) error { return nil }
	for i := 0; i < 4; i++ {
		if err := p.Submit(noop); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if err := p.Submit(noop); err == nil {
		t.Error("expected error on a full queue")
	}
}

func TestPool_SubmitRejectsNilTask(t *testing.T) {
	p := worker.NewPool(1)
	if err := p.Submit(nil); err == nil {
		t.Error("expected error for nil task")
	}
	if err := p.SubmitWait(context.Background(), nil); err == nil {
		t.Error("expected error for nil task")
	}
}

func TestPool_SubmitWaitHonorsContext(t *testing.T) {
	p := worker.NewPool(1)
	noop := func(ctx context.Context) error { return nil }
	for i := 0; i < 4; i++ {
		if err := p.Submit(noop); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.SubmitWait(ctx, noop); err != context.DeadlineExceeded {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}
