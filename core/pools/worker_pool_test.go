package pools

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolExactlyOnce(t *testing.T) {
	pool := NewWorkerPool(Config{Workers: 4})

	const jobs = 1000
	var counter atomic.Int64

	for i := 0; i < jobs; i++ {
		if err := pool.Submit(func() {
			counter.Add(1)
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	// Close drains the queue and waits for the workers, so every
	// submitted job has run exactly once by the time it returns.
	pool.Close()

	if counter.Load() != jobs {
		t.Errorf("expected %d executions, got %d", jobs, counter.Load())
	}

	stats := pool.Stats()
	if stats.JobsSubmitted != jobs || stats.JobsCompleted != jobs {
		t.Errorf("stats: submitted=%d completed=%d, expected %d/%d",
			stats.JobsSubmitted, stats.JobsCompleted, jobs, jobs)
	}
	if stats.JobsDropped != 0 {
		t.Errorf("expected no drops under Block policy, got %d", stats.JobsDropped)
	}
}

func TestWorkerPoolFIFO(t *testing.T) {
	// A single worker dequeues in submission order.
	pool := NewWorkerPool(Config{Workers: 1, QueueCapacity: 128})

	var mu sync.Mutex
	var order []int

	for i := 0; i < 50; i++ {
		i := i
		pool.Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	pool.Close()

	for i, v := range order {
		if v != i {
			t.Fatalf("dequeue order broken at %d: got %d", i, v)
		}
	}
	if len(order) != 50 {
		t.Fatalf("expected 50 jobs, got %d", len(order))
	}
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(Config{Workers: 2})
	pool.Close()

	err := pool.Submit(func() {
		t.Error("job ran after close")
	})
	if err != ErrPoolClosed {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestWorkerPoolCloseIdempotent(t *testing.T) {
	pool := NewWorkerPool(Config{Workers: 2})
	pool.Close()
	pool.Close()
}

func TestWorkerPoolRejectPolicy(t *testing.T) {
	pool := NewWorkerPool(Config{Workers: 1, QueueCapacity: 1, Policy: Reject})
	defer pool.Close()

	block := make(chan struct{})
	// Occupy the worker so the queue fills up.
	pool.Submit(func() { <-block })

	// Fill the single queue slot, then expect rejection. Submissions can
	// race with the worker dequeueing, so allow a brief settle.
	var rejected bool
	for i := 0; i < 10; i++ {
		if err := pool.Submit(func() {}); err == ErrQueueFull {
			rejected = true
			break
		}
		time.Sleep(time.Millisecond)
	}
	close(block)

	if !rejected {
		t.Error("expected ErrQueueFull under Reject policy")
	}
}

func TestWorkerPoolDropPolicy(t *testing.T) {
	pool := NewWorkerPool(Config{Workers: 1, QueueCapacity: 1, Policy: Drop})

	block := make(chan struct{})
	pool.Submit(func() { <-block })

	for i := 0; i < 20; i++ {
		if err := pool.Submit(func() {}); err != nil {
			t.Fatalf("Drop policy must not error, got %v", err)
		}
	}
	close(block)
	pool.Close()

	if pool.Stats().JobsDropped == 0 {
		t.Error("expected dropped jobs under Drop policy")
	}
}

func TestWorkerPoolPanicIsolation(t *testing.T) {
	pool := NewWorkerPool(Config{Workers: 1})

	pool.Submit(func() {
		panic("handler fault")
	})

	// The worker must survive the panic and keep executing jobs.
	done := make(chan struct{})
	pool.Submit(func() {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking job")
	}

	pool.Close()
	if pool.Stats().JobPanics != 1 {
		t.Errorf("expected 1 recorded panic, got %d", pool.Stats().JobPanics)
	}
}

func TestWorkerPoolConcurrentSubmitters(t *testing.T) {
	pool := NewWorkerPool(Config{Workers: 8, QueueCapacity: 64})

	const submitters = 16
	const perSubmitter = 200

	var counter atomic.Int64
	var wg sync.WaitGroup
	wg.Add(submitters)

	for i := 0; i < submitters; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perSubmitter; j++ {
				pool.Submit(func() {
					counter.Add(1)
				})
			}
		}()
	}

	wg.Wait()
	pool.Close()

	if counter.Load() != submitters*perSubmitter {
		t.Errorf("expected %d executions, got %d", submitters*perSubmitter, counter.Load())
	}
}

func BenchmarkWorkerPoolSubmit(b *testing.B) {
	pool := NewWorkerPool(Config{Workers: 8, QueueCapacity: 4096})
	defer pool.Close()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			pool.Submit(func() {
				_ = 1 + 1
			})
		}
	})
}
