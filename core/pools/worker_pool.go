// Package pools provides the fixed-size worker pool that runs connection
// jobs. Workers are started eagerly at construction, never resized, and
// compete for jobs from one shared FIFO queue.
package pools

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Job represents a unit of work: "handle this accepted connection".
// Each submitted job runs exactly once, on exactly one worker.
type Job func()

// Backpressure selects what Submit does when the job queue is full.
type Backpressure int

const (
	// Block waits until queue space frees up. No job is ever lost.
	Block Backpressure = iota
	// Reject returns ErrQueueFull immediately.
	Reject
	// Drop discards the job silently and counts it.
	Drop
)

var (
	// ErrPoolClosed is returned by Submit after Close has been initiated.
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrQueueFull is returned by Submit under the Reject policy when
	// the queue is at capacity.
	ErrQueueFull = errors.New("job queue is full")
)

const (
	defaultWorkers       = 4
	defaultQueueCapacity = 1024
)

// Config configures a worker pool.
type Config struct {
	// Workers is the fixed worker count. Defaults to 4.
	Workers int
	// QueueCapacity bounds the shared job queue. Defaults to 1024.
	QueueCapacity int
	// Policy selects the backpressure behavior when the queue is full.
	Policy Backpressure
	// Logger receives worker fault events. Defaults to a nop logger.
	Logger log.Logger
}

// WorkerPool is a fixed set of workers pulling from one shared queue.
type WorkerPool struct {
	workers int
	jobs    chan Job
	policy  Backpressure
	logger  log.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	stats struct {
		submitted atomic.Uint64
		completed atomic.Uint64
		dropped   atomic.Uint64
		panics    atomic.Uint64
	}
}

// NewWorkerPool creates a pool and starts its workers eagerly.
func NewWorkerPool(cfg Config) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = defaultQueueCapacity
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNopLogger()
	}

	p := &WorkerPool{
		workers: cfg.Workers,
		jobs:    make(chan Job, cfg.QueueCapacity),
		policy:  cfg.Policy,
		logger:  cfg.Logger,
	}

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.run(i)
	}

	return p
}

// Submit enqueues a job. It returns ErrPoolClosed after Close, and under
// the Reject policy it returns ErrQueueFull when the queue is at
// capacity. Under the Drop policy a full queue discards the job and
// returns nil.
func (p *WorkerPool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	switch p.policy {
	case Reject:
		select {
		case p.jobs <- job:
		default:
			return ErrQueueFull
		}
	case Drop:
		select {
		case p.jobs <- job:
		default:
			p.stats.dropped.Add(1)
			return nil
		}
	default: // Block
		p.jobs <- job
	}

	p.stats.submitted.Add(1)
	return nil
}

// run is the main loop for one worker. It blocks on the shared queue
// until a job arrives or the queue is closed.
func (p *WorkerPool) run(id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		p.execute(id, job)
	}
}

// execute runs one job under panic recovery so a faulty job cannot
// permanently remove the worker from the pool.
func (p *WorkerPool) execute(id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.stats.panics.Add(1)
			level.Error(p.logger).Log("event", "job panic", "worker", id, "panic", r)
		}
	}()

	job()
	p.stats.completed.Add(1)
}

// Close shuts the pool down: the queue is closed, already-queued jobs
// drain, and Close returns only after every worker has exited. No job
// executes after Close returns. Close is idempotent.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	Workers       int
	JobsSubmitted uint64
	JobsCompleted uint64
	JobsDropped   uint64
	JobPanics     uint64
}

// Stats returns a snapshot of the pool counters.
func (p *WorkerPool) Stats() Stats {
	return Stats{
		Workers:       p.workers,
		JobsSubmitted: p.stats.submitted.Load(),
		JobsCompleted: p.stats.completed.Load(),
		JobsDropped:   p.stats.dropped.Load(),
		JobPanics:     p.stats.panics.Load(),
	}
}
