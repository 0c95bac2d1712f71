// Package workerpool runs blocking calls (database round-trips) on a fixed
// set of goroutines so that request handling never waits on more in-flight
// storage work than the pool allows.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrStopped is returned by Submit once Stop has been called.
	ErrStopped = errors.New("workerpool: stopped")
	// ErrNotStarted is returned by Submit before Start.
	ErrNotStarted = errors.New("workerpool: not started")
)

var (
	jobsQueued = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "workerpool_jobs_queued",
		Help: "Jobs waiting for a free worker.",
	})
	workersBusy = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "workerpool_workers_busy",
		Help: "Workers currently running a job.",
	})
	jobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workerpool_jobs_total",
		Help: "Completed jobs by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(jobsQueued, workersBusy, jobsTotal)
}

// Func is a unit of blocking work. The context carries the submitter's
// values but is never cancelled by the pool.
type Func = func(ctx context.Context) error

type job struct {
	ctx  context.Context
	fn   Func
	done chan error
}

// Pool is a fixed-size set of worker goroutines draining a bounded queue.
// It is safe for concurrent use.
type Pool struct {
	size      int
	queueSize int
	logger    zerolog.Logger

	jobs chan job
	// quit is closed by Stop; exited once every worker has returned.
	quit   chan struct{}
	exited chan struct{}

	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	stopped bool
}

// New constructs a Pool. Workers are not running until Start.
func New(opts ...Option) *Pool {
	p := &Pool{
		size:      5 * runtime.NumCPU(),
		queueSize: 0,
		logger:    log.With().Str("component", "workerpool").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.jobs = make(chan job, p.queueSize)
	p.quit = make(chan struct{})
	p.exited = make(chan struct{})
	return p
}

// Size reports the number of workers.
func (p *Pool) Size() int { return p.size }

// Start launches the workers. Calling it more than once is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	p.logger.Debug().Int("workers", p.size).Int("queue", p.queueSize).Msg("worker pool started")
}

// Submit hands fn to a worker and waits for its result.
//
// While the queue is full Submit blocks; if ctx ends first it returns
// ctx.Err(), and if the pool stops first it returns ErrStopped. In both cases
// fn never runs. Once fn is accepted, Submit waits for it to finish
// regardless of ctx.
func (p *Pool) Submit(ctx context.Context, fn Func) error {
	p.mu.RLock()
	stopped, started := p.stopped, p.started
	p.mu.RUnlock()
	switch {
	case stopped:
		return ErrStopped
	case !started:
		return ErrNotStarted
	}

	j := job{ctx: context.WithoutCancel(ctx), fn: fn, done: make(chan error, 1)}
	jobsQueued.Inc()
	select {
	case p.jobs <- j:
	case <-ctx.Done():
		jobsQueued.Dec()
		return ctx.Err()
	case <-p.quit:
		jobsQueued.Dec()
		return ErrStopped
	}

	select {
	case err := <-j.done:
		return err
	case <-p.exited:
		// The send raced with Stop and no worker was left to take it.
		select {
		case err := <-j.done:
			return err
		default:
			jobsQueued.Dec()
			return ErrStopped
		}
	}
}

// Stop rejects new submissions, lets queued jobs finish and waits for the
// workers to exit or ctx to end. It may be called again to keep waiting.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.quit)
		go func() {
			p.wg.Wait()
			close(p.exited)
		}()
	}
	p.mu.Unlock()

	select {
	case <-p.exited:
		p.logger.Debug().Msg("worker pool stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("workerpool: stop timed out: %w", ctx.Err())
	}
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	for {
		select {
		case j := <-p.jobs:
			p.handle(id, j)
		case <-p.quit:
			// Drain what was queued before Stop.
			for {
				select {
				case j := <-p.jobs:
					p.handle(id, j)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) handle(id int, j job) {
	jobsQueued.Dec()
	workersBusy.Inc()
	err := p.exec(id, j)
	workersBusy.Dec()
	if err != nil {
		jobsTotal.WithLabelValues("error").Inc()
	} else {
		jobsTotal.WithLabelValues("ok").Inc()
	}
	j.done <- err
}

// exec runs one job, converting a panic into an error for the submitter.
func (p *Pool) exec(id int, j job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error().
				Int("worker", id).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("job panicked")
			err = fmt.Errorf("workerpool: job panicked: %v", rec)
		}
	}()
	return j.fn(j.ctx)
}
