// Package worker provides a bounded pool for CPU-heavy document decoding.
package worker

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// ErrQueueFull is returned when a job cannot be enqueued before its
// deadline.
var ErrQueueFull = errors.New("worker queue full")

// Job carries one decode task. The result channel is buffered so a worker
// never blocks on a caller that already gave up.
type Job struct {
	Run        func() string
	ResultChan chan string
	Context    context.Context
}

// Pool manages a fixed set of workers draining a shared job queue.
type Pool struct {
	JobQueue chan Job
	PoolSize int
}

// NewPool creates a worker pool. Start must be called before submitting.
func NewPool(poolSize, queueSize int) *Pool {
	return &Pool{
		JobQueue: make(chan Job, queueSize),
		PoolSize: poolSize,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.PoolSize; i++ {
		go func(workerID int) {
			log.Debug().Int("worker", workerID).Msg("worker started")
			for job := range p.JobQueue {
				if job.Context.Err() != nil {
					// Caller's budget expired while queued.
					continue
				}
				job.ResultChan <- job.Run()
			}
			log.Debug().Int("worker", workerID).Msg("worker stopped")
		}(i)
	}
}

// Stop shuts down the pool. Pending jobs still drain.
func (p *Pool) Stop() {
	log.Info().Msg("stopping worker pool")
	close(p.JobQueue)
}

// Submit runs fn on the pool and waits for its result until ctx expires.
// On expiry the job keeps running on its worker but the result is dropped.
func (p *Pool) Submit(ctx context.Context, fn func() string) (string, error) {
	job := Job{
		Run:        fn,
		ResultChan: make(chan string, 1),
		Context:    ctx,
	}
	select {
	case p.JobQueue <- job:
	case <-ctx.Done():
		return "", ErrQueueFull
	}
	select {
	case result := <-job.ResultChan:
		return result, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
