// Package tasks runs background work for the service: a small worker pool for
// fire-and-forget tasks and a fixed-interval scheduler.
package tasks

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Func is a unit of background work.
type Func func(ctx context.Context) error

type task struct {
	name string
	fn   Func
}

// Queue is a buffered task channel served by a fixed number of workers.
type Queue struct {
	tasks   chan task
	workers int
	log     *logrus.Entry

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func NewQueue(workers, buffer int, logger *logrus.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Queue{
		tasks:   make(chan task, buffer),
		workers: workers,
		log:     logger.WithField("component", "tasks"),
	}
}

// Start launches the workers. Tasks run with a context detached from ctx's
// cancellation so Close can drain what is already queued.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true

	runCtx := context.WithoutCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for t := range q.tasks {
				q.run(runCtx, t)
			}
		}()
	}
}

func (q *Queue) run(ctx context.Context, t task) {
	defer func() {
		if r := recover(); r != nil {
			q.log.WithField("task", t.name).Errorf("task panicked: %v", r)
		}
	}()
	if err := t.fn(ctx); err != nil {
		q.log.WithFields(logrus.Fields{"task": t.name, "error": err}).Error("task failed")
		return
	}
	q.log.WithField("task", t.name).Debug("task done")
}

// Enqueue schedules fn without blocking. It reports false when the task was
// dropped because the queue is full or closed.
func (q *Queue) Enqueue(name string, fn Func) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.log.WithField("task", name).Warn("queue closed, task dropped")
		return false
	}
	select {
	case q.tasks <- task{name: name, fn: fn}:
		return true
	default:
		q.log.WithField("task", name).Warn("queue full, task dropped")
		return false
	}
}

// Close stops accepting tasks, runs everything already queued and waits for
// the workers to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	started := q.started
	q.mu.Unlock()

	if !started {
		for t := range q.tasks {
			q.run(context.Background(), t)
		}
		return
	}
	q.wg.Wait()
}
