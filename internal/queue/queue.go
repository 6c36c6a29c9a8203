// Package queue is the sequencer every accumulator read-modify-write runs on.
// Tasks execute one at a time in FIFO order; a task may enqueue follow-up tasks,
// which run after everything already queued.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskFunc is one unit of work. A returned error is logged and does not stop
// the queue; there is no retry.
type TaskFunc func(ctx context.Context) error

// Task is a queued TaskFunc.
type Task struct {
	ID         uuid.UUID
	Name       string
	Run        TaskFunc
	EnqueuedAt time.Time
}

// Queue drains tasks strictly sequentially. A drain goroutine is started only
// when a task is enqueued while the queue is idle, and exits once it is empty.
type Queue struct {
	mu      sync.Mutex
	tasks   []Task
	running bool
	idle    chan struct{} // closed when the current drain finishes

	ctx     context.Context
	metrics *Metrics
}

// New creates an idle queue. metrics may be nil.
func New(metrics *Metrics) *Queue {
	idle := make(chan struct{})
	close(idle)
	return &Queue{
		idle: idle,
		// Queued tasks always run to completion, even during shutdown.
		ctx:     context.Background(),
		metrics: metrics,
	}
}

// Enqueue appends fn and starts draining if the queue was idle.
func (q *Queue) Enqueue(name string, fn TaskFunc) Task {
	t := Task{ID: uuid.New(), Name: name, Run: fn, EnqueuedAt: time.Now()}

	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	start := !q.running
	if start {
		q.running = true
		q.idle = make(chan struct{})
	}
	q.mu.Unlock()

	q.metrics.enqueued()
	if start {
		go q.drain()
	}
	return t
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.running = false
			close(q.idle)
			q.mu.Unlock()
			return
		}
		t := q.tasks[0]
		q.tasks[0] = Task{}
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		q.metrics.dequeued()
		q.run(t)
	}
}

func (q *Queue) run(t Task) {
	started := time.Now()
	status := statusOK

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				status = statusPanic
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return t.Run(q.ctx)
	}()

	elapsed := time.Since(started)
	if err != nil {
		if status == statusOK {
			status = statusFailed
		}
		slog.Error("[Queue] Task failed",
			"task", t.Name,
			"task_id", t.ID,
			"status", status,
			"error", err,
		)
	} else {
		slog.Debug("[Queue] Task done",
			"task", t.Name,
			"task_id", t.ID,
			"waited", started.Sub(t.EnqueuedAt),
			"took", elapsed,
		)
	}
	q.metrics.observe(status, elapsed)
}

// Wait blocks until the queue is empty and no task is running, or ctx is done.
func (q *Queue) Wait(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len is the number of tasks waiting to run, excluding the running one.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
