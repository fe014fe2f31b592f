// File: internal/concurrency/workqueue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WorkQueue is a fire-and-forget deferred task runner. Tasks are kept in an
// unbounded FIFO and executed one at a time on a dedicated goroutine. A
// panicking task is recovered and counted; it never stops the queue.

package concurrency

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-fifo/internal/logging"
)

// TaskFunc is a unit of work to execute.
type TaskFunc func()

// WorkQueue runs submitted tasks in order on one worker goroutine.
type WorkQueue struct {
	mu      sync.Mutex
	pending *queue.Queue
	closed  bool
	wake    chan struct{}
	done    chan struct{}
	log     *slog.Logger

	submitted atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
}

// NewWorkQueue starts the worker goroutine.
func NewWorkQueue() *WorkQueue {
	w := &WorkQueue{
		pending: queue.New(),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		log:     logging.For(logging.ComponentWorkQueue),
	}
	go w.run()
	return w
}

// Submit enqueues task. It never blocks on task execution.
func (w *WorkQueue) Submit(task TaskFunc) error {
	if task == nil {
		return ErrNilTask
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrQueueClosed
	}
	w.pending.Add(task)
	w.submitted.Add(1)
	// wake is closed under mu, so the send must happen under it as well.
	select {
	case w.wake <- struct{}{}:
	default:
	}
	w.mu.Unlock()
	return nil
}

// Close stops accepting tasks, runs whatever is already queued and waits
// for the worker to exit. Safe to call more than once.
func (w *WorkQueue) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.wake)
	}
	w.mu.Unlock()
	<-w.done
}

// Len returns the number of tasks waiting to run.
func (w *WorkQueue) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending.Length()
}

// Stats returns basic queue metrics.
func (w *WorkQueue) Stats() map[string]int64 {
	return map[string]int64{
		"submitted_tasks": w.submitted.Load(),
		"completed_tasks": w.completed.Load(),
		"panicked_tasks":  w.panicked.Load(),
		"pending_tasks":   int64(w.Len()),
	}
}

func (w *WorkQueue) next() (TaskFunc, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending.Length() == 0 {
		return nil, false
	}
	return w.pending.Remove().(TaskFunc), true
}

func (w *WorkQueue) run() {
	defer close(w.done)
	for {
		for {
			task, ok := w.next()
			if !ok {
				break
			}
			w.execute(task)
		}
		if _, open := <-w.wake; !open {
			// Tasks queued between the last drain and Close still run.
			for task, ok := w.next(); ok; task, ok = w.next() {
				w.execute(task)
			}
			return
		}
	}
}

func (w *WorkQueue) execute(task TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			w.panicked.Add(1)
			w.log.Error("deferred task panicked", "panic", fmt.Sprint(r))
			return
		}
		w.completed.Add(1)
	}()
	task()
}
