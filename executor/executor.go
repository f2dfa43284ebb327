// SPDX-License-Identifier: GPL-3.0-or-later

// Package executor provides a bounded worker pool with a FIFO task
// queue and a drain-for-idle primitive, used by the runtime package to
// bound Server/Worker concurrency.
package executor

import (
	"sync"
	"time"

	"github.com/rainsocket/rain"
	"github.com/rainsocket/rain/timeout"
)

// pollInterval is how often [Executor.BlockForTasks] rechecks idleness.
// A short sleep-based poll keeps the three-mutex lock ordering simple
// (no cross-mutex condition variable) at the cost of up to this much
// extra latency observing drain completion.
const pollInterval = 5 * time.Millisecond

// Executor runs submitted tasks on at most MaxThreads goroutines,
// spawning a new worker goroutine on submission only when no goroutine
// is idle and the thread count is below the bound (0 means unbounded).
//
// Lock ordering is fixed to queueMtx -> threadsMtx -> idleMtx whenever
// more than one is held at once, preventing deadlock between the
// submitter and idle workers.
type Executor struct {
	cfg *rain.Config

	queueMtx      sync.Mutex
	queue         []func()
	queueNotEmpty chan struct{}

	threadsMtx sync.Mutex
	threads    int
	maxThreads int

	idleMtx sync.Mutex
	idle    int

	closing   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates an [*Executor] bounded at maxThreads goroutines (0 means
// unbounded).
func New(cfg *rain.Config, maxThreads int) *Executor {
	return &Executor{
		cfg:           cfg,
		maxThreads:    maxThreads,
		queueNotEmpty: make(chan struct{}, 1),
		closing:       make(chan struct{}),
	}
}

// Submit enqueues task for execution. Tasks submitted after [Executor.Shutdown]
// has been called are dropped the next time an idle worker wakes up.
func (e *Executor) Submit(task func()) {
	e.queueMtx.Lock()
	e.queue = append(e.queue, task)
	e.queueMtx.Unlock()
	e.signal()
	e.maybeSpawn()
}

func (e *Executor) signal() {
	select {
	case e.queueNotEmpty <- struct{}{}:
	default:
	}
}

// maybeSpawn starts a new worker goroutine if no goroutine is currently
// idle and the thread count has not reached maxThreads.
func (e *Executor) maybeSpawn() {
	select {
	case <-e.closing:
		return
	default:
	}
	e.threadsMtx.Lock()
	defer e.threadsMtx.Unlock()

	e.idleMtx.Lock()
	hasIdle := e.idle > 0
	e.idleMtx.Unlock()
	if hasIdle {
		return
	}
	if e.maxThreads > 0 && e.threads >= e.maxThreads {
		return
	}

	e.threads++
	e.wg.Add(1)
	go e.runWorker()
}

func (e *Executor) runWorker() {
	defer e.wg.Done()
	defer func() {
		e.threadsMtx.Lock()
		e.threads--
		e.threadsMtx.Unlock()
	}()

	for {
		task, ok := e.pop()
		if ok {
			e.runTask(task)
			continue
		}

		e.idleMtx.Lock()
		e.idle++
		e.idleMtx.Unlock()
		select {
		case <-e.closing:
			e.idleMtx.Lock()
			e.idle--
			e.idleMtx.Unlock()
			return
		case <-e.queueNotEmpty:
			e.idleMtx.Lock()
			e.idle--
			e.idleMtx.Unlock()
			select {
			case <-e.closing:
				return
			default:
			}
		}
	}
}

// pop removes and returns the head of the queue, if any. idle is
// tracked only around the blocking wait in [Executor.runWorker], not
// here, so that "idle" means "blocked waiting for work" rather than
// "not currently inside pop".
func (e *Executor) pop() (func(), bool) {
	e.queueMtx.Lock()
	defer e.queueMtx.Unlock()
	if len(e.queue) == 0 {
		return nil, false
	}
	task := e.queue[0]
	e.queue = e.queue[1:]
	return task, true
}

func (e *Executor) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			e.cfg.Logger.Info("executorTaskPanic", "recover", r)
		}
	}()
	task()
}

// BlockForTasks waits up to t for the queue to drain and every worker
// to go idle. Returns false if that state was reached (queue empty and
// all workers idle); returns true on timeout.
func (e *Executor) BlockForTasks(t timeout.Timeout) bool {
	for {
		if e.isIdle() {
			return false
		}
		if t.HasPassed() {
			return true
		}
		time.Sleep(pollInterval)
	}
}

func (e *Executor) isIdle() bool {
	e.queueMtx.Lock()
	empty := len(e.queue) == 0
	e.queueMtx.Unlock()

	e.threadsMtx.Lock()
	threads := e.threads
	e.threadsMtx.Unlock()

	e.idleMtx.Lock()
	idle := e.idle
	e.idleMtx.Unlock()

	return empty && idle >= threads
}

// Shutdown signals every idle worker goroutine to exit; in-flight tasks
// run to completion, but no new worker goroutine will be spawned once
// every current one has exited. Safe to call multiple times.
func (e *Executor) Shutdown() {
	e.closeOnce.Do(func() {
		close(e.closing)
	})
}

// Wait blocks until every worker goroutine has exited. Call after
// [Executor.Shutdown].
func (e *Executor) Wait() {
	e.wg.Wait()
}
