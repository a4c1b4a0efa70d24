// Package workerpool is the shared goroutine worker-pool idiom used by both
// cores: the block compressor's scheduler (codec/scheduler.go) fans block
// indices out across worker goroutines, and the wave propagator's receiver
// de-mux stage (propagator/scheduler.go) fans shot buffers out across CPU
// threads, one per device.
package workerpool

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Status tracks progress of a batch of tasks submitted to a worker pool.
// The first failure wins: subsequent tasks observe Err and skip their work
// rather than pile on more errors.
type Status struct {
	Total     int
	Processed atomic.Int32

	Err       atomic.Bool
	ErrObject error

	Waiter sync.WaitGroup
	lock   sync.Mutex
}

// NewStatus prepares a Status for `total` units of work; Wait blocks until
// all of them have been marked done. After a failure the remaining units
// are skipped but still marked done, so Wait then returns the first error.
func NewStatus(total int) *Status {
	s := &Status{Total: total}
	if total > 0 {
		s.Waiter.Add(1)
	}
	return s
}

// Fail records the first error for the batch; later calls are no-ops.
func (s *Status) Fail(err error) {
	if s.Err.CompareAndSwap(false, true) {
		s.lock.Lock()
		s.ErrObject = err
		s.lock.Unlock()
	}
}

// Failed reports whether any task in the batch has already failed.
func (s *Status) Failed() (bool, error) {
	if !s.Err.Load() {
		return false, nil
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return true, s.ErrObject
}

// MarkDone advances the completed-unit counter by n, releasing Wait()'s
// blocked caller once every unit has reported in.
func (s *Status) MarkDone(n int32) {
	processed := s.Processed.Add(n)
	if processed == int32(s.Total) {
		s.Waiter.Done()
	}
}

// Wait blocks until every unit submitted at construction time is done.
func (s *Status) Wait() error {
	if s.Total == 0 {
		return nil
	}
	s.Waiter.Wait()
	if failed, err := s.Failed(); failed {
		return err
	}
	return nil
}

// StartWorkerThreads spawns n goroutines running fn(threadID), returning a
// WaitGroup the caller joins after closing whatever channel fn drains.
func StartWorkerThreads(n int, fn func(threadID int)) *sync.WaitGroup {
	wg := &sync.WaitGroup{}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			fn(id)
		}(i)
	}
	return wg
}

// RunQueue drains tasksQueue, invoking process for each task and recording
// its outcome on status. It stops doing new work once status has already
// failed; callers decide how to surface the failure since workerpool has
// no logging dependency of its own.
func RunQueue[T any](tasksQueue <-chan T, status *Status, process func(task T) error) {
	for task := range tasksQueue {
		if failed, _ := status.Failed(); failed {
			status.MarkDone(1)
			continue
		}

		if err := process(task); err != nil {
			status.Fail(fmt.Errorf("task processing failed: %w", err))
		}
		status.MarkDone(1)
	}
}
