// Package device models one compute device's cooperative stream set and
// its earth-model residency cache. CUDA
// streams are reimagined as Go channels carrying work items, each drained
// by a single goroutine per stream so that intra-stream ordering (a CUDA
// stream's defining guarantee) falls out of the channel's FIFO order;
// cross-stream ordering is the caller's explicit SyncAll call, which
// synchronises all compute, input, output, and receiver streams.
package device

import "sync"

// Kind names one of the four cooperative streams a device owns.
type Kind int

const (
	Compute Kind = iota
	Input
	Output
	Receiver
	numKinds
)

func (k Kind) String() string {
	switch k {
	case Compute:
		return "compute"
	case Input:
		return "input"
	case Output:
		return "output"
	case Receiver:
		return "receiver"
	default:
		return "unknown"
	}
}

// Task is one unit of launched work on a stream.
type Task func() error

// Stream serialises tasks FIFO, the way a CUDA stream serialises launches;
// tasks are not actually concurrent with each other on the same stream.
type Stream struct {
	kind    Kind
	queue   chan Task
	errOnce sync.Once
	err     error
	done    chan struct{}
}

func newStream(kind Kind) *Stream {
	s := &Stream{kind: kind, queue: make(chan Task, 64), done: make(chan struct{})}
	go s.run()
	return s
}

func (s *Stream) run() {
	defer close(s.done)
	for task := range s.queue {
		if err := task(); err != nil {
			s.errOnce.Do(func() { s.err = err })
		}
	}
}

// Launch enqueues a task on the stream; it never blocks the caller beyond
// the channel buffer filling up, mirroring asynchronous kernel launch.
func (s *Stream) Launch(t Task) {
	s.queue <- t
}

// StreamSet is the per-device cooperative stream group.
type StreamSet struct {
	ID      int
	streams [numKinds]*Stream
}

// NewStreamSet starts all four cooperative streams for one device at
// construction; none is started on first use.
func NewStreamSet(deviceID int) *StreamSet {
	ss := &StreamSet{ID: deviceID}
	for k := Kind(0); k < numKinds; k++ {
		ss.streams[k] = newStream(k)
	}
	return ss
}

// Stream returns the device's stream of the given kind.
func (ss *StreamSet) Stream(k Kind) *Stream {
	return ss.streams[k]
}

// SyncAll launches a sentinel task on every stream and waits for each to
// run, so every task queued before it has finished; the streams stay open.
// It returns the first error any task on any stream recorded, forming the
// end-of-block-cycle synchronisation barrier.
func (ss *StreamSet) SyncAll() error {
	var barrier sync.WaitGroup
	errs := make([]error, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		barrier.Add(1)
		go func(k Kind) {
			defer barrier.Done()
			done := make(chan struct{})
			ss.streams[k].Launch(func() error { close(done); return nil })
			<-done
			errs[k] = ss.streams[k].err
		}(k)
	}
	barrier.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Close shuts every stream down; callers must not Launch after Close.
func (ss *StreamSet) Close() {
	for _, s := range ss.streams {
		close(s.queue)
		<-s.done
	}
}
