package propagator

import (
	"sync"

	"github.com/google/uuid"
)

// ReceiverBuffer is one shot's per-pipeline staging area for extracted
// receiver values. The out-of-scope device
// kernel extracts the values; this buffer only owns their host-side
// accumulation until a caller drains them to disk/memory.
type ReceiverBuffer struct {
	ShotID        uuid.UUID
	PipelineIndex int

	mu     sync.Mutex
	values []float32
}

// Append adds one block-cycle's worth of extracted receiver samples.
func (r *ReceiverBuffer) Append(samples []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, samples...)
}

// Drain returns and clears everything accumulated so far.
func (r *ReceiverBuffer) Drain() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.values
	r.values = nil
	return out
}

// receiverKey identifies one (shot, pipeline) receiver buffer.
type receiverKey struct {
	shot     uuid.UUID
	pipeline int
}

// ReceiverSet owns every shot/pipeline receiver buffer for one run.
type ReceiverSet struct {
	mu      sync.Mutex
	buffers map[receiverKey]*ReceiverBuffer
}

// NewReceiverSet prepares an empty receiver set.
func NewReceiverSet() *ReceiverSet {
	return &ReceiverSet{buffers: make(map[receiverKey]*ReceiverBuffer)}
}

// For returns the buffer for a (shot, pipeline) pair, creating it on first
// use.
func (s *ReceiverSet) For(shot Shot, pipelineIndex int) *ReceiverBuffer {
	key := receiverKey{shot: shot.ID, pipeline: pipelineIndex}

	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.buffers[key]
	if !ok {
		buf = &ReceiverBuffer{ShotID: shot.ID, PipelineIndex: pipelineIndex}
		s.buffers[key] = buf
	}
	return buf
}
