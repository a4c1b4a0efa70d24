package device

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ResidencyEntry tracks one earth-model block's device-side copy: whether
// it is currently resident and in use by an in-flight sub-step.
type ResidencyEntry struct {
	BlockIndex int
	DeviceID   int
	InUse      atomic.Bool
	id         uuid.UUID
}

// ResidencyCache tracks which earth-model host blocks currently have a
// live device-side copy, per device.
type ResidencyCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*ResidencyEntry
	byBlock map[[2]int]uuid.UUID // (deviceID, blockIndex) -> entry id
}

// NewResidencyCache builds an empty cache.
func NewResidencyCache() *ResidencyCache {
	return &ResidencyCache{
		entries: make(map[uuid.UUID]*ResidencyEntry),
		byBlock: make(map[[2]int]uuid.UUID),
	}
}

// Acquire marks block blockIndex resident on device and in use, creating
// the entry if this is the first time the window has reached it.
func (c *ResidencyCache) Acquire(device, blockIndex int) *ResidencyEntry {
	key := [2]int{device, blockIndex}

	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.byBlock[key]; ok {
		e := c.entries[id]
		e.InUse.Store(true)
		return e
	}

	id, _ := uuid.NewV7()
	e := &ResidencyEntry{BlockIndex: blockIndex, DeviceID: device, id: id}
	e.InUse.Store(true)
	c.entries[id] = e
	c.byBlock[key] = id
	return e
}

// Release marks the block no longer in use by the current sub-step,
// without evicting it — it stays resident until Evict is called.
func (c *ResidencyCache) Release(e *ResidencyEntry) {
	e.InUse.Store(false)
}

// Evict drops the residency record for (device, blockIndex). The scheduler
// does not call it, so released entries stay in the cache.
func (c *ResidencyCache) Evict(device, blockIndex int) {
	key := [2]int{device, blockIndex}

	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.byBlock[key]; ok {
		delete(c.entries, id)
		delete(c.byBlock, key)
	}
}

// Resident reports whether (device, blockIndex) currently has a live
// device-side copy.
func (c *ResidencyCache) Resident(device, blockIndex int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byBlock[[2]int{device, blockIndex}]
	return ok
}

// Count returns the number of blocks currently resident on device.
func (c *ResidencyCache) Count(device int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for k := range c.byBlock {
		if k[0] == device {
			n++
		}
	}
	return n
}
