package block

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Pin locks the block's backing pages in physical memory so the GPU driver
// can DMA into it directly, skipping the staging copy.
func (b *HostBlock) Pin() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.Pinned || len(b.Data) == 0 {
		return nil
	}
	if err := unix.Mlock(byteView(b.Data)); err != nil {
		return fmt.Errorf("block: mlock block %d (%s): %w", b.Index, b.Group, err)
	}
	b.Pinned = true
	return nil
}

// Unpin releases a previously pinned block's pages.
func (b *HostBlock) Unpin() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if !b.Pinned {
		return nil
	}
	if err := unix.Munlock(byteView(b.Data)); err != nil {
		return fmt.Errorf("block: munlock block %d (%s): %w", b.Index, b.Group, err)
	}
	b.Pinned = false
	return nil
}

// IsPinned reports the block's current pinning state.
func (b *HostBlock) IsPinned() bool {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.Pinned
}

func byteView(data []float32) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}

// PinBudget is the GPU memory safety margin left unpinned per device: 50
// MiB kept free.
const PinBudget = 50 * 1024 * 1024

// Pinner incrementally pins arena blocks up to a byte budget, preferring
// PV (most traffic) then ST then EM. It is meant to run on a
// background goroutine; Step does one block's worth of work and returns
// whether any work remains.
type Pinner struct {
	arenas  []*Arena // ordered PV, ST, EM
	budget  int64
	pinned  int64
	cursors []int
}

// NewPinner orders arenas PV, ST, EM and bounds total pinned bytes by
// budget.
func NewPinner(pv, st, em *Arena, budget int64) *Pinner {
	return &Pinner{
		arenas:  []*Arena{pv, st, em},
		budget:  budget,
		cursors: make([]int, 3),
	}
}

// Step pins the next unpinned block in priority order, if the budget
// allows, and reports whether it made progress.
func (p *Pinner) Step() (bool, error) {
	for ai, arena := range p.arenas {
		if arena == nil {
			continue
		}
		for p.cursors[ai] < len(arena.Blocks) {
			blk := arena.Blocks[p.cursors[ai]]
			p.cursors[ai]++
			if blk.IsPinned() {
				continue
			}
			size := int64(len(blk.Data)) * 4
			if p.pinned+size > p.budget {
				return false, nil
			}
			if err := blk.Pin(); err != nil {
				return false, err
			}
			p.pinned += size
			return true, nil
		}
	}
	return false, nil
}

// Done reports whether every arena has been walked to completion.
func (p *Pinner) Done() bool {
	for ai, arena := range p.arenas {
		if arena != nil && p.cursors[ai] < len(arena.Blocks) {
			return false
		}
	}
	return true
}
