// Package block implements the host-resident volume arena: NbX fixed-width
// slabs along X, each holding the particle-velocity (PV), stress (ST), or
// earth-model (EM) cell groups for one X-slice of the volume.
package block

import "sync"

// Group identifies which cell group a host block stores.
type Group int

const (
	PV Group = iota
	ST
	EM
	numGroups
)

func (g Group) String() string {
	switch g {
	case PV:
		return "PV"
	case ST:
		return "ST"
	case EM:
		return "EM"
	default:
		return "unknown"
	}
}

// HostBlock is one page-aligned slab of width bsX along X, full Y/Z,
// storing one cell group.
type HostBlock struct {
	Index int // position along X, 0..NbX-1
	Group Group

	BsX, Ny, Nz int
	Cells       int // cells per X-plane * BsX * fieldsPerCell (len(Data))

	lock   sync.RWMutex
	Data   []float32
	Pinned bool
}

// NewHostBlock allocates a zeroed block; the caller NUMA-first-touches it
// by writing through once.
func NewHostBlock(index int, group Group, bsX, ny, nz, fieldsPerCell int) *HostBlock {
	cells := bsX * ny * nz * fieldsPerCell
	return &HostBlock{
		Index: index,
		Group: group,
		BsX:   bsX,
		Ny:    ny,
		Nz:    nz,
		Cells: cells,
		Data:  make([]float32, cells),
	}
}

// FirstTouch clears the block's storage, touching every page exactly once.
func (b *HostBlock) FirstTouch() {
	b.lock.Lock()
	defer b.lock.Unlock()
	for i := range b.Data {
		b.Data[i] = 0
	}
}

// Write copies data into the block under its lock.
func (b *HostBlock) Write(data []float32) {
	b.lock.Lock()
	defer b.lock.Unlock()
	copy(b.Data, data)
}

// Export copies the block's storage into out, returning the number of
// cells copied.
func (b *HostBlock) Export(out []float32) int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return copy(out, b.Data)
}

// Arena owns every host block for one group, indexed by X-block position.
type Arena struct {
	Group  Group
	Blocks []*HostBlock
}

// NewArena allocates nbX blocks of the given shape for one cell group.
func NewArena(group Group, nbX, bsX, ny, nz, fieldsPerCell int) *Arena {
	a := &Arena{Group: group, Blocks: make([]*HostBlock, nbX)}
	for i := range a.Blocks {
		a.Blocks[i] = NewHostBlock(i, group, bsX, ny, nz, fieldsPerCell)
	}
	return a
}

// At returns block i, wrapping defensively should a caller index past the
// end of the X-sweep; this keeps the arena safe to index with
// out-of-range cbo-derived positions during testing of partial sweeps.
func (a *Arena) At(i int) *HostBlock {
	n := len(a.Blocks)
	if n == 0 {
		return nil
	}
	i %= n
	if i < 0 {
		i += n
	}
	return a.Blocks[i]
}
