// Package codec implements CvxCompress: the lossy block-wavelet codec for
// dense 3-D float32 volumes.
package codec

import (
	"errors"
	"fmt"

	"github.com/cvxgo/seismic/numeric"
)

// MinBlock and MaxBlock bound the supported power-of-two block extents.
const (
	MinBlock = 8
	MaxBlock = 256
)

var (
	ErrInvalidBlockDims = errors.New("codec: block dimensions must be powers of two in [8,256]")
	ErrInvalidVolume    = errors.New("codec: volume dimensions must be positive")
	ErrCorruptBuffer    = errors.New("codec: compressed buffer is corrupt")
)

// Volume is a dense 3-D grid of 32-bit floats, X fastest.
type Volume struct {
	Nx, Ny, Nz int
	Data       []float32 // len == Nx*Ny*Nz, index = x + Nx*(y + Ny*z)
}

// NewVolume allocates a zeroed volume of the given dimensions.
func NewVolume(nx, ny, nz int) *Volume {
	return &Volume{Nx: nx, Ny: ny, Nz: nz, Data: make([]float32, nx*ny*nz)}
}

func (v *Volume) At(x, y, z int) float32 {
	return v.Data[x+v.Nx*(y+v.Ny*z)]
}

func (v *Volume) Set(x, y, z int, val float32) {
	v.Data[x+v.Nx*(y+v.Ny*z)] = val
}

func (v *Volume) validate() error {
	if v.Nx <= 0 || v.Ny <= 0 || v.Nz <= 0 {
		return ErrInvalidVolume
	}
	if len(v.Data) != v.Nx*v.Ny*v.Nz {
		return fmt.Errorf("%w: data length %d does not match %dx%dx%d", ErrInvalidVolume, len(v.Data), v.Nx, v.Ny, v.Nz)
	}
	return nil
}

// BlockDims is the fixed power-of-two cuboid extent used for every block in
// one compress/decompress run.
type BlockDims struct {
	BX, BY, BZ int
}

func (b BlockDims) valid() bool {
	return numeric.IsPowerOfTwo(b.BX) && numeric.IsPowerOfTwo(b.BY) && numeric.IsPowerOfTwo(b.BZ) &&
		b.BX >= MinBlock && b.BX <= MaxBlock &&
		b.BY >= MinBlock && b.BY <= MaxBlock &&
		b.BZ >= MinBlock && b.BZ <= MaxBlock
}

// Cells returns the number of floats in one block.
func (b BlockDims) Cells() int { return b.BX * b.BY * b.BZ }

// Grid is the block-grid shape derived from a volume and block size.
type Grid struct {
	NBX, NBY, NBZ int
}

func NewGrid(v *Volume, b BlockDims) Grid {
	return Grid{
		NBX: ceilDiv(v.Nx, b.BX),
		NBY: ceilDiv(v.Ny, b.BY),
		NBZ: ceilDiv(v.Nz, b.BZ),
	}
}

func (g Grid) NumBlocks() int { return g.NBX * g.NBY * g.NBZ }

// Index linearises (bix,biy,biz) z-major: index = bix + NBX*(biy + NBY*biz).
func (g Grid) Index(bix, biy, biz int) int {
	return bix + g.NBX*(biy+g.NBY*biz)
}

// Coords is the inverse of Index.
func (g Grid) Coords(index int) (bix, biy, biz int) {
	bix = index % g.NBX
	rem := index / g.NBX
	biy = rem % g.NBY
	biz = rem / g.NBY
	return
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
