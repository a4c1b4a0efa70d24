// Package kernel defines the compute-kernel contract the scheduler
// depends on. The actual
// per-device finite-difference stencil, wavelet transform, and receiver
// extraction kernels are out of scope; this package only fixes
// the shape a real implementation must have, plus a software stub
// sufficient for scheduler unit tests.
package kernel

// Params carries the per-sub-step invocation parameters the scheduler
// derives from topology (cbo, Y/Z range, sub-step parity) that a kernel
// needs but does not choose for itself.
type Params struct {
	DeviceID      int
	BlockOffset   int // cbo at invocation time
	Y0, Y1        int
	Z0, Z1        int
	SubStepParity int

	// FreeSurface, SourceGhost, and ReceiverGhost are routed straight
	// through from JobConfig; only the out-of-scope kernel interprets
	// them, the scheduler just carries them along.
	FreeSurface   bool
	SourceGhost   bool
	ReceiverGhost bool
}

// Block is the device-resident block set a kernel reads and writes. The
// scheduler supplies it already materialised on the kernel's device; the
// kernel neither allocates nor transfers.
type Block struct {
	PV, ST, EM []float32
}

// Kernel is the per-device compute contract: given a device
// block set and invocation parameters, it runs to completion and returns
// an error only on an unrecoverable device fault.
// Implementations are expected to run on whatever stream dispatched them;
// the kernel itself does not manage stream lifetime.
type Kernel interface {
	Run(p Params, b *Block) error
}

// Func adapts a plain function to the Kernel interface.
type Func func(p Params, b *Block) error

func (f Func) Run(p Params, b *Block) error { return f(p, b) }

// AddOffsetStub is a stubbed compute kernel that adds the block's cbo to
// every PV and ST value (EM is left unchanged), used to check scheduler
// determinism. It requires no device
// memory beyond the block set already provided.
var AddOffsetStub Kernel = Func(func(p Params, b *Block) error {
	addOffset(b.PV, p.BlockOffset)
	addOffset(b.ST, p.BlockOffset)
	return nil
})

func addOffset(data []float32, offset int) {
	for i := range data {
		data[i] += float32(offset)
	}
}
