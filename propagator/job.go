// Package propagator implements the Elastic_Propagator scheduler: a
// pipelined, multi-device time-stepping engine that streams an elastic
// wavefield through a chain of compute stages. The
// per-device compute kernel itself is out of scope; it is
// modelled here as the kernel.Kernel contract in propagator/kernel.
package propagator

import "github.com/google/uuid"

// StencilOrder is the finite-difference stencil order; bsX = StencilOrder/2
// is the host block half-width along X.
const StencilOrder = 8

// HaloWidth is the per-sub-step Y-range growth going back in time: each
// step back grows the Y-range by h cells on each side.
const HaloWidth = StencilOrder / 2

// RelCost is the default per-sub-step-parity cost coefficient.
var RelCost = [2]float64{0.5, 0.5}

// JobConfig mirrors the scheduler configuration inputs coming from the
// external job/configuration object.
type JobConfig struct {
	Nx, Ny, Nz int
	CellSize   float64

	NumPipes       int
	StepsPerDevice int
	Devices        []DeviceID

	CourantFactor float64

	FreeSurface   bool
	SourceGhost   bool
	ReceiverGhost bool
	Debug         bool

	SlowDataTransfers bool
}

// NbX is the number of host blocks along X, derived from Nx and the
// stencil half-width.
func (c JobConfig) NbX() int {
	bsX := StencilOrder / 2
	return (c.Nx + bsX - 1) / bsX
}

// DeviceID identifies one compute device: a GPU in a real deployment, a
// logical worker here, since device kernels are a pure-function contract.
type DeviceID int

// Shot is one source's configuration and receiver set.
type Shot struct {
	ID                        uuid.UUID
	SourceX, SourceY, SourceZ float64
	NumTimesteps              int
	ReceiverLocations         []ReceiverLocation
}

// NewShot assigns a fresh time-ordered id to a shot.
func NewShot(sourceX, sourceY, sourceZ float64, numTimesteps int, receivers []ReceiverLocation) Shot {
	id, _ := uuid.NewV7()
	return Shot{ID: id, SourceX: sourceX, SourceY: sourceY, SourceZ: sourceZ, NumTimesteps: numTimesteps, ReceiverLocations: receivers}
}

// ReceiverLocation is one receiver's grid-relative position.
type ReceiverLocation struct {
	X, Y, Z float64
}
