package propagator

// Role identifies what a buffer does at a hand-off point or pipeline end.
type Role int

const (
	RoleCompute Role = iota
	RoleSendEnd
	RoleReceiveEnd
	RoleInputHalo
	RoleDeviceToHost
)

func (r Role) String() string {
	switch r {
	case RoleCompute:
		return "compute"
	case RoleSendEnd:
		return "send-end"
	case RoleReceiveEnd:
		return "receive-end"
	case RoleInputHalo:
		return "input-halo"
	case RoleDeviceToHost:
		return "device-to-host"
	default:
		return "unknown"
	}
}

// Buffer is one logical sub-step's compute or transfer unit. Back-references to up to four prior buffers (spatial
// neighbours and the M1/M2 time-history) are BufferIds into the owning
// Pipeline's arena rather than pointers, so the arena can be
// copied, inspected, or rebuilt without chasing shared ownership.
type Buffer struct {
	ID BufferId

	DeviceID      DeviceID
	SubStep       int // logical sub-step index within the pipe's chain
	SubStepParity int // 0 or 1, selects RelCost
	Y0, Y1        int
	Z0, Z1        int

	// CBO is the current block offset; it decrements by one every
	// block-cycle. A buffer's absolute X-block
	// index at iteration it is (it + CBO).
	CBO int

	Role Role

	// Back-references, NoBuffer when absent: spatial neighbours
	// within the same sub-step chain, and the two trailing timesteps.
	PrevInChain BufferId
	NextInChain BufferId
	M1          BufferId // one timestep back
	M2          BufferId // two timesteps back
}

// Width returns the buffer's Y-extent in cells.
func (b Buffer) Width() int { return b.Y1 - b.Y0 + 1 }

// Cost is the buffer's contribution to the topology cost function: width
// times the sub-step-parity cost coefficient.
func (b Buffer) Cost() float64 {
	return float64(b.Width()) * RelCost[b.SubStepParity%2]
}
