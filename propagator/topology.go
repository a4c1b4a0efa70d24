package propagator

import "errors"

// ErrLoadBalanceFailed marks that the volume was too narrow for every
// pipe to reach a minimum width, so BuildTopology fell back to an equal
// split.
var ErrLoadBalanceFailed = errors.New("propagator: load balancing failed, used equal split")

// MinPipeWidth is the minimum Y-slab width a pipe must reach for the
// edge-bonus split to be kept.
const MinPipeWidth = 2 * HaloWidth

// Topology is the fully built set of pipelines for one job configuration.
// LoadBalanced is false when BuildTopology had to fall back to an equal
// split.
type Topology struct {
	Pipelines    []*Pipeline
	LoadBalanced bool
}

// BuildTopology runs the configuration-time layout procedure: inter-pipe
// Y split, per-pipe chain construction, intra-pipe device assignment, and
// output-stage marking. No EM buffers are placed in the chains.
func BuildTopology(cfg JobConfig) (*Topology, error) {
	if cfg.NumPipes < 1 {
		cfg.NumPipes = 1
	}
	if len(cfg.Devices) == 0 {
		return nil, errors.New("propagator: topology requires at least one device")
	}

	gpusPerPipe := len(cfg.Devices) / cfg.NumPipes
	if gpusPerPipe < 1 {
		gpusPerPipe = 1
	}

	slabs, balanced := splitPipes(cfg.Ny, cfg.NumPipes, gpusPerPipe, cfg.StepsPerDevice)

	topo := &Topology{LoadBalanced: balanced}
	for pi, slab := range slabs {
		devStart := pi * gpusPerPipe
		devEnd := devStart + gpusPerPipe
		if devEnd > len(cfg.Devices) {
			devEnd = len(cfg.Devices)
		}
		pipe := buildPipeline(pi, slab, cfg.Devices[devStart:devEnd], cfg.StepsPerDevice, cfg.Ny)
		topo.Pipelines = append(topo.Pipelines, pipe)
	}

	var err error
	if !balanced {
		err = ErrLoadBalanceFailed
	}
	return topo, err
}

// Cost is the cost function for one sub-step: its Y-range width times the
// parity-indexed relative cost. Exposed standalone so the
// auto-tuner and tests can predict a candidate's cost without building a
// full topology first.
func Cost(width, parity int, relCost [2]float64) float64 {
	return float64(width) * relCost[parity%2]
}

type ySlab struct{ y0, y1 int }

// splitPipes partitions [0,ny-1] into numPipes slabs. With three or more
// pipes the two edge pipes each get a fixed bonus of HaloWidth*k cells over
// the equal share; the per-pipe chain cost is not computed, so the widths
// do not equalise it, and gpusPerPipe does not affect the split.
func splitPipes(ny, numPipes, gpusPerPipe, k int) ([]ySlab, bool) {
	base := ny / numPipes
	if base < MinPipeWidth {
		return equalSplit(ny, numPipes), false
	}

	// Edge pipes get a bonus proportional to one sub-step's halo width,
	// taken from interior pipes in equal shares, keeping total width ny.
	bonus := HaloWidth * k
	if numPipes <= 2 {
		bonus = 0 // no interior pipe to take the bonus from
	}
	interior := numPipes - 2
	if interior < 0 {
		interior = 0
	}

	widths := make([]int, numPipes)
	for i := range widths {
		widths[i] = base
	}
	if numPipes >= 2 {
		widths[0] += bonus
		widths[numPipes-1] += bonus
		if interior > 0 {
			take := (2 * bonus) / interior
			for i := 1; i < numPipes-1; i++ {
				widths[i] -= take
			}
		}
	}

	total := 0
	for _, w := range widths {
		if w < MinPipeWidth {
			return equalSplit(ny, numPipes), false
		}
		total += w
	}
	widths[numPipes-1] += ny - total // absorb rounding remainder

	slabs := make([]ySlab, numPipes)
	y0 := 0
	for i, w := range widths {
		slabs[i] = ySlab{y0: y0, y1: y0 + w - 1}
		y0 += w
	}
	return slabs, true
}

func equalSplit(ny, numPipes int) []ySlab {
	slabs := make([]ySlab, numPipes)
	base := ny / numPipes
	y0 := 0
	for i := 0; i < numPipes; i++ {
		w := base
		if i == numPipes-1 {
			w = ny - y0
		}
		slabs[i] = ySlab{y0: y0, y1: y0 + w - 1}
		y0 += w
	}
	return slabs
}

// buildPipeline enumerates k*GPUs_per_pipe*2 logical sub-steps, assigns them to devices by cumulative cost (step 3), and marks
// output stages (step 5). It adds no EM trailing buffers.
func buildPipeline(index int, slab ySlab, devices []DeviceID, k, ny int) *Pipeline {
	gpusPerPipe := len(devices)
	if gpusPerPipe < 1 {
		gpusPerPipe = 1
	}
	totalSubSteps := k * gpusPerPipe * 2
	if totalSubSteps < 1 {
		totalSubSteps = 1
	}

	pipe := &Pipeline{Index: index, Y0: slab.y0, Y1: slab.y1, Devices: devices}

	// sub-step i=0 is newest (cbo=0); i=totalSubSteps-1 is oldest and has
	// the widest halo: it grows by h on each side as i walks back in time,
	// clamped to [0, ny-1].
	type substep struct {
		y0, y1, parity int
		cost           float64
	}
	steps := make([]substep, totalSubSteps)
	var totalCost float64
	for i := 0; i < totalSubSteps; i++ {
		grow := HaloWidth * i
		y0 := clampInt(slab.y0-grow, 0, ny-1)
		y1 := clampInt(slab.y1+grow, 0, ny-1)
		parity := i % 2
		cost := Cost(y1-y0+1, parity, RelCost)
		steps[i] = substep{y0: y0, y1: y1, parity: parity, cost: cost}
		totalCost += cost
	}

	costPerDevice := totalCost / float64(gpusPerPipe)

	// Walk oldest (i=totalSubSteps-1) to newest (i=0), assigning a device
	// index by cumulative cost threshold.
	var cumulative float64
	deviceIdx := 0
	lastDeviceIdx := 0

	for chainPos := 0; chainPos < totalSubSteps; chainPos++ {
		i := totalSubSteps - 1 - chainPos
		s := steps[i]
		cumulative += s.cost
		if costPerDevice > 0 {
			deviceIdx = int(cumulative / costPerDevice)
		}
		if deviceIdx >= gpusPerPipe {
			deviceIdx = gpusPerPipe - 1
		}

		dev := devices[deviceIdx%len(devices)]
		id := BufferId(len(pipe.arena))
		buf := Buffer{
			ID:            id,
			DeviceID:      dev,
			SubStep:       i,
			SubStepParity: s.parity,
			Y0:            s.y0,
			Y1:            s.y1,
			Z0:            0,
			Z1:            -1, // no Z range is assigned; nothing sets it later
			CBO:           -i,
			Role:          RoleCompute,
			PrevInChain:   NoBuffer,
			NextInChain:   NoBuffer,
			M1:            NoBuffer,
			M2:            NoBuffer,
		}
		if chainPos > 0 {
			buf.PrevInChain = pipe.arena[len(pipe.arena)-1].ID
			pipe.arena[len(pipe.arena)-1].NextInChain = id
		}

		// Hand-off: a new device begins, insert send-end/receive-end/
		// input-halo buffers.
		if chainPos > 0 && deviceIdx != lastDeviceIdx {
			prevDev := devices[lastDeviceIdx%len(devices)]
			pipe.arena = append(pipe.arena, Buffer{
				ID: BufferId(len(pipe.arena)), DeviceID: prevDev,
				Role: RoleSendEnd, CBO: buf.CBO, Y0: s.y0, Y1: s.y1,
				PrevInChain: NoBuffer, NextInChain: NoBuffer, M1: NoBuffer, M2: NoBuffer,
			})
			pipe.arena = append(pipe.arena, Buffer{
				ID: BufferId(len(pipe.arena)), DeviceID: dev,
				Role: RoleReceiveEnd, CBO: buf.CBO, Y0: s.y0, Y1: s.y1,
				PrevInChain: NoBuffer, NextInChain: NoBuffer, M1: NoBuffer, M2: NoBuffer,
			})
			haloY0 := clampInt(s.y0-HaloWidth, 0, ny-1)
			haloY1 := clampInt(s.y1+HaloWidth, 0, ny-1)
			pipe.arena = append(pipe.arena, Buffer{
				ID: BufferId(len(pipe.arena)), DeviceID: dev,
				Role: RoleInputHalo, CBO: buf.CBO, Y0: haloY0, Y1: haloY1,
				PrevInChain: NoBuffer, NextInChain: NoBuffer, M1: NoBuffer, M2: NoBuffer,
			})
			buf.ID = BufferId(len(pipe.arena))
			pipe.arena[buf.PrevInChain].NextInChain = buf.ID
		}

		pipe.arena = append(pipe.arena, buf)
		lastDeviceIdx = deviceIdx
	}

	markOutputStages(pipe)
	return pipe
}

// markOutputStages marks the last three buffers of the chain
// device-to-host.
func markOutputStages(pipe *Pipeline) {
	n := len(pipe.arena)
	for i := n - 3; i < n; i++ {
		if i >= 0 {
			pipe.arena[i].Role = RoleDeviceToHost
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
