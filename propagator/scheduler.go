package propagator

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/fatih/color"

	"github.com/cvxgo/seismic/propagator/block"
	"github.com/cvxgo/seismic/propagator/device"
	"github.com/cvxgo/seismic/propagator/kernel"
	"github.com/cvxgo/seismic/workerpool"
)

// Scheduler drives one job's block-cycle loop across every pipeline in a
// topology.
type Scheduler struct {
	cfg       JobConfig
	topo      *Topology
	pv        *block.Arena
	st        *block.Arena
	em        *block.Arena
	streams   map[DeviceID]*device.StreamSet
	resident  *device.ResidencyCache
	kernel    kernel.Kernel
	receivers *ReceiverSet
	shots     []Shot

	iteration  int
	sweepStart int

	// H2DBytes and D2HBytes count transfer bytes launched this run,
	// reported as H2D/D2H byte counters.
	H2DBytes atomic.Int64
	D2HBytes atomic.Int64
}

// NewScheduler allocates host arenas and per-device stream sets for a
// built topology.
func NewScheduler(cfg JobConfig, topo *Topology, k kernel.Kernel) *Scheduler {
	nbX := cfg.NbX()
	bsX := StencilOrder / 2

	s := &Scheduler{
		cfg:       cfg,
		topo:      topo,
		pv:        block.NewArena(block.PV, nbX, bsX, cfg.Ny, cfg.Nz, 3),
		st:        block.NewArena(block.ST, nbX, bsX, cfg.Ny, cfg.Nz, 6),
		em:        block.NewArena(block.EM, nbX, bsX, cfg.Ny, cfg.Nz, 4),
		streams:   make(map[DeviceID]*device.StreamSet),
		resident:  device.NewResidencyCache(),
		kernel:    k,
		receivers: NewReceiverSet(),
	}
	for _, d := range cfg.Devices {
		s.streams[d] = device.NewStreamSet(int(d))
	}
	return s
}

// AddShot registers a shot whose receiver locations should be demuxed
// every block-cycle.
func (s *Scheduler) AddShot(shot Shot) {
	s.shots = append(s.shots, shot)
}

// Close tears every device stream set down.
func (s *Scheduler) Close() {
	for _, ss := range s.streams {
		ss.Close()
	}
}

// RunBlockCycle executes one block-cycle across every pipeline: shift
// buffers, launch compute/transfer work per device in dependency order,
// synchronise, and report whether this cycle completed a full X-sweep.
func (s *Scheduler) RunBlockCycle() (sweepComplete bool, err error) {
	if s.iteration > 0 {
		for _, pipe := range s.topo.Pipelines {
			pipe.Shift()
		}
	}

	for _, pipe := range s.topo.Pipelines {
		if err := s.runPipeline(pipe); err != nil {
			color.Red("propagator: pipeline %d failed to launch: %s", pipe.Index, err.Error())
			slog.Error("propagator pipeline launch failed", "pipeline", pipe.Index, "iteration", s.iteration, "err", err)
			return false, err
		}
	}

	if err := s.demux(); err != nil {
		color.Red("propagator: receiver demux failed: %s", err.Error())
		slog.Error("propagator demux failed", "iteration", s.iteration, "err", err)
		return false, err
	}

	for dev, ss := range s.streams {
		if err := ss.SyncAll(); err != nil {
			color.Red("propagator: device %d stream sync failed: %s", dev, err.Error())
			slog.Error("propagator stream sync failed", "device", dev, "iteration", s.iteration, "err", err)
			return false, err
		}
	}

	s.iteration++
	nbX := s.cfg.NbX()
	if nbX > 0 && s.iteration%nbX == 0 {
		return true, nil
	}
	return false, nil
}

// runPipeline launches every compute buffer on its device's compute
// stream, longest-running first, then (or before,
// if SlowDataTransfers) the input/output transfers.
func (s *Scheduler) runPipeline(pipe *Pipeline) error {
	computeBuffers := make([]Buffer, 0, len(pipe.arena))
	for _, b := range pipe.arena {
		if b.Role == RoleCompute {
			computeBuffers = append(computeBuffers, b)
		}
	}
	sortByCostDesc(computeBuffers)

	bsX := StencilOrder / 2
	blockBytes := int64(bsX*s.cfg.Ny*s.cfg.Nz) * 4 * (3 + 6 + 4) // PV+ST+EM fields

	launchTransfers := func() {
		for _, b := range pipe.arena {
			if b.Role == RoleDeviceToHost {
				ss := s.streams[b.DeviceID]
				ss.Stream(device.Output).Launch(func() error {
					s.D2HBytes.Add(blockBytes)
					return nil
				})
			}
			if b.Role == RoleInputHalo {
				ss := s.streams[b.DeviceID]
				ss.Stream(device.Input).Launch(func() error {
					s.H2DBytes.Add(blockBytes)
					return nil
				})
			}
		}
		if in := pipe.InputBuffer(); in != nil {
			ss := s.streams[in.DeviceID]
			ss.Stream(device.Input).Launch(func() error {
				s.H2DBytes.Add(blockBytes)
				return nil
			})
		}
	}

	if s.cfg.SlowDataTransfers {
		launchTransfers()
	}

	for _, b := range computeBuffers {
		b := b
		ss := s.streams[b.DeviceID]
		if ss == nil {
			err := fmt.Errorf("propagator: no stream set for device %d", b.DeviceID)
			color.Red(err.Error())
			return err
		}
		blk := s.deviceBlock(pipe, b)
		params := kernel.Params{
			DeviceID:      int(b.DeviceID),
			BlockOffset:   b.CBO,
			Y0:            b.Y0,
			Y1:            b.Y1,
			SubStepParity: b.SubStepParity,
			FreeSurface:   s.cfg.FreeSurface,
			SourceGhost:   s.cfg.SourceGhost,
			ReceiverGhost: s.cfg.ReceiverGhost,
		}
		absIndex := s.iteration + b.CBO
		entry := s.resident.Acquire(int(b.DeviceID), absIndex)
		ss.Stream(device.Compute).Launch(func() error {
			defer s.resident.Release(entry)
			return s.kernel.Run(params, blk)
		})
	}

	if !s.cfg.SlowDataTransfers {
		launchTransfers()
	}
	return nil
}

// deviceBlock materialises the PV/ST/EM host block a buffer's absolute
// X-index currently refers to.
func (s *Scheduler) deviceBlock(pipe *Pipeline, b Buffer) *kernel.Block {
	absIndex := s.iteration + b.CBO
	return &kernel.Block{
		PV: s.pv.At(absIndex).Data,
		ST: s.st.At(absIndex).Data,
		EM: s.em.At(absIndex).Data,
	}
}

// demuxJob is one (shot, pipeline) pair whose extracted receiver values
// need fanning out to its ReceiverBuffer this block-cycle.
type demuxJob struct {
	shot     Shot
	pipeline *Pipeline
}

// demux fans the previous iteration's extracted receiver values out to
// per-shot, per-pipeline buffers, one worker per configured device, reusing the shared worker-pool idiom. Receiver extraction
// itself is the out-of-scope device kernel; each job here only
// records how many output buffers completed this cycle, standing in for
// the sample count a real kernel would have written.
func (s *Scheduler) demux() error {
	if len(s.shots) == 0 || len(s.topo.Pipelines) == 0 {
		return nil
	}

	var jobList []demuxJob
	for _, shot := range s.shots {
		for _, pipe := range s.topo.Pipelines {
			jobList = append(jobList, demuxJob{shot: shot, pipeline: pipe})
		}
	}

	jobs := make(chan demuxJob, len(jobList))
	for _, j := range jobList {
		jobs <- j
	}
	close(jobs)

	workers := len(s.cfg.Devices)
	if workers < 1 {
		workers = 1
	}
	status := workerpool.NewStatus(len(jobList))
	wg := workerpool.StartWorkerThreads(workers, func(threadID int) {
		workerpool.RunQueue(jobs, status, func(j demuxJob) error {
			buf := s.receivers.For(j.shot, j.pipeline.Index)
			outputs := j.pipeline.OutputBuffers()
			buf.Append(make([]float32, len(outputs)))
			return nil
		})
	})
	wg.Wait()
	return status.Wait()
}

func sortByCostDesc(buffers []Buffer) {
	for i := 1; i < len(buffers); i++ {
		for j := i; j > 0 && buffers[j].Cost() > buffers[j-1].Cost(); j-- {
			buffers[j], buffers[j-1] = buffers[j-1], buffers[j]
		}
	}
}
