package propagator

import (
	"testing"

	"github.com/cvxgo/seismic/propagator/kernel"
)

func testConfig(numPipes, stepsPerDevice int, devices []DeviceID) JobConfig {
	return JobConfig{
		Nx: 64, Ny: 256, Nz: 128,
		NumPipes:       numPipes,
		StepsPerDevice: stepsPerDevice,
		Devices:        devices,
	}
}

func TestBuildTopologyProducesOnePipelinePerSlab(t *testing.T) {
	cfg := testConfig(2, 3, []DeviceID{0, 1})
	topo, err := BuildTopology(cfg)
	if err != nil && err != ErrLoadBalanceFailed {
		t.Fatalf("build topology: %v", err)
	}
	if len(topo.Pipelines) != 2 {
		t.Fatalf("want 2 pipelines, got %d", len(topo.Pipelines))
	}

	total := 0
	for _, p := range topo.Pipelines {
		if p.Y1 < p.Y0 {
			t.Fatalf("pipe %d has empty slab [%d,%d]", p.Index, p.Y0, p.Y1)
		}
		total += p.Y1 - p.Y0 + 1
		if len(p.arena) == 0 {
			t.Fatalf("pipe %d has no buffers", p.Index)
		}
	}
	if total != cfg.Ny {
		t.Fatalf("slab widths sum to %d, want %d", total, cfg.Ny)
	}
}

func TestBuildTopologyMarksOutputStages(t *testing.T) {
	cfg := testConfig(1, 3, []DeviceID{0})
	topo, err := BuildTopology(cfg)
	if err != nil && err != ErrLoadBalanceFailed {
		t.Fatalf("build topology: %v", err)
	}
	pipe := topo.Pipelines[0]
	n := len(pipe.arena)
	for i := n - 3; i < n; i++ {
		if pipe.arena[i].Role != RoleDeviceToHost {
			t.Fatalf("buffer %d: want RoleDeviceToHost, got %v", i, pipe.arena[i].Role)
		}
	}
}

// TestSchedulerDeterminism runs the same two-pipe configuration twice with
// the stubbed offset kernel and checks the resulting PV arena is bit-for-bit
// identical both times.
func TestSchedulerDeterminism(t *testing.T) {
	run := func() []float32 {
		cfg := testConfig(2, 3, []DeviceID{0, 1})
		topo, err := BuildTopology(cfg)
		if err != nil && err != ErrLoadBalanceFailed {
			t.Fatalf("build topology: %v", err)
		}
		sched := NewScheduler(cfg, topo, kernel.AddOffsetStub)
		defer sched.Close()

		nbX := cfg.NbX()
		for i := 0; i < nbX; i++ {
			if _, err := sched.RunBlockCycle(); err != nil {
				t.Fatalf("block cycle %d: %v", i, err)
			}
		}

		snapshot := make([]float32, 0, nbX*len(sched.pv.Blocks[0].Data))
		for _, blk := range sched.pv.Blocks {
			snapshot = append(snapshot, blk.Data...)
		}
		return snapshot
	}

	a := run()
	b := run()
	if len(a) != len(b) {
		t.Fatalf("snapshot length differs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("cell %d diverged between runs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestSchedulerTwoPipeTransferCounters(t *testing.T) {
	cfg := testConfig(2, 3, []DeviceID{0, 1})
	topo, err := BuildTopology(cfg)
	if err != nil && err != ErrLoadBalanceFailed {
		t.Fatalf("build topology: %v", err)
	}
	sched := NewScheduler(cfg, topo, kernel.AddOffsetStub)
	defer sched.Close()

	nbX := cfg.NbX()
	sweptOnce := false
	for i := 0; i < nbX; i++ {
		complete, err := sched.RunBlockCycle()
		if err != nil {
			t.Fatalf("block cycle %d: %v", i, err)
		}
		if complete {
			sweptOnce = true
		}
	}
	if !sweptOnce {
		t.Fatalf("expected one full X-sweep within %d block-cycles", nbX)
	}
	if sched.H2DBytes.Load() == 0 {
		t.Fatalf("expected nonzero H2D byte counter after a sweep")
	}
	if sched.D2HBytes.Load() == 0 {
		t.Fatalf("expected nonzero D2H byte counter after a sweep")
	}
}

func TestPipelineOverheadAndMinimumWorkload(t *testing.T) {
	cfg := testConfig(1, 3, []DeviceID{0, 1})
	topo, err := BuildTopology(cfg)
	if err != nil && err != ErrLoadBalanceFailed {
		t.Fatalf("build topology: %v", err)
	}
	pipe := topo.Pipelines[0]

	for _, d := range pipe.Devices {
		if o := pipe.Overhead(d); o < 0 {
			t.Fatalf("device %d: overhead must not be negative, got %v", d, o)
		}
	}

	min := pipe.MinimumWorkload()
	if min < 0 {
		t.Fatalf("minimum workload must not be negative, got %v", min)
	}
	if min > pipe.TotalCost() {
		t.Fatalf("minimum workload %v exceeds total pipe cost %v", min, pipe.TotalCost())
	}
}

func TestCostMatchesWidthTimesRelCost(t *testing.T) {
	got := Cost(10, 0, RelCost)
	want := 10 * RelCost[0]
	if got != want {
		t.Fatalf("Cost(10,0,...) = %v, want %v", got, want)
	}
}

func TestSchedulerDemuxesReceiverBuffers(t *testing.T) {
	cfg := testConfig(2, 3, []DeviceID{0, 1})
	topo, err := BuildTopology(cfg)
	if err != nil && err != ErrLoadBalanceFailed {
		t.Fatalf("build topology: %v", err)
	}
	sched := NewScheduler(cfg, topo, kernel.AddOffsetStub)
	defer sched.Close()

	shot := NewShot(0, 10, 5, 1000, nil)
	sched.AddShot(shot)

	if _, err := sched.RunBlockCycle(); err != nil {
		t.Fatalf("block cycle: %v", err)
	}

	for _, pipe := range topo.Pipelines {
		buf := sched.receivers.For(shot, pipe.Index)
		if buf.ShotID != shot.ID {
			t.Fatalf("receiver buffer shot id mismatch: %v vs %v", buf.ShotID, shot.ID)
		}
		want := len(pipe.OutputBuffers())
		if got := buf.Drain(); want == 0 || len(got) != want {
			t.Fatalf("pipe %d: demux appended %d samples, want %d (one per output buffer)", pipe.Index, len(got), want)
		}
	}
}

func TestAutoTunerPicksHighestThroughput(t *testing.T) {
	cfg := JobConfig{
		Nx: 64, Ny: 256, Nz: 128,
		Devices: []DeviceID{0, 1, 2, 3},
	}
	tuner := NewAutoTuner(cfg)
	tuner.Measure = StubMeasure

	zTiles := []int{4, 8, 16, 32}
	best, err := tuner.Run(zTiles)
	if err != nil {
		t.Fatalf("autotune run: %v", err)
	}
	for _, c := range tuner.candidates() {
		jobCfg := cfg
		jobCfg.NumPipes = c.NumPipes
		jobCfg.StepsPerDevice = c.StepsPerDevice
		topo, err := BuildTopology(jobCfg)
		if err != nil && err != ErrLoadBalanceFailed {
			continue
		}
		for _, z := range zTiles {
			if mc, err := StubMeasure(topo, z); err == nil && mc > best.MCellsPerS {
				t.Fatalf("candidate %+v at z-tile %d measures %v, above the chosen %v", c, z, mc, best.MCellsPerS)
			}
		}
	}
	if best.MCellsPerS <= 0 {
		t.Fatalf("expected positive measured throughput, got %v", best.MCellsPerS)
	}
	if best.Candidate.NumPipes < 1 || best.Candidate.StepsPerDevice < 3 {
		t.Fatalf("unexpected winning candidate: %+v", best.Candidate)
	}
}
