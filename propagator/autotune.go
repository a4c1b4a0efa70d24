package propagator

import (
	"fmt"
	"sort"

	"golang.org/x/sync/singleflight"
)

// Candidate is one immutable auto-tuner configuration.
type Candidate struct {
	NumPipes       int
	StepsPerDevice int
}

func (c Candidate) key() string {
	return fmt.Sprintf("%d/%d", c.NumPipes, c.StepsPerDevice)
}

// Measurement is one candidate's measured throughput.
type Measurement struct {
	Candidate   Candidate
	MCellsPerS  float64
	ZTile       int
}

// AutoTuner sweeps (num_pipes, steps_per_device) pairs and selects the
// highest measured throughput. Measurements go through singleflight, which
// merges concurrent calls for the same candidate and Z-tile; results are
// not cached, and the sweep visits each (candidate, Z-tile) pair once.
type AutoTuner struct {
	cfg   JobConfig
	group singleflight.Group

	// Measure runs ~10 block-cycles of a candidate's topology at a given
	// Z-tile count and returns measured MCells/s. Tests inject a fast
	// deterministic stub; production wires this to the real scheduler.
	Measure func(topo *Topology, zTile int) (float64, error)
}

// NewAutoTuner prepares a sweep for cfg; Measure must be set before Run.
func NewAutoTuner(cfg JobConfig) *AutoTuner {
	return &AutoTuner{cfg: cfg}
}

// candidates enumerates the sweep space: num_pipes in
// {1,2,4,8} capped by device count; steps_per_device in 3..6; a candidate
// is skipped if no device-count split survives the NbX-2 memory check.
func (t *AutoTuner) candidates() []Candidate {
	numDevices := len(t.cfg.Devices)
	var out []Candidate
	for _, np := range []int{1, 2, 4, 8} {
		if np > numDevices {
			continue
		}
		for spd := 3; spd <= 6; spd++ {
			if t.devicesPerPipe(np, spd) < 1 {
				continue
			}
			out = append(out, Candidate{NumPipes: np, StepsPerDevice: spd})
		}
	}
	return out
}

// devicesPerPipe derives the largest device count per pipe for which the
// per-device block budget fits within NbX-2.
func (t *AutoTuner) devicesPerPipe(numPipes, stepsPerDevice int) int {
	numDevices := len(t.cfg.Devices)
	if numPipes == 0 {
		return 0
	}
	maxPerPipe := numDevices / numPipes
	budget := t.cfg.NbX() - 2
	if budget < 1 {
		return 0
	}
	for gpp := maxPerPipe; gpp >= 1; gpp-- {
		blocksPerDevice := (t.cfg.NbX() + gpp - 1) / gpp
		if blocksPerDevice <= budget {
			return gpp
		}
	}
	return 0
}

// measureOnce measures one candidate at one Z-tile count via singleflight,
// so concurrent callers with the same key share one in-flight measurement;
// the result is not kept once the call returns.
func (t *AutoTuner) measureOnce(c Candidate, topo *Topology, zTile int) (float64, error) {
	key := fmt.Sprintf("%s@%d", c.key(), zTile)
	v, err, _ := t.group.Do(key, func() (interface{}, error) {
		return t.Measure(topo, zTile)
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// Run sweeps every candidate, builds its topology, and for each
// Z-tile candidate measures throughput, keeping the best.
func (t *AutoTuner) Run(zTileCandidates []int) (Measurement, error) {
	var best Measurement
	haveBest := false

	for _, c := range t.candidates() {
		jobCfg := t.cfg
		jobCfg.NumPipes = c.NumPipes
		jobCfg.StepsPerDevice = c.StepsPerDevice

		topo, err := BuildTopology(jobCfg)
		if err != nil && err != ErrLoadBalanceFailed {
			continue // allocation/topology failure: "skip"
		}

		m, err := t.bestZTile(c, topo, zTileCandidates)
		if err != nil {
			continue
		}
		if !haveBest || m.MCellsPerS > best.MCellsPerS {
			best = m
			haveBest = true
		}
	}

	if !haveBest {
		return Measurement{}, fmt.Errorf("propagator: no viable auto-tuner candidate")
	}
	return best, nil
}

// bestZTile measures every Z-tile candidate once via measureOnce, then
// sorts the pool by observed throughput and discards the slower half,
// repeating until one candidate remains. This happens during the sweep;
// the chosen Z-tile is not refined afterwards.
func (t *AutoTuner) bestZTile(c Candidate, topo *Topology, zTiles []int) (Measurement, error) {
	type scored struct {
		zTile      int
		mcellsPerS float64
	}
	pool := make([]scored, 0, len(zTiles))
	for _, z := range zTiles {
		mc, err := t.measureOnce(c, topo, z)
		if err != nil {
			continue
		}
		pool = append(pool, scored{zTile: z, mcellsPerS: mc})
	}
	if len(pool) == 0 {
		return Measurement{}, fmt.Errorf("propagator: no viable z-tile for candidate %s", c.key())
	}

	for len(pool) > 1 {
		sort.Slice(pool, func(i, j int) bool { return pool[i].mcellsPerS > pool[j].mcellsPerS })
		keep := (len(pool) + 1) / 2
		pool = pool[:keep]
	}

	return Measurement{Candidate: c, MCellsPerS: pool[0].mcellsPerS, ZTile: pool[0].zTile}, nil
}

// StubMeasure is a deterministic throughput stand-in for tests and for
// any caller without real devices: it scores a candidate by the inverse
// of its worst pipeline's cost (lower cost per device, higher throughput),
// scaled by the Z-tile count up to a point of diminishing returns,
// matching the qualitative shape of the real profiling loop without
// requiring a GPU.
func StubMeasure(topo *Topology, zTile int) (float64, error) {
	if len(topo.Pipelines) == 0 {
		return 0, fmt.Errorf("propagator: empty topology")
	}
	worst := topo.Pipelines[0].TotalCost()
	for _, p := range topo.Pipelines[1:] {
		if c := p.TotalCost(); c > worst {
			worst = c
		}
	}
	if worst <= 0 {
		worst = 1
	}
	tileFactor := float64(zTile)
	if tileFactor > 8 {
		tileFactor = 8 - (tileFactor-8)*0.1
	}
	return tileFactor * 1000 / worst, nil
}
