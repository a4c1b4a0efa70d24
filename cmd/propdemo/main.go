// propdemo builds a small propagator topology, auto-tunes it with the
// stubbed throughput measurement, and runs one full X-sweep through the
// resulting scheduler, reporting transfer byte counters along the way.
package main

import (
	"log/slog"
	"os"

	"github.com/fatih/color"

	"github.com/cvxgo/seismic/diagnostics"
	"github.com/cvxgo/seismic/propagator"
	"github.com/cvxgo/seismic/propagator/kernel"
)

func main() {
	baseCfg := propagator.JobConfig{
		Nx: 64, Ny: 256, Nz: 128,
		Devices: []propagator.DeviceID{0, 1, 2, 3},
	}

	tuner := propagator.NewAutoTuner(baseCfg)
	tuner.Measure = propagator.StubMeasure

	zTiles := []int{4, 8, 16, 32}
	best, err := tuner.Run(zTiles)
	if err != nil {
		color.Red("autotune failed: %s", err.Error())
		slog.Error("propdemo autotune failed", "err", err)
		os.Exit(1)
	}
	slog.Info("autotune selected candidate",
		"num_pipes", best.Candidate.NumPipes, "steps_per_device", best.Candidate.StepsPerDevice,
		"z_tile", best.ZTile, "mcells_per_sec", best.MCellsPerS)

	cfg := baseCfg
	cfg.NumPipes = best.Candidate.NumPipes
	cfg.StepsPerDevice = best.Candidate.StepsPerDevice

	topo, err := propagator.BuildTopology(cfg)
	if err != nil && err != propagator.ErrLoadBalanceFailed {
		color.Red("build topology failed: %s", err.Error())
		slog.Error("propdemo build topology failed", "err", err)
		os.Exit(1)
	}
	if err == propagator.ErrLoadBalanceFailed {
		slog.Warn("topology fell back to equal split", "ny", cfg.Ny, "num_pipes", cfg.NumPipes)
	}

	sched := propagator.NewScheduler(cfg, topo, kernel.AddOffsetStub)
	defer sched.Close()

	nbX := cfg.NbX()
	for i := 0; i < nbX; i++ {
		complete, err := sched.RunBlockCycle()
		if err != nil {
			color.Red("block cycle %d failed: %s", i, err.Error())
			slog.Error("propdemo block cycle failed", "cycle", i, "err", err)
			os.Exit(1)
		}
		if complete {
			slog.Info("full X-sweep complete", "cycle", i)
		}
	}

	color.Green("ran %d block-cycles, h2d_bytes=%d d2h_bytes=%d",
		nbX, sched.H2DBytes.Load(), sched.D2HBytes.Load())

	ledger := diagnostics.Ledger{
		Sweep: []diagnostics.SweepEntry{
			{NumPipes: best.Candidate.NumPipes, StepsPerDevice: best.Candidate.StepsPerDevice,
				ZTile: best.ZTile, MCellsPerS: best.MCellsPerS},
		},
	}
	if snap, err := diagnostics.Snapshot(ledger); err != nil {
		color.Red("diagnostics snapshot failed: %s", err.Error())
	} else {
		slog.Info("diagnostics snapshot ready", "bytes", len(snap))
	}
}
