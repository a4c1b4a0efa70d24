// cvxdemo exercises the CvxCompress pipeline end to end: it generates a
// synthetic volume, compresses it, decompresses it, and reports the
// round-trip error and compression ratio.
package main

import (
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/cvxgo/seismic/codec"
	"github.com/cvxgo/seismic/diagnostics"
)

func synthesize(nx, ny, nz int) *codec.Volume {
	vol := codec.NewVolume(nx, ny, nz)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				v := float32(math.Sin(float64(x)*0.2) * math.Cos(float64(y)*0.1) * math.Sin(float64(z)*0.05+1))
				vol.Set(x, y, z, v)
			}
		}
	}
	return vol
}

func main() {
	nx, ny, nz := 128, 128, 64
	cfg := codec.JobConfig{Scale: 1e-3, Dims: codec.BlockDims{BX: 32, BY: 32, BZ: 32}}

	vol := synthesize(nx, ny, nz)

	before := time.Now()
	buf, err := codec.Compress(vol, cfg, nil)
	if err != nil {
		color.Red("compress failed: %s", err.Error())
		slog.Error("cvxdemo compress failed", "err", err)
		os.Exit(1)
	}
	compressDur := time.Since(before)

	before = time.Now()
	out, err := codec.Decompress(buf, cfg)
	if err != nil {
		color.Red("decompress failed: %s", err.Error())
		slog.Error("cvxdemo decompress failed", "err", err)
		os.Exit(1)
	}
	decompressDur := time.Since(before)

	var sumSq, maxAbs float64
	for i := range vol.Data {
		d := float64(vol.Data[i] - out.Data[i])
		sumSq += d * d
		if a := math.Abs(d); a > maxAbs {
			maxAbs = a
		}
	}
	rmse := math.Sqrt(sumSq / float64(len(vol.Data)))

	rawBytes := len(vol.Data) * 4
	ratio := float64(rawBytes) / float64(len(buf))

	slog.Info("cvxdemo run complete",
		"nx", nx, "ny", ny, "nz", nz,
		"raw_bytes", rawBytes, "compressed_bytes", len(buf), "ratio", ratio,
		"rmse", rmse, "max_abs_err", maxAbs,
		"compress_ms", compressDur.Milliseconds(), "decompress_ms", decompressDur.Milliseconds(),
	)
	color.Green("compressed %d -> %d bytes (%.2fx), rmse=%.6g", rawBytes, len(buf), ratio, rmse)

	grid := codec.NewGrid(vol, cfg.Dims)
	lengths := make([]int, grid.NumBlocks())
	for i := range lengths {
		lengths[i] = len(buf) / max(1, grid.NumBlocks())
	}
	ledger := diagnostics.Ledger{
		Histogram: diagnostics.NewBlockSizeHistogram(lengths, make([]bool, len(lengths))),
	}
	ledger.WatchStruct("codec.Volume", codec.Volume{})
	if snap, err := diagnostics.Snapshot(ledger); err != nil {
		color.Red("diagnostics snapshot failed: %s", err.Error())
	} else {
		slog.Info("diagnostics snapshot ready", "bytes", len(snap))
	}
}
