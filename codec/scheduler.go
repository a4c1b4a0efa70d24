package codec

import (
	"log/slog"
	"runtime"

	"github.com/fatih/color"

	"github.com/cvxgo/seismic/codec/wavelet"
	"github.com/cvxgo/seismic/workerpool"
)

// stagingTarget is the per-thread staging byte count at which a worker
// resets its staged counter. Nothing is flushed at that point: records stay
// in the records slice and the arena is assembled only after all workers
// have joined.
const stagingTarget = 256 * 1024

// JobConfig configures one compress/decompress run.
type JobConfig struct {
	Scale   float32
	Dims    BlockDims
	Workers int // 0 => runtime.GOMAXPROCS(0)
}

func (c JobConfig) workerCount(nblocks int) int {
	w := c.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > nblocks {
		w = nblocks
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Compress runs the full compression pipeline: validates block
// dimensions, computes the global RMS, transforms and encodes every block
// in parallel, and serialises the result into the compressed buffer
// layout. Each worker thread owns a private scratch/quantize/RLE staging
// area; since every worker writes to a disjoint index of the pre-sized
// records slice, no lock is needed during the parallel phase. Assembling
// the final byte arena is deferred entirely to WriteCompressedBuffer,
// which runs once after every worker has joined.
func Compress(vol *Volume, cfg JobConfig, dst []byte) ([]byte, error) {
	if !cfg.Dims.valid() {
		return nil, ErrInvalidBlockDims
	}
	if err := vol.validate(); err != nil {
		return nil, err
	}

	grid := NewGrid(vol, cfg.Dims)
	nblocks := grid.NumBlocks()
	cells := cfg.Dims.Cells()

	rms := ComputeGlobalRMS(vol)
	var mulfac float32
	if rms > 0 && cfg.Scale > 0 {
		mulfac = 1 / (cfg.Scale * rms)
	}

	records := make([]BlockRecord, nblocks)
	scratchLen := wavelet.ScratchSize(maxInt3(cfg.Dims.BX, cfg.Dims.BY, cfg.Dims.BZ))

	jobs := make(chan int, nblocks)
	for i := 0; i < nblocks; i++ {
		jobs <- i
	}
	close(jobs)

	status := workerpool.NewStatus(nblocks)
	wg := workerpool.StartWorkerThreads(cfg.workerCount(nblocks), func(threadID int) {
		scratch := make([]float32, scratchLen)
		blockBuf := make([]float32, cells)
		qbuf := make([]int16, cells)
		rlebuf := make([]byte, RawBudget(cells))
		staged := 0 // bytes accumulated in this thread's staging area

		workerpool.RunQueue(jobs, status, func(idx int) error {
			bix, biy, biz := grid.Coords(idx)
			CopyBlockFromVolume(vol, cfg.Dims, bix, biy, biz, blockBuf)

			rec := EncodeBlock(blockBuf, mulfac, func(b []float32) {
				wavelet.ForwardFast(b, cfg.Dims.BX, cfg.Dims.BY, cfg.Dims.BZ, scratch)
			}, qbuf, rlebuf)

			records[idx] = rec
			staged += rec.ByteLen()
			if staged >= stagingTarget {
				staged = 0
			}
			return nil
		})
	})
	wg.Wait()
	if err := status.Wait(); err != nil {
		color.Red("compress: block worker failed: %s", err.Error())
		slog.Error("codec compress failed", "blocks", nblocks, "err", err)
		return nil, err
	}

	hdr := Header{Nx: vol.Nx, Ny: vol.Ny, Nz: vol.Nz, Dims: cfg.Dims, Mulfac: mulfac}
	return WriteCompressedBuffer(hdr, grid, records, dst), nil
}

// Decompress is the mirror of Compress: it parses the header, then reconstructs every block in
// parallel into a freshly allocated volume.
func Decompress(buf []byte, cfg JobConfig) (*Volume, error) {
	hdr, grid, err := ReadCompressedHeader(buf)
	if err != nil {
		color.Red("decompress: corrupt buffer header: %s", err.Error())
		slog.Error("codec decompress failed to read header", "bytes", len(buf), "err", err)
		return nil, err
	}

	vol := NewVolume(hdr.Nx, hdr.Ny, hdr.Nz)
	nblocks := grid.NumBlocks()
	cells := hdr.Dims.Cells()
	scratchLen := wavelet.ScratchSize(maxInt3(hdr.Dims.BX, hdr.Dims.BY, hdr.Dims.BZ))

	jobs := make(chan int, nblocks)
	for i := 0; i < nblocks; i++ {
		jobs <- i
	}
	close(jobs)

	status := workerpool.NewStatus(nblocks)
	wg := workerpool.StartWorkerThreads(cfg.workerCount(nblocks), func(threadID int) {
		scratch := make([]float32, scratchLen)
		blockBuf := make([]float32, cells)
		qbuf := make([]int16, cells)

		workerpool.RunQueue(jobs, status, func(idx int) error {
			rec, err := ReadBlockRecord(buf, grid, idx, cells, hdr.Mulfac)
			if err != nil {
				return err
			}
			if err := DecodeBlock(rec, blockBuf, qbuf); err != nil {
				return err
			}

			wavelet.InverseFast(blockBuf, hdr.Dims.BX, hdr.Dims.BY, hdr.Dims.BZ, scratch)

			bix, biy, biz := grid.Coords(idx)
			CopyBlockToVolume(vol, hdr.Dims, bix, biy, biz, blockBuf)
			return nil
		})
	})
	wg.Wait()
	if err := status.Wait(); err != nil {
		color.Red("decompress: block worker failed: %s", err.Error())
		slog.Error("codec decompress failed", "blocks", nblocks, "err", err)
		return nil, err
	}

	return vol, nil
}

func maxInt3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
