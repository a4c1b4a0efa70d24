package wavelet

import (
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func sizes() [][3]int {
	return [][3]int{
		{8, 8, 8},
		{16, 8, 8},
		{8, 16, 32},
		{32, 32, 32},
		{16, 16, 8},
	}
}

func makeVolume(bx, by, bz int, seed int) []float32 {
	n := bx * by * bz
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(float64(i*seed+seed)) * 1000)
	}
	return out
}

// TestForwardFastMatchesReference checks the bit-equivalence property:
// Fast_Forward(x) == Slow_Forward(x) for every cell.
func TestForwardFastMatchesReference(t *testing.T) {
	for _, s := range sizes() {
		bx, by, bz := s[0], s[1], s[2]
		data := makeVolume(bx, by, bz, 7)

		scratchRef := make([]float32, ScratchSize(maxInt(bx, maxInt(by, bz))))
		scratchFast := make([]float32, ScratchSize(maxInt(bx, maxInt(by, bz))))

		ref := append([]float32(nil), data...)
		fast := append([]float32(nil), data...)

		Forward(ref, bx, by, bz, scratchRef)
		ForwardFast(fast, bx, by, bz, scratchFast)

		for i := range ref {
			if ref[i] != fast[i] {
				t.Fatalf("block %v: forward mismatch at %d: ref=%v fast=%v\n%s", s, i, ref[i], fast[i], spew.Sdump(ref[:min(len(ref), 16)]))
			}
		}
	}
}

// TestInverseFastMatchesReference mirrors the forward check for Inverse.
func TestInverseFastMatchesReference(t *testing.T) {
	for _, s := range sizes() {
		bx, by, bz := s[0], s[1], s[2]
		data := makeVolume(bx, by, bz, 11)

		scratch := make([]float32, ScratchSize(maxInt(bx, maxInt(by, bz))))
		Forward(data, bx, by, bz, scratch)

		ref := append([]float32(nil), data...)
		fast := append([]float32(nil), data...)

		Inverse(ref, bx, by, bz, scratch)
		InverseFast(fast, bx, by, bz, scratch)

		for i := range ref {
			if ref[i] != fast[i] {
				t.Fatalf("block %v: inverse mismatch at %d: ref=%v fast=%v", s, i, ref[i], fast[i])
			}
		}
	}
}

// TestRoundTrip checks Forward then Inverse recovers the original signal to
// within floating point rounding (the lifting scheme is exactly invertible
// in infinite precision; float32 rounding bounds the residual to a few ULP).
func TestRoundTrip(t *testing.T) {
	for _, s := range sizes() {
		bx, by, bz := s[0], s[1], s[2]
		orig := makeVolume(bx, by, bz, 3)
		data := append([]float32(nil), orig...)
		scratch := make([]float32, ScratchSize(maxInt(bx, maxInt(by, bz))))

		Forward(data, bx, by, bz, scratch)
		Inverse(data, bx, by, bz, scratch)

		for i := range orig {
			diff := math.Abs(float64(orig[i] - data[i]))
			if diff > 1e-2 {
				t.Fatalf("block %v: round trip residual too large at %d: orig=%v got=%v diff=%v", s, i, orig[i], data[i], diff)
			}
		}
	}
}

// TestRoundTripFast checks the same property for the unrolled path.
func TestRoundTripFast(t *testing.T) {
	for _, s := range sizes() {
		bx, by, bz := s[0], s[1], s[2]
		orig := makeVolume(bx, by, bz, 5)
		data := append([]float32(nil), orig...)
		scratch := make([]float32, ScratchSize(maxInt(bx, maxInt(by, bz))))

		ForwardFast(data, bx, by, bz, scratch)
		InverseFast(data, bx, by, bz, scratch)

		for i := range orig {
			diff := math.Abs(float64(orig[i] - data[i]))
			if diff > 1e-2 {
				t.Fatalf("block %v: fast round trip residual too large at %d: orig=%v got=%v diff=%v", s, i, orig[i], data[i], diff)
			}
		}
	}
}

func TestConstantVolumeStaysConstant(t *testing.T) {
	bx, by, bz := 16, 16, 16
	data := make([]float32, bx*by*bz)
	for i := range data {
		data[i] = 42
	}
	scratch := make([]float32, ScratchSize(16))

	Forward(data, bx, by, bz, scratch)
	Inverse(data, bx, by, bz, scratch)

	for i, v := range data {
		if math.Abs(float64(v-42)) > 1e-2 {
			t.Fatalf("constant volume not preserved at %d: got %v", i, v)
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
