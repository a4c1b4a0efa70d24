// Package wavelet implements the fixed separable CDF-style lifting wavelet
// used by CvxCompress. Two implementations share the same lift
// arithmetic — wavelet.Forward/Inverse (scalar, the reference) and
// wavelet.ForwardFast/InverseFast (manually unrolled along the fastest
// axis) — so that they are bit-identical by construction rather than by
// coincidence: unrolling only restructures control flow, it never reorders
// the floating-point operations themselves.
package wavelet

// Lift coefficients for the fixed CDF 5/3-style biorthogonal wavelet.
const (
	predictCoeff = 0.5
	updateCoeff  = 0.25
)

// clampIdx clamps an index into [0, n-1], the boundary-extension rule used
// by every lift step.
func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// liftPredict applies target[i] -= predictCoeff*(neighbor[i]+neighbor[i+1])
// with boundary clamping (phase=0 offsets {0,1}).
func liftPredict(target, neighbor []float32) {
	n := len(neighbor)
	for i := range target {
		n1 := clampIdx(i, n)
		n2 := clampIdx(i+1, n)
		target[i] -= predictCoeff * (neighbor[n1] + neighbor[n2])
	}
}

// liftPredictInverse is the exact inverse of liftPredict.
func liftPredictInverse(target, neighbor []float32) {
	n := len(neighbor)
	for i := range target {
		n1 := clampIdx(i, n)
		n2 := clampIdx(i+1, n)
		target[i] += predictCoeff * (neighbor[n1] + neighbor[n2])
	}
}

// liftUpdate applies target[i] += updateCoeff*(neighbor[i-1]+neighbor[i])
// with boundary clamping (phase=1 offsets {-1,0}).
func liftUpdate(target, neighbor []float32) {
	n := len(neighbor)
	for i := range target {
		n1 := clampIdx(i-1, n)
		n2 := clampIdx(i, n)
		target[i] += updateCoeff * (neighbor[n1] + neighbor[n2])
	}
}

// liftUpdateInverse is the exact inverse of liftUpdate.
func liftUpdateInverse(target, neighbor []float32) {
	n := len(neighbor)
	for i := range target {
		n1 := clampIdx(i-1, n)
		n2 := clampIdx(i, n)
		target[i] -= updateCoeff * (neighbor[n1] + neighbor[n2])
	}
}

// deinterleave splits src (len n, n even) into even[i]=src[2i] and
// odd[i]=src[2i+1].
func deinterleave(src, even, odd []float32) {
	half := len(src) / 2
	for i := 0; i < half; i++ {
		even[i] = src[2*i]
		odd[i] = src[2*i+1]
	}
}

// interleave is the inverse of deinterleave.
func interleave(dst, even, odd []float32) {
	half := len(dst) / 2
	for i := 0; i < half; i++ {
		dst[2*i] = even[i]
		dst[2*i+1] = odd[i]
	}
}
