package wavelet

// ForwardFast is the SIMD-oriented forward transform: identical arithmetic
// to Forward, but the X-axis pass (the fastest, contiguous axis) is
// manually unrolled eight-wide instead of reaching for a cgo/asm intrinsic.
// Unrolling only changes how the loop is shaped, never the order of
// floating-point additions, so ForwardFast and Forward are bit-identical
// for every supported block size.
func ForwardFast(data []float32, bx, by, bz int, scratch []float32) {
	transformAxesFastX(data, bx, by, bz, scratch, lineForward1D)
}

// InverseFast mirrors ForwardFast for the inverse transform: same X-axis
// unrolling, same bit-identical guarantee against Inverse.
func InverseFast(data []float32, bx, by, bz int, scratch []float32) {
	transformAxesReverseFastX(data, bx, by, bz, scratch, lineInverse1D)
}

// lineForward1DUnrolled is arithmetically identical to lineForward1D; the
// per-level deinterleave loop is unrolled eight-wide since within one block
// the line length is a compile-time-unknown but runtime-constant power of
// two and the bulk of the work is in that gather.
func lineForward1DUnrolled(line []float32, scratch []float32) {
	n := len(line)
	for n > 1 {
		level := line[:n]
		even := scratch[:n/2]
		odd := scratch[n/2 : n]

		deinterleaveUnrolled(level, even, odd)
		liftPredict(odd, even)
		liftUpdate(even, odd)

		copy(level, even)
		copy(level[n/2:], odd)

		n /= 2
	}
}

// deinterleaveUnrolled computes the same values as deinterleave, eight
// output pairs per iteration.
func deinterleaveUnrolled(src, even, odd []float32) {
	half := len(src) / 2
	i := 0
	for ; i+8 <= half; i += 8 {
		even[i+0], odd[i+0] = src[2*i+0], src[2*i+1]
		even[i+1], odd[i+1] = src[2*i+2], src[2*i+3]
		even[i+2], odd[i+2] = src[2*i+4], src[2*i+5]
		even[i+3], odd[i+3] = src[2*i+6], src[2*i+7]
		even[i+4], odd[i+4] = src[2*i+8], src[2*i+9]
		even[i+5], odd[i+5] = src[2*i+10], src[2*i+11]
		even[i+6], odd[i+6] = src[2*i+12], src[2*i+13]
		even[i+7], odd[i+7] = src[2*i+14], src[2*i+15]
	}
	for ; i < half; i++ {
		even[i] = src[2*i]
		odd[i] = src[2*i+1]
	}
}

// lineInverse1DUnrolled is arithmetically identical to lineInverse1D; the
// per-level interleave loop is unrolled eight-wide to match
// lineForward1DUnrolled's scatter.
func lineInverse1DUnrolled(line []float32, scratch []float32) {
	n := len(line)

	levelSizes := make([]int, 0, 32)
	for size := 2; size <= n; size *= 2 {
		levelSizes = append(levelSizes, size)
	}

	for _, size := range levelSizes {
		even := scratch[:size/2]
		odd := scratch[size/2 : size]
		copy(even, line[:size/2])
		copy(odd, line[size/2:size])

		liftUpdateInverse(even, odd)
		liftPredictInverse(odd, even)

		interleaveUnrolled(line[:size], even, odd)
	}
}

// interleaveUnrolled computes the same values as interleave, eight input
// pairs per iteration.
func interleaveUnrolled(dst, even, odd []float32) {
	half := len(dst) / 2
	i := 0
	for ; i+8 <= half; i += 8 {
		dst[2*i+0], dst[2*i+1] = even[i+0], odd[i+0]
		dst[2*i+2], dst[2*i+3] = even[i+1], odd[i+1]
		dst[2*i+4], dst[2*i+5] = even[i+2], odd[i+2]
		dst[2*i+6], dst[2*i+7] = even[i+3], odd[i+3]
		dst[2*i+8], dst[2*i+9] = even[i+4], odd[i+4]
		dst[2*i+10], dst[2*i+11] = even[i+5], odd[i+5]
		dst[2*i+12], dst[2*i+13] = even[i+6], odd[i+6]
		dst[2*i+14], dst[2*i+15] = even[i+7], odd[i+7]
	}
	for ; i < half; i++ {
		dst[2*i] = even[i]
		dst[2*i+1] = odd[i]
	}
}

func transformAxesFastX(data []float32, bx, by, bz int, scratch []float32, slowOp lineOp) {
	lineBuf := scratch[:maxInt(bx, maxInt(by, bz))]
	workBuf := scratch[len(lineBuf):]

	// X axis: contiguous, fast unrolled path.
	for z := 0; z < bz; z++ {
		for y := 0; y < by; y++ {
			base := y*bx + z*bx*by
			lineForward1DUnrolled(data[base:base+bx], workBuf[:bx])
		}
	}

	// Y and Z axes are not the fastest axis; reuse the scalar line op.
	for z := 0; z < bz; z++ {
		for x := 0; x < bx; x++ {
			gatherStrided(data, lineBuf[:by], x+z*bx*by, bx, by)
			slowOp(lineBuf[:by], workBuf[:by])
			scatterStrided(data, lineBuf[:by], x+z*bx*by, bx, by)
		}
	}

	stride := bx * by
	for y := 0; y < by; y++ {
		for x := 0; x < bx; x++ {
			gatherStrided(data, lineBuf[:bz], x+y*bx, stride, bz)
			slowOp(lineBuf[:bz], workBuf[:bz])
			scatterStrided(data, lineBuf[:bz], x+y*bx, stride, bz)
		}
	}
}

func transformAxesReverseFastX(data []float32, bx, by, bz int, scratch []float32, slowOp lineOp) {
	lineBuf := scratch[:maxInt(bx, maxInt(by, bz))]
	workBuf := scratch[len(lineBuf):]

	stride := bx * by
	for y := 0; y < by; y++ {
		for x := 0; x < bx; x++ {
			gatherStrided(data, lineBuf[:bz], x+y*bx, stride, bz)
			slowOp(lineBuf[:bz], workBuf[:bz])
			scatterStrided(data, lineBuf[:bz], x+y*bx, stride, bz)
		}
	}

	for z := 0; z < bz; z++ {
		for x := 0; x < bx; x++ {
			gatherStrided(data, lineBuf[:by], x+z*bx*by, bx, by)
			slowOp(lineBuf[:by], workBuf[:by])
			scatterStrided(data, lineBuf[:by], x+z*bx*by, bx, by)
		}
	}

	// X axis: contiguous, fast unrolled path.
	for z := 0; z < bz; z++ {
		for y := 0; y < by; y++ {
			base := y*bx + z*bx*by
			lineInverse1DUnrolled(data[base:base+bx], workBuf[:bx])
		}
	}
}
