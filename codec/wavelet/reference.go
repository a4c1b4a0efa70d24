package wavelet

// lineForward1D performs one full multiresolution decomposition (all
// log2(n) levels) of a single line of length n (power of two) in place,
// using scratch as working space (len(scratch) >= n).
func lineForward1D(line []float32, scratch []float32) {
	n := len(line)
	for n > 1 {
		level := line[:n]
		even := scratch[:n/2]
		odd := scratch[n/2 : n]

		deinterleave(level, even, odd)
		liftPredict(odd, even)
		liftUpdate(even, odd)

		copy(level, even)
		copy(level[n/2:], odd)

		n /= 2
	}
}

// lineInverse1D is the exact inverse of lineForward1D.
func lineInverse1D(line []float32, scratch []float32) {
	n := len(line)

	// recover the sequence of level sizes bottom-up: 2,4,8,...,len(line)
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

		interleave(line[:size], even, odd)
	}
}

// ScratchSize is the scratch length callers must provide: one line buffer
// plus one working buffer of the same size, bounded by max(bx,by,bz)*8
// floats.
func ScratchSize(maxExtent int) int { return maxExtent * 8 }

// Forward applies the reference (scalar) forward transform to a block:
// separable in X, then Y, then Z. dims is (bx,by,bz); data has
// length bx*by*bz, X fastest. scratch holds a line buffer and a working
// buffer, so it must be >= 2*max(bx,by,bz) floats; ScratchSize is enough.
func Forward(data []float32, bx, by, bz int, scratch []float32) {
	transformAxes(data, bx, by, bz, scratch, lineForward1D)
}

// Inverse applies the reference (scalar) inverse transform, axis order
// reversed: Z, then Y, then X.
func Inverse(data []float32, bx, by, bz int, scratch []float32) {
	transformAxesReverse(data, bx, by, bz, scratch, lineInverse1D)
}

type lineOp func(line, scratch []float32)

// transformAxes walks X lines, then Y lines, then Z lines, applying op to
// each contiguous-in-scratch copy of the line (the volume itself is strided
// for Y/Z so each line is gathered into scratch, transformed, then
// scattered back).
func transformAxes(data []float32, bx, by, bz int, scratch []float32, op lineOp) {
	lineBuf := scratch[:maxInt(bx, maxInt(by, bz))]
	workBuf := scratch[len(lineBuf):]

	// X axis: contiguous, operate directly on sub-slices.
	for z := 0; z < bz; z++ {
		for y := 0; y < by; y++ {
			base := y*bx + z*bx*by
			op(data[base:base+bx], workBuf[:bx])
		}
	}

	// Y axis: stride bx.
	for z := 0; z < bz; z++ {
		for x := 0; x < bx; x++ {
			gatherStrided(data, lineBuf[:by], x+z*bx*by, bx, by)
			op(lineBuf[:by], workBuf[:by])
			scatterStrided(data, lineBuf[:by], x+z*bx*by, bx, by)
		}
	}

	// Z axis: stride bx*by.
	stride := bx * by
	for y := 0; y < by; y++ {
		for x := 0; x < bx; x++ {
			gatherStrided(data, lineBuf[:bz], x+y*bx, stride, bz)
			op(lineBuf[:bz], workBuf[:bz])
			scatterStrided(data, lineBuf[:bz], x+y*bx, stride, bz)
		}
	}
}

// transformAxesReverse walks Z, then Y, then X (inverse axis order).
func transformAxesReverse(data []float32, bx, by, bz int, scratch []float32, op lineOp) {
	lineBuf := scratch[:maxInt(bx, maxInt(by, bz))]
	workBuf := scratch[len(lineBuf):]

	stride := bx * by
	for y := 0; y < by; y++ {
		for x := 0; x < bx; x++ {
			gatherStrided(data, lineBuf[:bz], x+y*bx, stride, bz)
			op(lineBuf[:bz], workBuf[:bz])
			scatterStrided(data, lineBuf[:bz], x+y*bx, stride, bz)
		}
	}

	for z := 0; z < bz; z++ {
		for x := 0; x < bx; x++ {
			gatherStrided(data, lineBuf[:by], x+z*bx*by, bx, by)
			op(lineBuf[:by], workBuf[:by])
			scatterStrided(data, lineBuf[:by], x+z*bx*by, bx, by)
		}
	}

	for z := 0; z < bz; z++ {
		for y := 0; y < by; y++ {
			base := y*bx + z*bx*by
			op(data[base:base+bx], workBuf[:bx])
		}
	}
}

func gatherStrided(data []float32, out []float32, base, stride, n int) {
	for i := 0; i < n; i++ {
		out[i] = data[base+i*stride]
	}
}

func scatterStrided(data []float32, in []float32, base, stride, n int) {
	for i := 0; i < n; i++ {
		data[base+i*stride] = in[i]
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
