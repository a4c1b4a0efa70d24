package codec

// BlockRecord is the tagged union stored per block: either RLE-coded
// quantized coefficients, or (when RLE did not beat the raw budget) the
// wavelet-transformed float32 coefficients verbatim. Keeping this as a Go tagged
// struct keeps the scheduler's staging buffers ordinary slices; offsets
// into the final byte arena are derived from these lengths at
// serialization time instead of carried through the record itself.
type BlockRecord struct {
	Raw    bool
	Coded  []byte    // valid when Raw == false
	Cells  []float32 // valid when Raw == true, length == dims.Cells()
	Mulfac float32
}

// EncodeBlock runs the full per-block pipeline: forward wavelet transform,
// quantize, run-length encode, and fall back to raw float32 storage if the
// coded form does not fit the raw budget.
//
// transform runs in place on cells and brings its own scratch; qbuf and
// rlebuf are reusable per-worker-thread staging buffers owned by the
// caller, sized cells and cells*4 bytes respectively.
func EncodeBlock(cells []float32, mulfac float32, transform func([]float32), qbuf []int16, rlebuf []byte) BlockRecord {
	transform(cells)
	QuantizeBlock(cells, mulfac, qbuf)

	coded := RunLengthEncode(qbuf, rlebuf)
	if len(coded) >= RawBudget(len(cells)) {
		raw := make([]float32, len(cells))
		copy(raw, cells)
		return BlockRecord{Raw: true, Cells: raw, Mulfac: mulfac}
	}

	out := make([]byte, len(coded))
	copy(out, coded)
	return BlockRecord{Raw: false, Coded: out, Mulfac: mulfac}
}

// DecodeBlock is the inverse of EncodeBlock: it reconstructs the
// transformed (not yet inverse-transformed) coefficient block into dst.
func DecodeBlock(rec BlockRecord, dst []float32, qbuf []int16) error {
	if rec.Raw {
		copy(dst, rec.Cells)
		return nil
	}
	if err := RunLengthDecode(rec.Coded, qbuf); err != nil {
		return err
	}
	DequantizeBlock(qbuf, rec.Mulfac, dst)
	return nil
}

// ByteLen returns the number of bytes this record occupies in the final
// byte arena.
func (r BlockRecord) ByteLen() int {
	if r.Raw {
		return len(r.Cells) * 4
	}
	return len(r.Coded)
}
