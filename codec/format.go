package codec

import (
	"bytes"
	"encoding/binary"

	"github.com/cvxgo/seismic/bits"
)

// HeaderWords is the fixed portion of the compressed buffer layout:
// nx, ny, nz, bx, by, bz, mulfac, reserved — eight 32-bit words.
const HeaderWords = 8
const HeaderBytes = HeaderWords * 4

// OffsetEntryBytes is the size of one offset-table entry: a signed 64-bit
// byte offset into the arena. A negative value marks a raw block; the
// offset stored is -(absoluteOffset+1) so that an offset of zero (the
// arena's very first byte) remains unambiguous in sign.
const OffsetEntryBytes = 8

// Header mirrors the fixed fields of the compressed buffer layout.
type Header struct {
	Nx, Ny, Nz int
	Dims       BlockDims
	Mulfac     float32
}

func encodeOffset(raw bool, byteOffset int) int64 {
	if raw {
		return -(int64(byteOffset) + 1)
	}
	return int64(byteOffset)
}

func decodeOffset(v int64) (raw bool, byteOffset int) {
	if v < 0 {
		return true, int(-v - 1)
	}
	return false, int(v)
}

// WriteCompressedBuffer serialises a header and the per-block records into
// dst. dst is grown as needed; the returned slice is the encoded
// prefix.
func WriteCompressedBuffer(hdr Header, grid Grid, records []BlockRecord, dst []byte) []byte {
	w := bits.NewEncodeBuffer(dst, binary.LittleEndian)
	w.EnableGrowing()

	w.PutUint32(uint32(hdr.Nx))
	w.PutUint32(uint32(hdr.Ny))
	w.PutUint32(uint32(hdr.Nz))
	w.PutUint32(uint32(hdr.Dims.BX))
	w.PutUint32(uint32(hdr.Dims.BY))
	w.PutUint32(uint32(hdr.Dims.BZ))
	w.PutFloat32(hdr.Mulfac)
	w.PutUint32(0) // reserved

	offsetTableStart := w.Position()
	w.EmptyBytes(len(records) * OffsetEntryBytes)

	arenaStart := w.Position()
	for i, rec := range records {
		pos := w.Position()
		if rec.Raw {
			w.Write(bits.Float32ToBytes(rec.Cells))
		} else {
			w.Write(rec.Coded)
		}
		w.PutInt64At(offsetTableStart+i*OffsetEntryBytes, encodeOffset(rec.Raw, pos-arenaStart))
	}

	return w.Bytes()
}

// ReadCompressedHeader parses the fixed header fields and returns the
// block grid they imply, without touching the offset table or arena.
func ReadCompressedHeader(buf []byte) (Header, Grid, error) {
	if len(buf) < HeaderBytes {
		return Header{}, Grid{}, ErrCorruptBuffer
	}
	r := bits.NewReader(bytes.NewReader(buf), binary.LittleEndian)

	nx := int(r.MustReadU32())
	ny := int(r.MustReadU32())
	nz := int(r.MustReadU32())
	bx := int(r.MustReadU32())
	by := int(r.MustReadU32())
	bz := int(r.MustReadU32())
	mulfac := r.MustReadF32()
	r.MustReadU32() // reserved

	if nx <= 0 || ny <= 0 || nz <= 0 {
		return Header{}, Grid{}, ErrInvalidVolume
	}
	dims := BlockDims{BX: bx, BY: by, BZ: bz}
	if !dims.valid() {
		return Header{}, Grid{}, ErrInvalidBlockDims
	}

	v := &Volume{Nx: nx, Ny: ny, Nz: nz}
	grid := NewGrid(v, dims)

	return Header{Nx: nx, Ny: ny, Nz: nz, Dims: dims, Mulfac: mulfac}, grid, nil
}

// ReadBlockRecord reconstructs block index i's record from the compressed
// buffer, validating the offset and declared length against the arena's
// bounds.
func ReadBlockRecord(buf []byte, grid Grid, blockIndex int, cells int, mulfac float32) (BlockRecord, error) {
	nblocks := grid.NumBlocks()
	tableStart := HeaderBytes
	arenaStart := tableStart + nblocks*OffsetEntryBytes

	entryAt := tableStart + blockIndex*OffsetEntryBytes
	if entryAt+OffsetEntryBytes > len(buf) {
		return BlockRecord{}, ErrCorruptBuffer
	}
	rawOffset := int64(binary.LittleEndian.Uint64(buf[entryAt : entryAt+8]))
	isRaw, byteOffset := decodeOffset(rawOffset)

	absStart := arenaStart + byteOffset
	if absStart < arenaStart || absStart > len(buf) {
		return BlockRecord{}, ErrCorruptBuffer
	}

	var recLen int
	if isRaw {
		recLen = cells * 4
	} else {
		recLen = nextRecordBoundary(buf, grid, blockIndex, arenaStart, byteOffset) - byteOffset
	}
	if recLen < 0 || absStart+recLen > len(buf) {
		return BlockRecord{}, ErrCorruptBuffer
	}

	body := buf[absStart : absStart+recLen]
	if isRaw {
		return BlockRecord{Raw: true, Cells: bits.MapBytesToFloat32(body, cells), Mulfac: mulfac}, nil
	}
	coded := make([]byte, len(body))
	copy(coded, body)
	return BlockRecord{Raw: false, Coded: coded, Mulfac: mulfac}, nil
}

// nextRecordBoundary finds the smallest offset strictly greater than
// thisOffset among all blocks' offsets, raw or compressed, or the arena end
// if none exists — a compressed record's length is the distance to the next
// larger offset.
func nextRecordBoundary(buf []byte, grid Grid, thisBlock int, arenaStart int, thisOffset int) int {
	nblocks := grid.NumBlocks()
	tableStart := HeaderBytes
	best := len(buf) - arenaStart

	for i := 0; i < nblocks; i++ {
		if i == thisBlock {
			continue
		}
		entryAt := tableStart + i*OffsetEntryBytes
		v := int64(binary.LittleEndian.Uint64(buf[entryAt : entryAt+8]))
		_, off := decodeOffset(v)
		if off <= thisOffset {
			continue
		}
		if off < best {
			best = off
		}
	}
	return best
}
