package block

import "testing"

func TestArenaAtWraps(t *testing.T) {
	a := NewArena(PV, 4, 2, 8, 8, 3)

	if a.At(0) != a.Blocks[0] {
		t.Fatalf("At(0) should return the first block")
	}
	if a.At(4) != a.Blocks[0] {
		t.Fatalf("At(4) should wrap to the first block")
	}
	if a.At(-1) != a.Blocks[3] {
		t.Fatalf("At(-1) should wrap to the last block")
	}
}

func TestHostBlockWriteExportRoundTrip(t *testing.T) {
	blk := NewHostBlock(0, ST, 2, 4, 4, 6)
	data := make([]float32, blk.Cells)
	for i := range data {
		data[i] = float32(i)
	}
	blk.Write(data)

	out := make([]float32, blk.Cells)
	n := blk.Export(out)
	if n != blk.Cells {
		t.Fatalf("expected %d cells exported, got %d", blk.Cells, n)
	}
	for i := range data {
		if out[i] != data[i] {
			t.Fatalf("cell %d: want %v, got %v", i, data[i], out[i])
		}
	}
}

func TestHostBlockFirstTouchClears(t *testing.T) {
	blk := NewHostBlock(0, EM, 2, 4, 4, 4)
	for i := range blk.Data {
		blk.Data[i] = 1
	}
	blk.FirstTouch()
	for i, v := range blk.Data {
		if v != 0 {
			t.Fatalf("cell %d: expected zero after FirstTouch, got %v", i, v)
		}
	}
}
