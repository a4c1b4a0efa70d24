package diagnostics

import "testing"

func TestBlockSizeHistogramCountsRawAndCoded(t *testing.T) {
	lengths := []int{100, 300, 600, 50}
	rawFlags := []bool{false, true, false, true}

	h := NewBlockSizeHistogram(lengths, rawFlags)

	if h.TotalBlocks != 4 {
		t.Errorf("expected 4 total blocks, got %d", h.TotalBlocks)
	}
	if h.RawBlocks != 2 {
		t.Errorf("expected 2 raw blocks, got %d", h.RawBlocks)
	}
	if h.CodedBlocks != 2 {
		t.Errorf("expected 2 coded blocks, got %d", h.CodedBlocks)
	}
	if h.ByteBuckets[0] != 2 {
		t.Errorf("expected 2 entries in bucket 0, got %d", h.ByteBuckets[0])
	}
	if h.ByteBuckets[256] != 1 {
		t.Errorf("expected 1 entry in bucket 256, got %d", h.ByteBuckets[256])
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	l := Ledger{
		Sweep: []SweepEntry{
			{NumPipes: 2, StepsPerDevice: 4, ZTile: 8, MCellsPerS: 123.4},
		},
		Histogram: NewBlockSizeHistogram([]int{64, 128}, []bool{false, false}),
	}

	snap, err := Snapshot(l)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap) == 0 {
		t.Fatalf("expected non-empty snapshot")
	}

	got, err := Load(snap)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Sweep) != 1 || got.Sweep[0].MCellsPerS != 123.4 {
		t.Errorf("sweep entry did not round-trip: %+v", got.Sweep)
	}
	if got.Histogram.TotalBlocks != 2 {
		t.Errorf("histogram did not round-trip: %+v", got.Histogram)
	}
}

func TestWatchStructRecordsAlignmentReport(t *testing.T) {
	type sample struct {
		A bool
		B int64
		C bool
	}

	var l Ledger
	l.WatchStruct("sample", sample{})

	if _, ok := l.StructReports["sample"]; !ok {
		t.Fatalf("expected struct report to be recorded")
	}
}
