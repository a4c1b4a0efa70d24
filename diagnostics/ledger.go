// Package diagnostics snapshots side-channel run data — the auto-tuner's
// sweep ledger and a codec run's block-size histogram — into a single
// lz4-compressed artifact for post-run inspection. It never touches the
// wavelet coefficients or the compressed-buffer arena itself; those stay
// on the hot path.
package diagnostics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/pierrec/lz4/v4"

	"github.com/cvxgo/seismic/compression"
)

// SweepEntry is one auto-tuner candidate measurement (mirrors
// propagator.Measurement without importing propagator, keeping diagnostics
// a leaf package).
type SweepEntry struct {
	NumPipes       int     `json:"num_pipes"`
	StepsPerDevice int     `json:"steps_per_device"`
	ZTile          int     `json:"z_tile"`
	MCellsPerS     float64 `json:"mcells_per_sec"`
}

// BlockSizeHistogram buckets a codec run's encoded block sizes (raw vs.
// run-length coded, and a coarse byte-size distribution) so a caller can
// tell at a glance how much the run leaned on the raw fallback.
type BlockSizeHistogram struct {
	TotalBlocks int         `json:"total_blocks"`
	RawBlocks   int         `json:"raw_blocks"`
	CodedBlocks int         `json:"coded_blocks"`
	ByteBuckets map[int]int `json:"byte_buckets"` // bucket = byte_len rounded down to nearest 256
}

// NewBlockSizeHistogram builds a histogram from a run's per-block byte
// lengths and raw/coded flags; lengths and rawFlags must be the same
// length, one entry per block.
func NewBlockSizeHistogram(lengths []int, rawFlags []bool) BlockSizeHistogram {
	h := BlockSizeHistogram{ByteBuckets: make(map[int]int)}
	for i, n := range lengths {
		h.TotalBlocks++
		if i < len(rawFlags) && rawFlags[i] {
			h.RawBlocks++
		} else {
			h.CodedBlocks++
		}
		bucket := (n / 256) * 256
		h.ByteBuckets[bucket]++
	}
	return h
}

// Ledger is the full diagnostics snapshot for one run.
type Ledger struct {
	Sweep     []SweepEntry       `json:"sweep,omitempty"`
	Histogram BlockSizeHistogram `json:"histogram"`
	// StructReports records the struct-padding report
	// (compression.GetWellAlignedStructReport) of every struct registered
	// through WatchStruct.
	StructReports map[string]compression.AlignmentReport `json:"struct_reports,omitempty"`
}

// Snapshot lz4-compresses the ledger's JSON encoding into a single
// artifact rather than rolling a bespoke framing format.
func Snapshot(l Ledger) ([]byte, error) {
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: marshal ledger: %w", err)
	}

	var out bytes.Buffer
	if err := compression.CompressLz4(raw, &out); err != nil {
		slog.Error("diagnostics snapshot lz4 compression failed", "raw_bytes", len(raw), "err", err)
		return nil, fmt.Errorf("diagnostics: lz4 compress ledger: %w", err)
	}

	slog.Info("diagnostics snapshot written", "raw_bytes", len(raw), "compressed_bytes", out.Len(),
		"sweep_entries", len(l.Sweep), "total_blocks", l.Histogram.TotalBlocks)
	return out.Bytes(), nil
}

// Load reverses Snapshot: decompresses and unmarshals a ledger artifact.
func Load(snapshot []byte) (Ledger, error) {
	zr := lz4.NewReader(bytes.NewReader(snapshot))
	raw, err := io.ReadAll(zr)
	if err != nil {
		return Ledger{}, fmt.Errorf("diagnostics: lz4 decompress ledger: %w", err)
	}

	var l Ledger
	if err := json.Unmarshal(raw, &l); err != nil {
		return Ledger{}, fmt.Errorf("diagnostics: unmarshal ledger: %w", err)
	}
	return l, nil
}

// WatchStruct runs struct-alignment reflection over v and records the
// result under name, for later inclusion in a Snapshot.
func (l *Ledger) WatchStruct(name string, v any) {
	if l.StructReports == nil {
		l.StructReports = make(map[string]compression.AlignmentReport)
	}
	l.StructReports[name] = compression.GetWellAlignedStructReport(v)
}
