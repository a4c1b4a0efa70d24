// Package numeric holds small generic numeric helpers. The codec uses
// IsPowerOfTwo to validate block dimensions; the other helpers have no
// caller inside this module.
package numeric

import "golang.org/x/exp/constraints"

// Clamp restricts v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Bounds tracks a running [Min, Max] pair.
type Bounds[T constraints.Float | constraints.Integer] struct {
	Min T
	Max T
}

// Morph widens b to also cover other, reporting whether it changed.
func (b *Bounds[T]) Morph(other Bounds[T]) bool {
	changed := false
	if other.Min < b.Min {
		b.Min = other.Min
		changed = true
	}
	if other.Max > b.Max {
		b.Max = other.Max
		changed = true
	}
	return changed
}

// GetMaxMin computes the bounds of a non-empty slice in one pass.
func GetMaxMin[T constraints.Float | constraints.Integer](arr []T) Bounds[T] {
	result := Bounds[T]{Min: arr[0], Max: arr[0]}
	for _, v := range arr[1:] {
		if v < result.Min {
			result.Min = v
		}
		if v > result.Max {
			result.Max = v
		}
	}
	return result
}

// IsPowerOfTwo reports whether v is a positive power of two, used to
// validate block dimensions (codec).
func IsPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

// Log2 returns floor(log2(v)) for a positive power of two v.
func Log2(v int) int {
	n := 0
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}
