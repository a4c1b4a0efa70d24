package device

import "testing"

func TestResidencyCacheAcquireReuse(t *testing.T) {
	c := NewResidencyCache()

	e1 := c.Acquire(0, 5)
	if !e1.InUse.Load() {
		t.Fatalf("expected entry to be marked in use after acquire")
	}
	if !c.Resident(0, 5) {
		t.Fatalf("expected block 5 to be resident on device 0")
	}

	e2 := c.Acquire(0, 5)
	if e1 != e2 {
		t.Fatalf("expected second acquire of the same block to return the same entry")
	}
	if c.Count(0) != 1 {
		t.Fatalf("expected 1 resident block on device 0, got %d", c.Count(0))
	}
}

func TestResidencyCacheReleaseThenEvict(t *testing.T) {
	c := NewResidencyCache()
	e := c.Acquire(1, 2)
	c.Release(e)
	if e.InUse.Load() {
		t.Fatalf("expected entry to no longer be in use after release")
	}
	if !c.Resident(1, 2) {
		t.Fatalf("release should not evict; block should still be resident")
	}

	c.Evict(1, 2)
	if c.Resident(1, 2) {
		t.Fatalf("expected block to no longer be resident after evict")
	}
	if c.Count(1) != 0 {
		t.Fatalf("expected 0 resident blocks on device 1 after evict, got %d", c.Count(1))
	}
}

func TestResidencyCacheTracksPerDevice(t *testing.T) {
	c := NewResidencyCache()
	c.Acquire(0, 1)
	c.Acquire(0, 2)
	c.Acquire(1, 1)

	if c.Count(0) != 2 {
		t.Fatalf("expected 2 resident blocks on device 0, got %d", c.Count(0))
	}
	if c.Count(1) != 1 {
		t.Fatalf("expected 1 resident block on device 1, got %d", c.Count(1))
	}
}
