package device

import "testing"

func TestStreamSetSyncAllWaitsForLaunchedTasks(t *testing.T) {
	ss := NewStreamSet(0)
	defer ss.Close()

	var ran []Kind
	for _, k := range []Kind{Compute, Input, Output} {
		k := k
		ss.Stream(k).Launch(func() error {
			ran = append(ran, k)
			return nil
		})
	}

	if err := ss.SyncAll(); err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if len(ran) != 3 {
		t.Fatalf("expected 3 launched tasks to complete before sync returned, got %d", len(ran))
	}
}

func TestStreamSetSyncAllReturnsTaskError(t *testing.T) {
	ss := NewStreamSet(1)
	defer ss.Close()

	boom := errTestStream("boom")
	ss.Stream(Compute).Launch(func() error { return boom })

	if err := ss.SyncAll(); err == nil {
		t.Fatalf("expected SyncAll to surface the task error")
	}
}

type errTestStream string

func (e errTestStream) Error() string { return string(e) }
