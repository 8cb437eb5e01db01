package store

import (
	"testing"

	"github.com/m-lab/netstack/rtnl"
)

func TestEnumerateLinksCursorResumesAcrossCalls(t *testing.T) {
	s := New()
	s.UpsertLink(mustLink(t, 1, "eth0"))
	s.UpsertLink(mustLink(t, 2, "eth1"))
	s.UpsertLink(mustLink(t, 3, "eth2"))

	var cur Cursor
	first, err := s.EnumerateLinksCursor(&cur, 2, 0, 0)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if len(first) != 2 || first[0].Index() != 1 || first[1].Index() != 2 {
		t.Fatalf("first batch = %v, want indices [1 2]", linkIndices(first))
	}
	if cur.Done() {
		t.Fatal("cursor should not be done after a partial batch")
	}

	second, err := s.EnumerateLinksCursor(&cur, 2, 0, 0)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(second) != 1 || second[0].Index() != 3 {
		t.Fatalf("second batch = %v, want indices [3]", linkIndices(second))
	}
	if !cur.Done() {
		t.Error("cursor should be done after draining the snapshot")
	}
}

func linkIndices(links []*rtnl.Link) []int32 {
	out := make([]int32, len(links))
	for i, l := range links {
		out[i] = l.Index()
	}
	return out
}

func TestEnumerateLinksCursorDetectsMutationBetweenCalls(t *testing.T) {
	s := New()
	s.UpsertLink(mustLink(t, 1, "eth0"))
	s.UpsertLink(mustLink(t, 2, "eth1"))

	var cur Cursor
	if _, err := s.EnumerateLinksCursor(&cur, 1, 0, 0); err != nil {
		t.Fatalf("first call: %v", err)
	}

	s.UpsertLink(mustLink(t, 3, "eth2"))

	if _, err := s.EnumerateLinksCursor(&cur, 1, 0, 0); err != ErrEnumerateUnstable {
		t.Errorf("second call after mutation = %v, want ErrEnumerateUnstable", err)
	}
}

func TestEnumerateLinksCursorAtomicFailsWhenBufferTooSmall(t *testing.T) {
	s := New()
	link := mustLink(t, 1, "eth0")
	s.UpsertLink(link)

	_, err := s.EnumerateLinksCursor(nil, 0, int(link.Size())-1, FlagAtomic)
	if err != ErrEnumerateBufferTooSmall {
		t.Errorf("EnumerateLinksCursor() = %v, want ErrEnumerateBufferTooSmall", err)
	}
}

func TestEnumerateLinksCursorAbortRequiresCursor(t *testing.T) {
	s := New()
	if _, err := s.EnumerateLinksCursor(nil, 0, 0, FlagAbort); err != ErrInvalidEnumerateFlags {
		t.Errorf("ABORT with nil cursor = %v, want ErrInvalidEnumerateFlags", err)
	}

	var cur Cursor
	s.UpsertLink(mustLink(t, 1, "eth0"))
	if _, err := s.EnumerateLinksCursor(&cur, 1, 0, 0); err != nil {
		t.Fatalf("priming call: %v", err)
	}
	if _, err := s.EnumerateLinksCursor(&cur, 0, 0, FlagAbort); err != nil {
		t.Fatalf("ABORT: %v", err)
	}
	if !cur.Done() {
		t.Error("cursor should be reset after ABORT")
	}
}

func TestEnumerateLinksCursorMinimalReturnsEveryLink(t *testing.T) {
	s := New()
	s.UpsertLink(mustLink(t, 1, "eth0"))

	full, err := s.EnumerateLinksCursor(nil, 0, 0, 0)
	if err != nil {
		t.Fatalf("full enumerate: %v", err)
	}
	minimal, err := s.EnumerateLinksCursor(nil, 0, 0, FlagMinimal)
	if err != nil {
		t.Fatalf("minimal enumerate: %v", err)
	}
	if len(full) != 1 || len(minimal) != 1 {
		t.Fatalf("expected one link from each call")
	}
}

func TestEnumerateLinksCursorInvalidCount(t *testing.T) {
	s := New()
	if _, err := s.EnumerateLinksCursor(nil, -1, 0, 0); err != ErrInvalidEnumerateCount {
		t.Errorf("negative maxCount = %v, want ErrInvalidEnumerateCount", err)
	}
}
