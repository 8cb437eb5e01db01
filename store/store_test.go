package store

import (
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/m-lab/netstack/rtnl"
)

// mustLink builds a minimal well-formed Link with no attributes (name is
// accepted for readability at call sites but not encoded: these tests only
// exercise Index-keyed store behavior, not Name()).
func mustLink(t *testing.T, index int32, name string) *rtnl.Link {
	t.Helper()
	hdr := unix.IfInfomsg{Index: index}
	hdrBytes := (*(*[unsafe.Sizeof(unix.IfInfomsg{})]byte)(unsafe.Pointer(&hdr)))[:]
	link, err := rtnl.DecodeLink(hdrBytes)
	if err != nil {
		t.Fatalf("DecodeLink: %v", err)
	}
	return link
}

func TestShareByIndexReturnsSameUnderlyingRecord(t *testing.T) {
	s := New()
	link := mustLink(t, 1, "eth0")
	s.UpsertLink(link)

	h1 := s.ShareByIndex(1)
	h2 := s.ShareByIndex(1)
	if h1 == nil || h2 == nil {
		t.Fatal("expected both shares to succeed")
	}
	if h1.Record() != h2.Record() {
		t.Errorf("Share returned different underlying records on repeat lookup")
	}
	h1.Release()
	h2.Release()
}

func TestCopyByIndexIsIndependent(t *testing.T) {
	s := New()
	link := mustLink(t, 2, "eth1")
	s.UpsertLink(link)

	cp := s.CopyByIndex(2)
	if cp == nil {
		t.Fatal("expected copy to succeed")
	}
	if cp == link {
		t.Errorf("Copy returned the same pointer as the stored record")
	}
	if cp.Index() != link.Index() {
		t.Errorf("copy content mismatch: got index %d, want %d", cp.Index(), link.Index())
	}
}

func TestRemoveLinkThenShareFails(t *testing.T) {
	s := New()
	link := mustLink(t, 3, "eth2")
	s.UpsertLink(link)
	s.RemoveLink(3)

	if h := s.ShareByIndex(3); h != nil {
		t.Errorf("expected ShareByIndex to fail after RemoveLink")
	}
}

func TestEnumerateLinksAtomicStableSucceeds(t *testing.T) {
	s := New()
	s.UpsertLink(mustLink(t, 1, "eth0"))
	s.UpsertLink(mustLink(t, 2, "eth1"))

	links, en, err := s.EnumerateLinks(ModeAtomic)
	if err != nil {
		t.Fatalf("EnumerateLinks: %v", err)
	}
	if len(links) != 2 {
		t.Errorf("len(links) = %d, want 2", len(links))
	}
	if en.Nonce == 0 {
		t.Errorf("expected non-zero nonce after mutation")
	}
}

func TestSetTrackingSuppressesNonLinkStorage(t *testing.T) {
	s := New()
	s.SetTracking(rtnl.KindAddr, false)
	s.addrs.Upsert("k", "v")
	if s.addrs.Count() != 0 {
		t.Errorf("expected untracked kindStore to drop Upsert, count = %d", s.addrs.Count())
	}
}

func TestBytesTracksLinkFootprint(t *testing.T) {
	s := New()
	if s.Bytes() != 0 {
		t.Fatalf("Bytes() on empty store = %d, want 0", s.Bytes())
	}

	link := mustLink(t, 1, "eth0")
	s.UpsertLink(link)
	want := int64(link.Size())
	if got := s.Bytes(); got != want {
		t.Errorf("Bytes() after one insert = %d, want %d", got, want)
	}

	// Replacing the same index should not double-count.
	s.UpsertLink(mustLink(t, 1, "eth0"))
	if got := s.Bytes(); got != want {
		t.Errorf("Bytes() after replace = %d, want %d", got, want)
	}

	s.RemoveLink(1)
	if got := s.Bytes(); got != 0 {
		t.Errorf("Bytes() after remove = %d, want 0", got)
	}
}

func TestShareHandleCountsZombieShare(t *testing.T) {
	s := New()
	link := mustLink(t, 5, "eth3")
	s.UpsertLink(link)

	live := s.ShareByIndex(5)
	if live == nil {
		t.Fatal("expected ShareByIndex to succeed")
	}
	s.ShareHandle(live)
	if got := s.Stats.Snapshot().ZombieShares; got != 0 {
		t.Errorf("ZombieShares after sharing a live handle = %d, want 0", got)
	}

	s.RemoveLink(5)
	s.ShareHandle(live)
	if got := s.Stats.Snapshot().ZombieShares; got != 1 {
		t.Errorf("ZombieShares after sharing a removed handle = %d, want 1", got)
	}
}
