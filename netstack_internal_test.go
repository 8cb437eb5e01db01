package netstack

import (
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/m-lab/netstack/rtnl"
	"github.com/m-lab/netstack/store"
)

// mustLink builds a minimal well-formed Link with no attributes; name is
// accepted for call-site readability only.
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

func TestShareLinkAndCopyLinkAgreeOnContent(t *testing.T) {
	st := store.New()
	st.UpsertLink(mustLink(t, 4, "eth3"))
	ns := &Netstack{store: st}

	h := ns.ShareLink(4)
	if h == nil {
		t.Fatal("expected ShareLink to succeed")
	}
	defer h.Release()

	cp := ns.CopyLink(4)
	if cp == nil {
		t.Fatal("expected CopyLink to succeed")
	}
	if cp == h.Record() {
		t.Errorf("CopyLink returned the same pointer as ShareLink's record")
	}
	if cp.Index() != h.Record().Index() {
		t.Errorf("index mismatch between share and copy")
	}
}

func TestShareLinkMissingReportsFailure(t *testing.T) {
	st := store.New()
	ns := &Netstack{store: st}
	if h := ns.ShareLink(99); h != nil {
		t.Errorf("expected ShareLink(99) to fail on empty store")
	}
	snap := ns.Stats()
	if snap.LookupFailures != 1 {
		t.Errorf("LookupFailures = %d, want 1", snap.LookupFailures)
	}
}

func TestEnumerateLinksReflectsStore(t *testing.T) {
	st := store.New()
	st.UpsertLink(mustLink(t, 1, "lo"))
	st.UpsertLink(mustLink(t, 2, "eth0"))
	ns := &Netstack{store: st}

	links, err := ns.EnumerateLinks(ModeAtomic)
	if err != nil {
		t.Fatalf("EnumerateLinks: %v", err)
	}
	if len(links) != 2 {
		t.Errorf("len(links) = %d, want 2", len(links))
	}
}
