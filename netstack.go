// Package netstack maintains a live, thread-safe, indexed mirror of a Linux
// network namespace's rtnetlink-managed state: links, addresses, routes and
// neighbor (ARP/NDISC) cache entries. It subscribes to the kernel's
// rtnetlink multicast groups, performs an initial dump (by default finished
// before Create returns; see InitialEvents), and
// dispatches every subsequent create/update/delete to caller-supplied
// callbacks while keeping an internal store queryable from any goroutine.
package netstack

import (
	"net"

	"github.com/m-lab/netstack/engine"
	"github.com/m-lab/netstack/metrics"
	"github.com/m-lab/netstack/rtnl"
	"github.com/m-lab/netstack/store"
)

// Options configures a Netstack instance. See engine.Options for field
// documentation; this type is a thin alias so callers only ever import the
// root package for normal use.
type Options = engine.Options

// InitialEvents and its three values select how Create handles the initial
// per-kind dump; see engine.InitialEvents for details.
type InitialEvents = engine.InitialEvents

const (
	InitialEventsBlock = engine.InitialEventsBlock
	InitialEventsAsync = engine.InitialEventsAsync
	InitialEventsNone  = engine.InitialEventsNone
)

// Event is re-exported from rtnl so callers never need to import it
// directly for the common case of reading a callback's argument.
type Event = rtnl.Event

// Netstack is a live mirror of one network namespace's rtnetlink state.
// The zero value is not usable; construct with Create.
type Netstack struct {
	store  *store.Store
	engine *engine.Engine
}

// Create opens a netlink socket (in the namespace named by opts.Namespace,
// or the caller's current namespace if empty) and starts delivering live
// updates. opts.InitialEvents selects how the initial per-kind dump is
// handled: the zero value, InitialEventsBlock, makes Create wait until the
// dump drains before returning; InitialEventsAsync enqueues it and returns
// immediately; InitialEventsNone skips it entirely.
func Create(opts Options) (*Netstack, error) {
	st := store.New()
	eng, err := engine.Create(opts, st)
	if err != nil {
		return nil, err
	}
	return &Netstack{store: st, engine: eng}, nil
}

// Close stops delivering events and releases the underlying netlink socket.
func (n *Netstack) Close() error {
	return n.engine.Close()
}

// Stats returns a snapshot of lifetime counters: live object counts, event
// counts per kind, and query outcome counts.
func (n *Netstack) Stats() store.Stats {
	return n.store.Stats.Snapshot()
}

// Bytes returns the current aggregate wire footprint, in bytes, of every
// cached Link record -- the `bytes` query from spec.md §3/§4.4/§6, ported
// 1:1 from the original library's netstack_iface_bytes().
func (n *Netstack) Bytes() int64 {
	return n.store.Bytes()
}

// Count returns the number of links currently tracked.
func (n *Netstack) Count() int {
	return n.store.Count()
}

// Refresh enqueues a fresh dump request for kind; the refreshed records
// arrive asynchronously through the normal callback/store-update path, the
// same "foreign threads enqueue refresh commands" capability spec.md §2/§4.3
// calls for.
func (n *Netstack) Refresh(kind rtnl.Kind) error {
	return n.engine.Refresh(kind)
}

// ShareLinkHandle re-shares an already-held LinkHandle, bumping its
// refcount. If the handle's underlying link is no longer the store's live
// entry for that index, the share is counted as a zombie share.
func (n *Netstack) ShareLinkHandle(h *store.LinkHandle) *store.LinkHandle {
	h = n.store.ShareHandle(h)
	n.store.Stats.IncLookupShare()
	metrics.LookupOutcomeCount.WithLabelValues("share").Inc()
	return h
}

// ShareLink returns a reference-counted handle on the link at index idx, or
// nil if no such link is currently tracked. The caller must call Release on
// the returned handle when done.
func (n *Netstack) ShareLink(idx int32) *store.LinkHandle {
	h := n.store.ShareByIndex(idx)
	if h == nil {
		n.store.Stats.IncLookupFailure()
		metrics.LookupOutcomeCount.WithLabelValues("failure").Inc()
		return nil
	}
	n.store.Stats.IncLookupShare()
	metrics.LookupOutcomeCount.WithLabelValues("share").Inc()
	return h
}

// ShareLinkByName is ShareLink keyed by interface name.
func (n *Netstack) ShareLinkByName(name string) *store.LinkHandle {
	h := n.store.ShareByName(name)
	if h == nil {
		n.store.Stats.IncLookupFailure()
		return nil
	}
	n.store.Stats.IncLookupShare()
	return h
}

// CopyLink returns a new *rtnl.Link copied from the link at index idx, or nil
// if absent. Its attribute bytes are shared with the stored record, not
// duplicated (see store.Store.CopyByIndex).
func (n *Netstack) CopyLink(idx int32) *rtnl.Link {
	cp := n.store.CopyByIndex(idx)
	if cp == nil {
		n.store.Stats.IncLookupFailure()
		return nil
	}
	n.store.Stats.IncLookupCopy()
	return cp
}

// ShareNeigh returns a reference-counted handle on the neighbor cache entry
// resolving dst on the link at index idx, or nil if absent.
func (n *Netstack) ShareNeigh(idx int32, dst net.IP) *store.Handle {
	h := n.store.ShareNeigh(idx, dst)
	if h == nil {
		n.store.Stats.IncLookupFailure()
		return nil
	}
	n.store.Stats.IncLookupShare()
	return h
}

// ShareAddr returns a reference-counted handle on the address matching
// idx/ip/prefixLen, or nil if absent.
func (n *Netstack) ShareAddr(idx int32, ip net.IP, prefixLen uint8) *store.Handle {
	h := n.store.ShareAddr(idx, ip, prefixLen)
	if h == nil {
		n.store.Stats.IncLookupFailure()
		return nil
	}
	n.store.Stats.IncLookupShare()
	return h
}
