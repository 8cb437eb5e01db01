package netstack

import (
	"github.com/m-lab/netstack/rtnl"
	"github.com/m-lab/netstack/store"
)

// EnumerateMode selects atomic-vs-streaming bulk enumeration; re-exported
// from store for convenience.
type EnumerateMode = store.EnumerateMode

const (
	ModeStreaming = store.ModeStreaming
	ModeAtomic    = store.ModeAtomic
)

// EnumerateLinks returns every currently tracked link.
func (n *Netstack) EnumerateLinks(mode EnumerateMode) ([]*rtnl.Link, error) {
	links, _, err := n.store.EnumerateLinks(mode)
	return links, err
}

// EnumerateAddrs returns every currently tracked address.
func (n *Netstack) EnumerateAddrs(mode EnumerateMode) ([]*rtnl.Addr, error) {
	addrs, _, err := n.store.EnumerateAddrs(mode)
	return addrs, err
}

// EnumerateRoutes returns every currently tracked route.
func (n *Netstack) EnumerateRoutes(mode EnumerateMode) ([]*rtnl.Route, error) {
	routes, _, err := n.store.EnumerateRoutes(mode)
	return routes, err
}

// EnumerateNeighs returns every currently tracked neighbor cache entry.
func (n *Netstack) EnumerateNeighs(mode EnumerateMode) ([]*rtnl.Neigh, error) {
	neighs, _, err := n.store.EnumerateNeighs(mode)
	return neighs, err
}

// Cursor is a caller-held, resumable position into one kind's enumeration;
// re-exported from store for convenience. The zero value is a fresh,
// unstarted cursor.
type Cursor = store.Cursor

// EnumerateFlags and its three values select the ATOMIC/MINIMAL/ABORT
// enumeration modifiers from spec.md §6; re-exported from store.
type EnumerateFlags = store.EnumerateFlags

const (
	FlagAtomic  = store.FlagAtomic
	FlagMinimal = store.FlagMinimal
	FlagAbort   = store.FlagAbort
)

// EnumerateLinksCursor returns up to maxCount links (0 means unlimited)
// whose total wire footprint does not exceed maxBytes (0 means unlimited),
// resuming from cur; the first link of a call is returned even if it alone
// exceeds maxBytes. A nil cur returns every link in a single call instead
// of a resumable stream: maxCount is not applied, and maxBytes is applied
// only under FlagAtomic, where a total above it fails with
// ErrEnumerateBufferTooSmall.
func (n *Netstack) EnumerateLinksCursor(cur *Cursor, maxCount, maxBytes int, flags EnumerateFlags) ([]*rtnl.Link, error) {
	return n.store.EnumerateLinksCursor(cur, maxCount, maxBytes, flags)
}

// EnumerateAddrsCursor is EnumerateLinksCursor for addresses.
func (n *Netstack) EnumerateAddrsCursor(cur *Cursor, maxCount, maxBytes int, flags EnumerateFlags) ([]*rtnl.Addr, error) {
	return n.store.EnumerateAddrsCursor(cur, maxCount, maxBytes, flags)
}

// EnumerateRoutesCursor is EnumerateLinksCursor for routes.
func (n *Netstack) EnumerateRoutesCursor(cur *Cursor, maxCount, maxBytes int, flags EnumerateFlags) ([]*rtnl.Route, error) {
	return n.store.EnumerateRoutesCursor(cur, maxCount, maxBytes, flags)
}

// EnumerateNeighsCursor is EnumerateLinksCursor for neighbor cache entries.
func (n *Netstack) EnumerateNeighsCursor(cur *Cursor, maxCount, maxBytes int, flags EnumerateFlags) ([]*rtnl.Neigh, error) {
	return n.store.EnumerateNeighsCursor(cur, maxCount, maxBytes, flags)
}
