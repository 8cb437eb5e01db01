package store

import (
	"fmt"
	"net"

	"github.com/m-lab/netstack/rtnl"
)

// SetTracking configures whether the given non-Link kind retains records. It
// must be called before the engine starts decoding events; it has no effect
// on the Link store, whose tracking is set by SetLinkTracking (matching the
// original library's notrack option: "at least one kind or callback must
// remain active," enforced one layer up by the engine at Create time).
func (s *Store) SetTracking(kind rtnl.Kind, tracked bool) {
	switch kind {
	case rtnl.KindAddr:
		s.addrs.track = tracked
	case rtnl.KindRoute:
		s.routes.track = tracked
	case rtnl.KindNeigh:
		s.neighs.track = tracked
	}
}

func addrKey(a *rtnl.Addr) string {
	ip, _ := a.Address()
	return fmt.Sprintf("%d/%s/%d", a.Index(), ip.String(), a.PrefixLen())
}

func routeKey(r *rtnl.Route) string {
	dst, _ := r.Dst()
	return fmt.Sprintf("%d/%d/%s/%d", r.Table(), r.Family(), dst.String(), r.DstLen())
}

func neighKey(n *rtnl.Neigh) string {
	dst, _ := n.Dst()
	return fmt.Sprintf("%d/%s", n.Index(), dst.String())
}

// UpsertAddr inserts or replaces an address record.
func (s *Store) UpsertAddr(a *rtnl.Addr) {
	s.addrs.Upsert(addrKey(a), a)
	s.bumpNonce()
	s.Stats.incAddrs()
}

// RemoveAddr deletes the address record matching a.
func (s *Store) RemoveAddr(a *rtnl.Addr) {
	s.addrs.Remove(addrKey(a))
	s.bumpNonce()
	s.Stats.decAddrs()
}

// ShareAddr returns a shared handle for the address matching the supplied
// index/ip/prefix, or nil if absent or untracked.
func (s *Store) ShareAddr(index int32, ip net.IP, prefixLen uint8) *Handle {
	return s.addrs.Share(fmt.Sprintf("%d/%s/%d", index, ip.String(), prefixLen))
}

// UpsertRoute inserts or replaces a route record.
func (s *Store) UpsertRoute(r *rtnl.Route) {
	s.routes.Upsert(routeKey(r), r)
	s.bumpNonce()
	s.Stats.incRoutes()
}

// RemoveRoute deletes the route record matching r.
func (s *Store) RemoveRoute(r *rtnl.Route) {
	s.routes.Remove(routeKey(r))
	s.bumpNonce()
	s.Stats.decRoutes()
}

// UpsertNeigh inserts or replaces a neighbor cache entry.
func (s *Store) UpsertNeigh(n *rtnl.Neigh) {
	s.neighs.Upsert(neighKey(n), n)
	s.bumpNonce()
	s.Stats.incNeighs()
}

// RemoveNeigh deletes the neighbor entry matching n.
func (s *Store) RemoveNeigh(n *rtnl.Neigh) {
	s.neighs.Remove(neighKey(n))
	s.bumpNonce()
	s.Stats.decNeighs()
}

// ShareNeigh returns a shared handle for the neighbor entry resolving dst on
// the given link index, or nil if absent or untracked.
func (s *Store) ShareNeigh(index int32, dst net.IP) *Handle {
	return s.neighs.Share(fmt.Sprintf("%d/%s", index, dst.String()))
}

// Apply routes a decoded event to the matching per-kind store method,
// generalizing the original msg_handler_internal's per-type dispatch.
func (s *Store) Apply(ev *rtnl.Event) {
	switch rec := ev.Record.(type) {
	case *rtnl.Link:
		if ev.Deleted {
			s.RemoveLink(rec.Index())
		} else {
			s.UpsertLink(rec)
		}
	case *rtnl.Addr:
		if ev.Deleted {
			s.RemoveAddr(rec)
		} else {
			s.UpsertAddr(rec)
		}
	case *rtnl.Route:
		if ev.Deleted {
			s.RemoveRoute(rec)
		} else {
			s.UpsertRoute(rec)
		}
	case *rtnl.Neigh:
		if ev.Deleted {
			s.RemoveNeigh(rec)
		} else {
			s.UpsertNeigh(rec)
		}
	}
}
