package store

import "sync/atomic"

// Stats mirrors the fields of the original netstack_stats struct: live
// object counts plus lifetime event/outcome counters. Each field is updated
// with atomics rather than under a single mutex, since these counters are
// touched from the decode path on every event and read concurrently by
// metrics scraping and user diagnostics.
type Stats struct {
	Links, Addrs, Routes, Neighs int64

	LinkEvents, AddrEvents, RouteEvents, NeighEvents int64

	LookupShares, LookupCopies, LookupFailures, ZombieShares int64

	NetlinkErrors int64
	CallbacksTotal int64
}

func (s *Stats) incLinks()  { atomic.AddInt64(&s.Links, 1); atomic.AddInt64(&s.LinkEvents, 1) }
func (s *Stats) decLinks()  { atomic.AddInt64(&s.Links, -1); atomic.AddInt64(&s.LinkEvents, 1) }
func (s *Stats) incAddrs()  { atomic.AddInt64(&s.Addrs, 1); atomic.AddInt64(&s.AddrEvents, 1) }
func (s *Stats) decAddrs()  { atomic.AddInt64(&s.Addrs, -1); atomic.AddInt64(&s.AddrEvents, 1) }
func (s *Stats) incRoutes() { atomic.AddInt64(&s.Routes, 1); atomic.AddInt64(&s.RouteEvents, 1) }
func (s *Stats) decRoutes() { atomic.AddInt64(&s.Routes, -1); atomic.AddInt64(&s.RouteEvents, 1) }
func (s *Stats) incNeighs() { atomic.AddInt64(&s.Neighs, 1); atomic.AddInt64(&s.NeighEvents, 1) }
func (s *Stats) decNeighs() { atomic.AddInt64(&s.Neighs, -1); atomic.AddInt64(&s.NeighEvents, 1) }

// IncNetlinkErrors records one netlink-level protocol error (NLMSG_ERROR or
// a short/malformed message), the Go analogue of netstack_stats.netlink_errors.
func (s *Stats) IncNetlinkErrors() { atomic.AddInt64(&s.NetlinkErrors, 1) }

// IncCallbacksTotal records one user callback invocation.
func (s *Stats) IncCallbacksTotal() { atomic.AddInt64(&s.CallbacksTotal, 1) }

// IncLookupShare/IncLookupCopy/IncLookupFailure/IncZombieShare record query
// outcomes: a successful Share, a successful Copy, a lookup that found
// nothing, and a Share of a handle whose record has already been removed
// from the live store (it stays valid via refcounting, but is a "zombie").
func (s *Stats) IncLookupShare()   { atomic.AddInt64(&s.LookupShares, 1) }
func (s *Stats) IncLookupCopy()    { atomic.AddInt64(&s.LookupCopies, 1) }
func (s *Stats) IncLookupFailure() { atomic.AddInt64(&s.LookupFailures, 1) }
func (s *Stats) IncZombieShare()   { atomic.AddInt64(&s.ZombieShares, 1) }

// Snapshot returns a copy of the current counters, safe to read without
// racing the atomic writers.
func (s *Stats) Snapshot() Stats {
	return Stats{
		Links: atomic.LoadInt64(&s.Links), Addrs: atomic.LoadInt64(&s.Addrs),
		Routes: atomic.LoadInt64(&s.Routes), Neighs: atomic.LoadInt64(&s.Neighs),
		LinkEvents: atomic.LoadInt64(&s.LinkEvents), AddrEvents: atomic.LoadInt64(&s.AddrEvents),
		RouteEvents: atomic.LoadInt64(&s.RouteEvents), NeighEvents: atomic.LoadInt64(&s.NeighEvents),
		LookupShares: atomic.LoadInt64(&s.LookupShares), LookupCopies: atomic.LoadInt64(&s.LookupCopies),
		LookupFailures: atomic.LoadInt64(&s.LookupFailures), ZombieShares: atomic.LoadInt64(&s.ZombieShares),
		NetlinkErrors: atomic.LoadInt64(&s.NetlinkErrors), CallbacksTotal: atomic.LoadInt64(&s.CallbacksTotal),
	}
}
