// Package store keeps the live, thread-safe, indexed mirror of decoded
// rtnetlink records: one hash-locked table of links keyed by index and name,
// plus per-kind maps of addresses, routes and neighbors keyed by their
// identifying fields. It hands out reference-counted handles instead of raw
// pointers, and supports both streaming and atomic bulk enumeration.
package store

import (
	"sync"
	"sync/atomic"

	"github.com/m-lab/netstack/rtnl"
)

// LinkHandle is a reference-counted handle onto a *rtnl.Link. Handles are
// returned by ShareByIndex/ShareByName/ShareHandle (aliasing the same
// underlying record, refcount bumped); CopyByIndex returns a bare *rtnl.Link,
// not a handle. Callers must call Release on a handle when done; the underlying record is freed once its refcount
// reaches zero, the same share/copy/abandon discipline as the original
// netstack_iface_share/copy/abandon family.
type LinkHandle struct {
	mu   sync.Mutex
	refc int32
	rec  *rtnl.Link
}

func newLinkHandle(rec *rtnl.Link) *LinkHandle {
	return &LinkHandle{refc: 1, rec: rec}
}

// Record returns the underlying decoded link. The returned pointer is valid
// only while the handle's refcount has not dropped to zero.
func (h *LinkHandle) Record() *rtnl.Link {
	return h.rec
}

func (h *LinkHandle) share() *LinkHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refc++
	return h
}

// Release drops one reference. It is safe to call from inside or outside a
// callback, matching the original library's documented abandon semantics.
func (h *LinkHandle) Release() {
	h.mu.Lock()
	h.refc--
	dead := h.refc <= 0
	h.mu.Unlock()
	if dead {
		h.rec = nil
	}
}

// Store is the object store for one network namespace's rtnetlink mirror.
// The Link table is guarded by its own lock (the "hashlock" in spec terms);
// the non-Link per-kind tables are each guarded by their own lock, exactly
// as SPEC_FULL.md's §4.4 calls for -- only Links use the name "hashlock".
type Store struct {
	hashlock sync.RWMutex
	byIndex  map[int32]*LinkHandle
	byName   map[string]*LinkHandle

	addrs  kindStore
	routes kindStore
	neighs kindStore

	nonce     uint64
	nmu       sync.Mutex
	linkTrack bool
	Stats     Stats

	// bytes is the running total wire-footprint of every cached Link record
	// (addresses, routes and neighbors are not counted, matching the
	// original netstack_iface_bytes()'s link-table-only scope). Updated with
	// atomics since UpsertLink/RemoveLink only hold hashlock, not nmu.
	bytes int64
}

// SetLinkTracking configures whether the Link store retains records; false
// makes UpsertLink a no-op, the Link-kind analogue of kindStore.track.
func (s *Store) SetLinkTracking(tracked bool) {
	s.hashlock.Lock()
	s.linkTrack = tracked
	s.hashlock.Unlock()
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byIndex:   make(map[int32]*LinkHandle),
		byName:    make(map[string]*LinkHandle),
		addrs:     newKindStore(),
		routes:    newKindStore(),
		neighs:    newKindStore(),
		linkTrack: true,
	}
}

// UpsertLink inserts or replaces the link at rec.Index(), bumping the
// mutation nonce so in-flight streaming enumerations notice the change.
func (s *Store) UpsertLink(rec *rtnl.Link) {
	h := newLinkHandle(rec)
	s.hashlock.Lock()
	if !s.linkTrack {
		s.hashlock.Unlock()
		return
	}
	if old, ok := s.byIndex[rec.Index()]; ok {
		if name, ok := old.Record().Name(); ok {
			delete(s.byName, name)
		}
		atomic.AddInt64(&s.bytes, -int64(old.Record().Size()))
	}
	s.byIndex[rec.Index()] = h
	if name, ok := rec.Name(); ok {
		s.byName[name] = h
	}
	atomic.AddInt64(&s.bytes, int64(rec.Size()))
	s.hashlock.Unlock()
	s.bumpNonce()
	s.Stats.incLinks()
}

// RemoveLink deletes the link at index idx, if present.
func (s *Store) RemoveLink(idx int32) {
	s.hashlock.Lock()
	if old, ok := s.byIndex[idx]; ok {
		if name, ok := old.Record().Name(); ok {
			delete(s.byName, name)
		}
		delete(s.byIndex, idx)
		atomic.AddInt64(&s.bytes, -int64(old.Record().Size()))
	}
	s.hashlock.Unlock()
	s.bumpNonce()
	s.Stats.decLinks()
}

// ShareByIndex returns a shared handle for the link at idx, bumping its
// refcount, or nil if absent. Two calls for the same still-live index return
// handles over the identical underlying record, matching idxlookup.cpp's
// "repeat lookup returns identical pointer" contract.
func (s *Store) ShareByIndex(idx int32) *LinkHandle {
	s.hashlock.RLock()
	defer s.hashlock.RUnlock()
	h, ok := s.byIndex[idx]
	if !ok {
		return nil
	}
	return h.share()
}

// ShareByName is ShareByIndex keyed by interface name instead of index.
func (s *Store) ShareByName(name string) *LinkHandle {
	s.hashlock.RLock()
	defer s.hashlock.RUnlock()
	h, ok := s.byName[name]
	if !ok {
		return nil
	}
	return h.share()
}

// CopyByIndex returns a new *rtnl.Link copied from the link at idx, or nil if
// absent. The returned value is a distinct pointer with its own copy of the
// fixed header; its attribute table and attribute value bytes are shared
// with the stored record, not duplicated.
func (s *Store) CopyByIndex(idx int32) *rtnl.Link {
	s.hashlock.RLock()
	defer s.hashlock.RUnlock()
	h, ok := s.byIndex[idx]
	if !ok {
		return nil
	}
	cp := *h.Record()
	return &cp
}

// Bytes returns the current aggregate wire footprint of every cached Link
// record, the Go analogue of the original netstack_iface_bytes() query.
func (s *Store) Bytes() int64 {
	return atomic.LoadInt64(&s.bytes)
}

// Count returns the number of links currently indexed.
func (s *Store) Count() int {
	s.hashlock.RLock()
	defer s.hashlock.RUnlock()
	return len(s.byIndex)
}

// ShareHandle re-shares an already-held LinkHandle, bumping its refcount
// exactly like ShareByIndex/ShareByName. Unlike those two, the caller
// supplies the handle directly rather than a lookup key -- the case that
// matters is a handle whose underlying link has since been removed from the
// index (old.Record() is no longer the live byIndex entry, or there is no
// live entry at all): the handle is still valid via refcounting, but the
// share is a "zombie share" of data the store no longer tracks, and is
// counted as one via Stats.IncZombieShare.
func (s *Store) ShareHandle(h *LinkHandle) *LinkHandle {
	s.hashlock.RLock()
	live, ok := s.byIndex[h.Record().Index()]
	s.hashlock.RUnlock()
	if !ok || live != h {
		s.Stats.IncZombieShare()
	}
	return h.share()
}

func (s *Store) bumpNonce() {
	s.nmu.Lock()
	s.nonce++
	s.nmu.Unlock()
}

func (s *Store) currentNonce() uint64 {
	s.nmu.Lock()
	defer s.nmu.Unlock()
	return s.nonce
}
