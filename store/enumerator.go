package store

import (
	"errors"
	"sort"

	"github.com/m-lab/netstack/rtnl"
)

// EnumerateMode selects how Enumerate behaves when the store mutates while
// an enumeration is in progress, mirroring the original ATOMIC/ABORT flags.
type EnumerateMode int

const (
	// ModeStreaming returns a best-effort snapshot: if the store's mutation
	// nonce advances mid-enumeration, already-yielded records are not
	// retracted, but the caller should not assume the result is
	// self-consistent at a single instant.
	ModeStreaming EnumerateMode = iota
	// ModeAtomic requires the mutation nonce to be unchanged from start to
	// finish; Enumerate retries internally up to a bounded number of times
	// and returns ErrEnumerateUnstable if the store keeps mutating.
	ModeAtomic
)

// ErrEnumerateUnstable is returned by Enumerate in ModeAtomic when the store
// could not be observed in a stable state within the retry budget.
var ErrEnumerateUnstable = errors.New("store: could not obtain a stable atomic enumeration")

const maxAtomicRetries = 8

// Enumerator is returned by Enumerate and tracks the nonce an atomic
// enumeration was taken against, mirroring the original netstack_enumerator
// {nonce, slot, hnext} struct: Go callers don't need the slot/hnext cursor
// fields since Enumerate returns a fully materialized slice rather than a
// C-style "fill this buffer, call again for the next slot" iterator.
type Enumerator struct {
	Nonce uint64
}

// EnumerateLinks returns every currently-tracked link. In ModeAtomic it
// retries internally if the store mutates mid-copy.
func (s *Store) EnumerateLinks(mode EnumerateMode) ([]*rtnl.Link, *Enumerator, error) {
	for attempt := 0; ; attempt++ {
		before := s.currentNonce()
		s.hashlock.RLock()
		out := make([]*rtnl.Link, 0, len(s.byIndex))
		for _, h := range s.byIndex {
			out = append(out, h.Record())
		}
		s.hashlock.RUnlock()
		after := s.currentNonce()
		if mode == ModeStreaming || before == after {
			return out, &Enumerator{Nonce: after}, nil
		}
		if attempt >= maxAtomicRetries {
			return nil, nil, ErrEnumerateUnstable
		}
	}
}

// EnumerateAddrs, EnumerateRoutes and EnumerateNeighs are EnumerateLinks's
// counterparts for the non-Link kinds.
func (s *Store) EnumerateAddrs(mode EnumerateMode) ([]*rtnl.Addr, *Enumerator, error) {
	recs, en, err := enumerateKind(s, &s.addrs, mode)
	if err != nil {
		return nil, nil, err
	}
	out := make([]*rtnl.Addr, len(recs))
	for i, r := range recs {
		out[i] = r.(*rtnl.Addr)
	}
	return out, en, nil
}

func (s *Store) EnumerateRoutes(mode EnumerateMode) ([]*rtnl.Route, *Enumerator, error) {
	recs, en, err := enumerateKind(s, &s.routes, mode)
	if err != nil {
		return nil, nil, err
	}
	out := make([]*rtnl.Route, len(recs))
	for i, r := range recs {
		out[i] = r.(*rtnl.Route)
	}
	return out, en, nil
}

func (s *Store) EnumerateNeighs(mode EnumerateMode) ([]*rtnl.Neigh, *Enumerator, error) {
	recs, en, err := enumerateKind(s, &s.neighs, mode)
	if err != nil {
		return nil, nil, err
	}
	out := make([]*rtnl.Neigh, len(recs))
	for i, r := range recs {
		out[i] = r.(*rtnl.Neigh)
	}
	return out, en, nil
}

func enumerateKind(s *Store, k *kindStore, mode EnumerateMode) ([]interface{}, *Enumerator, error) {
	for attempt := 0; ; attempt++ {
		before := s.currentNonce()
		out := k.snapshot()
		after := s.currentNonce()
		if mode == ModeStreaming || before == after {
			return out, &Enumerator{Nonce: after}, nil
		}
		if attempt >= maxAtomicRetries {
			return nil, nil, ErrEnumerateUnstable
		}
	}
}

// EnumerateFlags is a bitmask of the three enumeration modifiers from
// spec.md §6: ATOMIC (fail rather than return a partial result if the
// buffer budget is insufficient), MINIMAL (copy only the essential fields
// of each record) and ABORT (terminate an in-progress Cursor without
// copying anything). The flags are mutually exclusive with their own
// rules: ABORT combined with anything else is invalid, and ABORT requires
// a non-null Cursor.
type EnumerateFlags uint8

const (
	FlagAtomic EnumerateFlags = 1 << iota
	FlagMinimal
	FlagAbort
)

// ErrInvalidEnumerateFlags is returned when FlagAbort is combined with any
// other flag, or used without a Cursor.
var ErrInvalidEnumerateFlags = errors.New("store: ABORT must be the only flag set, and requires a non-nil Cursor")

// ErrInvalidEnumerateCount is returned when maxCount is negative.
var ErrInvalidEnumerateCount = errors.New("store: enumeration count must not be negative")

// ErrEnumerateBufferTooSmall is returned in ATOMIC mode when the store's
// current footprint exceeds maxBytes; the original library reported the
// same condition by writing the required sizes back into the caller's *n
// and *b and returning a negative count.
var ErrEnumerateBufferTooSmall = errors.New("store: ATOMIC enumeration exceeds the caller's buffer budget")

// Cursor is a caller-held, resumable position into one kind's enumeration,
// the Go analogue of the original netstack_enumerator{nonce, slot, hnext}
// "streamer": instead of a saved hash-table slot and chain pointer, a
// Cursor holds a position into a deterministically ordered snapshot taken
// on its first use, plus the nonce observed at that point so a later call
// can detect that the store mutated in between. The zero value is a fresh,
// unstarted cursor.
type Cursor struct {
	started bool
	nonce   uint64
	pos     int
}

// Done reports whether c has been fully drained (or was never started).
func (c *Cursor) Done() bool { return !c.started }

func validateEnumerateArgs(maxCount int, flags EnumerateFlags, cur *Cursor) error {
	if maxCount < 0 {
		return ErrInvalidEnumerateCount
	}
	if flags&FlagAbort != 0 {
		if flags != FlagAbort || cur == nil {
			return ErrInvalidEnumerateFlags
		}
	}
	return nil
}

// enumerateCursor advances cur over items, a deterministically ordered
// snapshot the caller already took under its own lock. A nil cur selects
// atomic, single-call semantics (all items, or ErrEnumerateBufferTooSmall
// under FlagAtomic if their total size exceeds maxBytes); a non-nil cur
// selects streaming semantics, returning up to maxCount items (0 means
// unlimited) whose sizes sum to at most maxBytes (0 means unlimited) --
// except that the first item of a call is always returned, even if its
// size alone exceeds maxBytes -- and failing with ErrEnumerateUnstable if
// nonce disagrees with a previously recorded value.
func enumerateCursor(items []interface{}, size func(interface{}) int, nonce uint64, cur *Cursor, maxCount, maxBytes int, flags EnumerateFlags) ([]interface{}, error) {
	if err := validateEnumerateArgs(maxCount, flags, cur); err != nil {
		return nil, err
	}
	if flags&FlagAbort != 0 {
		*cur = Cursor{}
		return nil, nil
	}

	if cur == nil {
		if flags&FlagAtomic != 0 && maxBytes > 0 {
			total := 0
			for _, it := range items {
				total += size(it)
			}
			if total > maxBytes {
				return nil, ErrEnumerateBufferTooSmall
			}
		}
		return items, nil
	}

	if cur.started && cur.nonce != nonce {
		return nil, ErrEnumerateUnstable
	}
	if !cur.started {
		cur.started = true
		cur.nonce = nonce
	}

	start := cur.pos
	if start >= len(items) {
		*cur = Cursor{}
		return nil, nil
	}
	end := len(items)
	if maxCount > 0 && start+maxCount < end {
		end = start + maxCount
	}
	if maxBytes > 0 {
		used, i := 0, start
		for i < end {
			n := size(items[i])
			if used+n > maxBytes && i > start {
				break
			}
			used += n
			i++
		}
		end = i
	}

	out := items[start:end]
	cur.pos = end
	if cur.pos >= len(items) {
		*cur = Cursor{}
	}
	return out, nil
}

func linkSize(v interface{}) int  { return v.(*rtnl.Link).Size() }
func addrSize(v interface{}) int  { return v.(*rtnl.Addr).Size() }
func routeSize(v interface{}) int { return v.(*rtnl.Route).Size() }
func neighSize(v interface{}) int { return v.(*rtnl.Neigh).Size() }

// sortedLinksSnapshot returns every tracked link ordered by index, giving
// Cursor-based enumeration a stable iteration order across calls despite
// Go's randomized map iteration.
func (s *Store) sortedLinksSnapshot() []interface{} {
	s.hashlock.RLock()
	defer s.hashlock.RUnlock()
	out := make([]*rtnl.Link, 0, len(s.byIndex))
	for _, h := range s.byIndex {
		out = append(out, h.Record())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	ifaces := make([]interface{}, len(out))
	for i, l := range out {
		ifaces[i] = l
	}
	return ifaces
}

// sortedSnapshot is kindStore.snapshot with its keys sorted for a stable
// iteration order across Cursor calls.
func (k *kindStore) sortedSnapshot() []interface{} {
	k.mu.RLock()
	defer k.mu.RUnlock()
	keys := make([]string, 0, len(k.byKey))
	for key := range k.byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]interface{}, len(keys))
	for i, key := range keys {
		out[i] = k.byKey[key].Record()
	}
	return out
}

// EnumerateLinksCursor returns up to maxCount links (0 = unlimited)
// resuming from cur (nil selects single-call atomic semantics). FlagMinimal
// strips each returned record down to its essential fields.
func (s *Store) EnumerateLinksCursor(cur *Cursor, maxCount, maxBytes int, flags EnumerateFlags) ([]*rtnl.Link, error) {
	items, err := enumerateCursor(s.sortedLinksSnapshot(), linkSize, s.currentNonce(), cur, maxCount, maxBytes, flags)
	if err != nil {
		return nil, err
	}
	out := make([]*rtnl.Link, len(items))
	for i, it := range items {
		l := it.(*rtnl.Link)
		if flags&FlagMinimal != 0 {
			l = l.Minimal()
		}
		out[i] = l
	}
	return out, nil
}

// EnumerateAddrsCursor is EnumerateLinksCursor for addresses.
func (s *Store) EnumerateAddrsCursor(cur *Cursor, maxCount, maxBytes int, flags EnumerateFlags) ([]*rtnl.Addr, error) {
	items, err := enumerateCursor(s.addrs.sortedSnapshot(), addrSize, s.currentNonce(), cur, maxCount, maxBytes, flags)
	if err != nil {
		return nil, err
	}
	out := make([]*rtnl.Addr, len(items))
	for i, it := range items {
		a := it.(*rtnl.Addr)
		if flags&FlagMinimal != 0 {
			a = a.Minimal()
		}
		out[i] = a
	}
	return out, nil
}

// EnumerateRoutesCursor is EnumerateLinksCursor for routes.
func (s *Store) EnumerateRoutesCursor(cur *Cursor, maxCount, maxBytes int, flags EnumerateFlags) ([]*rtnl.Route, error) {
	items, err := enumerateCursor(s.routes.sortedSnapshot(), routeSize, s.currentNonce(), cur, maxCount, maxBytes, flags)
	if err != nil {
		return nil, err
	}
	out := make([]*rtnl.Route, len(items))
	for i, it := range items {
		r := it.(*rtnl.Route)
		if flags&FlagMinimal != 0 {
			r = r.Minimal()
		}
		out[i] = r
	}
	return out, nil
}

// EnumerateNeighsCursor is EnumerateLinksCursor for neighbor entries.
func (s *Store) EnumerateNeighsCursor(cur *Cursor, maxCount, maxBytes int, flags EnumerateFlags) ([]*rtnl.Neigh, error) {
	items, err := enumerateCursor(s.neighs.sortedSnapshot(), neighSize, s.currentNonce(), cur, maxCount, maxBytes, flags)
	if err != nil {
		return nil, err
	}
	out := make([]*rtnl.Neigh, len(items))
	for i, it := range items {
		n := it.(*rtnl.Neigh)
		if flags&FlagMinimal != 0 {
			n = n.Minimal()
		}
		out[i] = n
	}
	return out, nil
}
