// Package rtnl implements the rtnetlink wire codec and record model: parsing
// RTM_NEWLINK/NEWADDR/NEWROUTE/NEWNEIGH (and their DEL counterparts) into
// typed records with lazily-evaluated attribute accessors.
package rtnl

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Attr is a single decoded rtattr: its type and its value bytes (header
// stripped, not alignment-padded).
type Attr struct {
	Type  uint16
	Value []byte
}

// parseAttrs walks a buffer of back-to-back NLA_ALIGNTO-padded rtattrs and
// returns them in wire order. This is the one canonical copy of the
// RTA_OK/RTA_NEXT walk that, in the teacher, was duplicated nearly verbatim
// across inetdiag.ParseRouteAttr, netlink.ParseRouteAttr and
// netlink_linux.ParseRouteAttr (all three credited "Derived from
// github.com/vishvananda/netlink/nl/nl_linux.go"); here it lives once.
func parseAttrs(b []byte) ([]Attr, error) {
	var attrs []Attr
	for len(b) >= unix.SizeofRtAttr {
		a, vbuf, alen, err := rtAttrAndValue(b)
		if err != nil {
			return nil, err
		}
		n := int(a.Len) - unix.SizeofRtAttr
		attrs = append(attrs, Attr{Type: a.Type, Value: vbuf[:n]})
		if alen > len(b) {
			break
		}
		b = b[alen:]
	}
	return attrs, nil
}

func rtAttrAndValue(b []byte) (*unix.RtAttr, []byte, int, error) {
	a := (*unix.RtAttr)(unsafe.Pointer(&b[0]))
	if int(a.Len) < unix.SizeofRtAttr || int(a.Len) > len(b) {
		return nil, nil, 0, unix.EINVAL
	}
	return a, b[unix.SizeofRtAttr:], rtaAlignOf(int(a.Len)), nil
}

// rtaAlignOf rounds attrlen up to the next RTA_ALIGNTO boundary.
func rtaAlignOf(attrlen int) int {
	return (attrlen + unix.RTA_ALIGNTO - 1) & ^(unix.RTA_ALIGNTO - 1)
}

// attrTable is a fixed-size, 1-biased offset index into a decoded attribute
// slice: attrTable[t] == 0 means "type t absent", attrTable[t] == i+1 means
// "attrs[i] is the last attribute seen of type t" (last-write-wins, matching
// the original C index_into_rta convention and the teacher's own
// ParseRouteAttr loop, which does nothing to detect duplicates either).
//
// maxAttr is the compiled-in maximum attribute type this table indexes
// directly; any attribute type >= maxAttr is not dropped, it falls back to a
// linear scan (see scanAttr) and sets overflow.
type attrTable struct {
	offsets  []int
	attrs    []Attr
	overflow bool
}

func newAttrTable(attrs []Attr, maxAttr int) attrTable {
	t := attrTable{offsets: make([]int, maxAttr), attrs: attrs}
	for i, a := range attrs {
		if int(a.Type) < maxAttr {
			t.offsets[a.Type] = i + 1
		} else {
			t.overflow = true
		}
	}
	return t
}

// get returns the attribute value for typ, using the fast offset table when
// typ is in range and falling back to a linear scan when the table
// overflowed (rare: only kernels or attribute types beyond the compiled-in
// maximum trigger it).
func (t attrTable) get(typ uint16) ([]byte, bool) {
	if int(typ) < len(t.offsets) {
		if off := t.offsets[typ]; off != 0 {
			return t.attrs[off-1].Value, true
		}
	}
	if !t.overflow {
		return nil, false
	}
	return t.scanAttr(typ)
}

// scanAttr is the linear-scan fallback used only when overflow is set.
func (t attrTable) scanAttr(typ uint16) ([]byte, bool) {
	var found []byte
	var ok bool
	for _, a := range t.attrs {
		if a.Type == typ {
			found, ok = a.Value, true
		}
	}
	return found, ok
}

func attrUint32(v []byte) (uint32, bool) {
	if len(v) < 4 {
		return 0, false
	}
	return nativeEndian.Uint32(v), true
}

func attrUint16(v []byte) (uint16, bool) {
	if len(v) < 2 {
		return 0, false
	}
	return nativeEndian.Uint16(v), true
}

func attrUint8(v []byte) (uint8, bool) {
	if len(v) < 1 {
		return 0, false
	}
	return v[0], true
}

func attrString(v []byte) (string, bool) {
	if len(v) == 0 {
		return "", false
	}
	n := len(v)
	if v[n-1] == 0 {
		n--
	}
	return string(v[:n]), true
}

// byteSize sums the wire footprint of every attribute (header plus
// alignment-padded value), the per-record half of the original
// netstack_iface_bytes() accounting -- the other half being the fixed-size
// kernel header added by each record's own Size() method.
func (t attrTable) byteSize() int {
	n := 0
	for _, a := range t.attrs {
		n += rtaAlignOf(unix.SizeofRtAttr + len(a.Value))
	}
	return n
}

// keep returns an attrTable containing only the attributes whose type is
// named in types, the primitive behind every record's Minimal() method
// (spec.md §6's MINIMAL enumeration flag: return only the fields essential
// to identify and diff a record, dropping the rest to shrink the copy).
func (t attrTable) keep(maxAttr int, types ...uint16) attrTable {
	wanted := make(map[uint16]bool, len(types))
	for _, typ := range types {
		wanted[typ] = true
	}
	var kept []Attr
	for _, a := range t.attrs {
		if wanted[a.Type] {
			kept = append(kept, a)
		}
	}
	return newAttrTable(kept, maxAttr)
}
