package rtnl

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Neighbor (ARP/NDISC cache entry) attribute types (uapi/linux/neighbour.h).
const (
	NDA_UNSPEC = iota
	NDA_DST
	NDA_LLADDR
	NDA_CACHEINFO
	NDA_PROBES
	NDA_VLAN
	NDA_PORT
	NDA_VNI
	NDA_IFINDEX
	NDA_MASTER
	maxNeighAttr
)

// Neigh is the decoded view of an RTM_NEWNEIGH/RTM_DELNEIGH message.
type Neigh struct {
	Header unix.NdMsg
	attrs  attrTable
}

// DecodeNeigh parses the payload of an RTM_NEWNEIGH/RTM_DELNEIGH message.
func DecodeNeigh(data []byte) (*Neigh, error) {
	hdrLen := int(unsafe_SizeofNdMsg)
	if len(data) < hdrLen {
		return nil, ErrShortMessage
	}
	hdr := *(*unix.NdMsg)(ptr(data))
	attrs, err := parseAttrs(data[rtaAlignOf(hdrLen):])
	if err != nil {
		return nil, err
	}
	return &Neigh{Header: hdr, attrs: newAttrTable(attrs, maxNeighAttr)}, nil
}

// Index returns the owning link's interface index.
func (n *Neigh) Index() uint32 { return uint32(n.Header.Ifindex) }

// Family returns AF_INET or AF_INET6.
func (n *Neigh) Family() uint8 { return n.Header.Family }

// State returns the NUD_* state from the fixed header.
func (n *Neigh) State() NudState { return NudState(n.Header.State) }

// Dst returns NDA_DST, the protocol address this entry resolves, if present.
func (n *Neigh) Dst() (net.IP, bool) {
	v, ok := n.attrs.get(NDA_DST)
	if !ok {
		return nil, false
	}
	switch n.Header.Family {
	case unix.AF_INET:
		if len(v) < 4 {
			return nil, false
		}
		return net.IP(v[:4]), true
	case unix.AF_INET6:
		if len(v) < 16 {
			return nil, false
		}
		return net.IP(v[:16]), true
	default:
		return nil, false
	}
}

// LLAddr returns NDA_LLADDR, the resolved link-layer address, if present.
func (n *Neigh) LLAddr() ([]byte, bool) {
	return n.attrs.get(NDA_LLADDR)
}

// Size returns the record's wire-footprint in bytes: the fixed NdMsg header
// plus every decoded attribute.
func (n *Neigh) Size() int {
	return int(unsafe_SizeofNdMsg) + n.attrs.byteSize()
}

// Minimal returns a copy of n retaining only the attributes needed to
// identify it -- destination and link-layer address -- for the MINIMAL
// enumeration flag.
func (n *Neigh) Minimal() *Neigh {
	cp := *n
	cp.attrs = n.attrs.keep(maxNeighAttr, NDA_DST, NDA_LLADDR)
	return &cp
}

// NudState is the NUD_* neighbor cache state bitmask (uapi/linux/neighbour.h).
// It is a bitmask in the kernel, but in practice an entry reports exactly one
// bit at a time, so String() treats it as an enum, matching the original
// netstack_nudstate pretty-printer's behavior.
type NudState uint16

const (
	NUD_NONE      NudState = 0x00
	NUD_INCOMPLETE NudState = 0x01
	NUD_REACHABLE NudState = 0x02
	NUD_STALE     NudState = 0x04
	NUD_DELAY     NudState = 0x08
	NUD_PROBE     NudState = 0x10
	NUD_FAILED    NudState = 0x20
	NUD_NOARP     NudState = 0x40
	NUD_PERMANENT NudState = 0x80
)

var nudStateName = map[NudState]string{
	NUD_NONE: "NONE", NUD_INCOMPLETE: "INCOMPLETE", NUD_REACHABLE: "REACHABLE",
	NUD_STALE: "STALE", NUD_DELAY: "DELAY", NUD_PROBE: "PROBE",
	NUD_FAILED: "FAILED", NUD_NOARP: "NOARP", NUD_PERMANENT: "PERMANENT",
}

func (s NudState) String() string {
	if n, ok := nudStateName[s]; ok {
		return n
	}
	return fmt.Sprintf("NUD_%#x", uint16(s))
}
