package rtnl

import (
	"net"

	"golang.org/x/sys/unix"
)

// Address attribute types (uapi/linux/if_addr.h).
const (
	IFA_UNSPEC = iota
	IFA_ADDRESS
	IFA_LOCAL
	IFA_LABEL
	IFA_BROADCAST
	IFA_ANYCAST
	IFA_CACHEINFO
	IFA_MULTICAST
	IFA_FLAGS
	maxAddrAttr
)

// Addr is the decoded view of an RTM_NEWADDR/RTM_DELADDR message.
type Addr struct {
	Header unix.IfAddrmsg
	attrs  attrTable
}

// DecodeAddr parses the payload of an RTM_NEWADDR/RTM_DELADDR message.
func DecodeAddr(data []byte) (*Addr, error) {
	hdrLen := int(unsafe_SizeofIfAddrmsg)
	if len(data) < hdrLen {
		return nil, ErrShortMessage
	}
	hdr := *(*unix.IfAddrmsg)(ptr(data))
	attrs, err := parseAttrs(data[rtaAlignOf(hdrLen):])
	if err != nil {
		return nil, err
	}
	return &Addr{Header: hdr, attrs: newAttrTable(attrs, maxAddrAttr)}, nil
}

// Index returns the owning link's interface index.
func (a *Addr) Index() int32 { return int32(a.Header.Index) }

// PrefixLen returns the address prefix length from the fixed header.
func (a *Addr) PrefixLen() uint8 { return a.Header.Prefixlen }

// Family returns AF_INET or AF_INET6 from the fixed header.
func (a *Addr) Family() uint8 { return a.Header.Family }

// Address returns IFA_ADDRESS (the prefix address, or the peer address for
// point-to-point links), parsed as a net.IP using this record's family.
func (a *Addr) Address() (net.IP, bool) {
	return a.ipAttr(IFA_ADDRESS)
}

// Local returns IFA_LOCAL, the local address, if present.
func (a *Addr) Local() (net.IP, bool) {
	return a.ipAttr(IFA_LOCAL)
}

// Label returns IFA_LABEL (e.g. "eth0:1"), if present.
func (a *Addr) Label() (string, bool) {
	v, ok := a.attrs.get(IFA_LABEL)
	if !ok {
		return "", false
	}
	return attrString(v)
}

// Size returns the record's wire-footprint in bytes: the fixed IfAddrmsg
// header plus every decoded attribute.
func (a *Addr) Size() int {
	return int(unsafe_SizeofIfAddrmsg) + a.attrs.byteSize()
}

// Minimal returns a copy of a retaining only the attributes needed to
// identify it -- address, local address and label -- for the MINIMAL
// enumeration flag.
func (a *Addr) Minimal() *Addr {
	cp := *a
	cp.attrs = a.attrs.keep(maxAddrAttr, IFA_ADDRESS, IFA_LOCAL, IFA_LABEL)
	return &cp
}

func (a *Addr) ipAttr(typ uint16) (net.IP, bool) {
	v, ok := a.attrs.get(typ)
	if !ok {
		return nil, false
	}
	switch a.Header.Family {
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
