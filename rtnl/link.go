package rtnl

import "golang.org/x/sys/unix"

// Link attribute types this package indexes directly (uapi/linux/if_link.h).
// Anything at or above maxLinkAttr still decodes, via the attrTable overflow
// scan path.
const (
	IFLA_UNSPEC = iota
	IFLA_ADDRESS
	IFLA_BROADCAST
	IFLA_IFNAME
	IFLA_MTU
	IFLA_LINK
	IFLA_QDISC
	IFLA_STATS
	IFLA_COST
	IFLA_PRIORITY
	IFLA_MASTER
	IFLA_WIRELESS
	IFLA_PROTINFO
	IFLA_TXQLEN
	IFLA_MAP
	IFLA_WEIGHT
	IFLA_OPERSTATE
	IFLA_LINKMODE
	IFLA_LINKINFO
	IFLA_NET_NS_PID
	IFLA_IFALIAS
	IFLA_NUM_VF
	IFLA_VFINFO_LIST
	IFLA_STATS64
	IFLA_VF_PORTS
	IFLA_PORT_SELF
	IFLA_AF_SPEC
	IFLA_GROUP
	IFLA_NET_NS_FD
	IFLA_EXT_MASK
	IFLA_PROMISCUITY
	IFLA_NUM_TX_QUEUES
	IFLA_NUM_RX_QUEUES
	IFLA_CARRIER
	IFLA_PHYS_PORT_ID
	IFLA_CARRIER_CHANGES
	IFLA_PHYS_SWITCH_ID
	IFLA_LINK_NETNSID
	IFLA_PHYS_PORT_NAME
	IFLA_PROTO_DOWN
	IFLA_GSO_MAX_SEGS
	IFLA_GSO_MAX_SIZE
	maxLinkAttr
)

// Link is the decoded, immutable view of a single RTM_NEWLINK message: the
// fixed kernel header plus an attribute table over the TLV block that
// followed it. It is shared (reference-counted) by store.LinkHandle, never
// mutated after construction.
type Link struct {
	Header unix.IfInfomsg
	attrs  attrTable
}

// DecodeLink parses the payload of an RTM_NEWLINK/RTM_DELLINK message (the
// IfInfomsg header followed by a run of rtattrs) into a Link.
func DecodeLink(data []byte) (*Link, error) {
	hdrLen := int(unsafe_SizeofIfInfomsg)
	if len(data) < hdrLen {
		return nil, ErrShortMessage
	}
	hdr := *(*unix.IfInfomsg)(ptr(data))
	attrs, err := parseAttrs(data[rtaAlignOf(hdrLen):])
	if err != nil {
		return nil, err
	}
	return &Link{Header: hdr, attrs: newAttrTable(attrs, maxLinkAttr)}, nil
}

// Index returns the interface index from the fixed header.
func (l *Link) Index() int32 { return l.Header.Index }

// Name returns IFLA_IFNAME, if present.
func (l *Link) Name() (string, bool) {
	v, ok := l.attrs.get(IFLA_IFNAME)
	if !ok {
		return "", false
	}
	return attrString(v)
}

// MTU returns IFLA_MTU, if present.
func (l *Link) MTU() (uint32, bool) {
	v, ok := l.attrs.get(IFLA_MTU)
	if !ok {
		return 0, false
	}
	return attrUint32(v)
}

// HardwareAddr returns IFLA_ADDRESS, the raw link-layer address bytes.
func (l *Link) HardwareAddr() ([]byte, bool) {
	return l.attrs.get(IFLA_ADDRESS)
}

// OperState returns IFLA_OPERSTATE (RFC 2863 IF_OPER_* codes).
func (l *Link) OperState() (OperState, bool) {
	v, ok := l.attrs.get(IFLA_OPERSTATE)
	if !ok {
		return 0, false
	}
	b, ok := attrUint8(v)
	return OperState(b), ok
}

// Up reports whether IFF_UP is set in the header flags.
func (l *Link) Up() bool { return l.Header.Flags&unix.IFF_UP != 0 }

// OperStateOrUnknown is OperState with the "absent" case folded into
// OperUnknown, convenient for one-line diagnostic printing.
func (l *Link) OperStateOrUnknown() OperState {
	s, ok := l.OperState()
	if !ok {
		return OperUnknown
	}
	return s
}

// QueueCounts mirrors the original netstack_iface_qcounts accessor. RXQueues
// and TXQueues come from IFLA_NUM_RX_QUEUES/IFLA_NUM_TX_QUEUES; a field whose
// attribute is absent, and Combined and XDP (which no indexed rtattr
// reports), hold the -1 sentinel the original C API used for "not reported".
type QueueCounts struct {
	RXQueues, TXQueues, Combined, XDP int
}

// QueueCounts returns the link's queue counts; see QueueCounts doc.
func (l *Link) QueueCounts() QueueCounts {
	qc := QueueCounts{RXQueues: -1, TXQueues: -1, Combined: -1, XDP: -1}
	if v, ok := l.attrs.get(IFLA_NUM_RX_QUEUES); ok {
		if n, ok := attrUint32(v); ok {
			qc.RXQueues = int(n)
		}
	}
	if v, ok := l.attrs.get(IFLA_NUM_TX_QUEUES); ok {
		if n, ok := attrUint32(v); ok {
			qc.TXQueues = int(n)
		}
	}
	return qc
}

// Size returns the record's wire-footprint in bytes: the fixed IfInfomsg
// header plus every decoded attribute, the Link half of the store's bytes
// accounting (netstack_iface_bytes() in the original).
func (l *Link) Size() int {
	return int(unsafe_SizeofIfInfomsg) + l.attrs.byteSize()
}

// Minimal returns a copy of l retaining only the attributes needed to
// identify and diff a link -- name, MTU, hardware address and operstate --
// for the MINIMAL enumeration flag.
func (l *Link) Minimal() *Link {
	cp := *l
	cp.attrs = l.attrs.keep(maxLinkAttr, IFLA_IFNAME, IFLA_MTU, IFLA_ADDRESS, IFLA_OPERSTATE)
	return &cp
}
