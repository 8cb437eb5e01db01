package rtnl

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Route attribute types (uapi/linux/rtnetlink.h).
const (
	RTA_UNSPEC = iota
	RTA_DST
	RTA_SRC
	RTA_IIF
	RTA_OIF
	RTA_GATEWAY
	RTA_PRIORITY
	RTA_PREFSRC
	RTA_METRICS
	RTA_MULTIPATH
	RTA_PROTOINFO
	RTA_FLOW
	RTA_CACHEINFO
	RTA_SESSION
	RTA_MP_ALGO
	RTA_TABLE
	RTA_MARK
	RTA_MFC_STATS
	RTA_VIA
	RTA_NEWDST
	RTA_PREF
	maxRouteAttr
)

// Route is the decoded view of an RTM_NEWROUTE/RTM_DELROUTE message.
type Route struct {
	Header unix.RtMsg
	attrs  attrTable
}

// DecodeRoute parses the payload of an RTM_NEWROUTE/RTM_DELROUTE message.
func DecodeRoute(data []byte) (*Route, error) {
	hdrLen := int(unsafe_SizeofRtMsg)
	if len(data) < hdrLen {
		return nil, ErrShortMessage
	}
	hdr := *(*unix.RtMsg)(ptr(data))
	attrs, err := parseAttrs(data[rtaAlignOf(hdrLen):])
	if err != nil {
		return nil, err
	}
	return &Route{Header: hdr, attrs: newAttrTable(attrs, maxRouteAttr)}, nil
}

// Family, Table, Protocol, Scope, Type return fields of the fixed header.
func (r *Route) Family() uint8   { return r.Header.Family }
func (r *Route) Table() uint8    { return r.Header.Table }
func (r *Route) Protocol() uint8 { return r.Header.Protocol }
func (r *Route) Scope() RouteScope { return RouteScope(r.Header.Scope) }
func (r *Route) Type() RouteType   { return RouteType(r.Header.Type) }

// DstLen returns the destination prefix length.
func (r *Route) DstLen() uint8 { return r.Header.Dst_len }

// Dst returns RTA_DST, the destination prefix, if present (absent means the
// default route for this table/family).
func (r *Route) Dst() (net.IP, bool) { return r.ipAttr(RTA_DST) }

// Gateway returns RTA_GATEWAY, if present.
func (r *Route) Gateway() (net.IP, bool) { return r.ipAttr(RTA_GATEWAY) }

// OIF returns RTA_OIF, the outgoing interface index.
func (r *Route) OIF() (int32, bool) {
	v, ok := r.attrs.get(RTA_OIF)
	if !ok {
		return 0, false
	}
	u, ok := attrUint32(v)
	return int32(u), ok
}

// Priority returns RTA_PRIORITY (route metric), if present.
func (r *Route) Priority() (uint32, bool) {
	v, ok := r.attrs.get(RTA_PRIORITY)
	if !ok {
		return 0, false
	}
	return attrUint32(v)
}

// Metric returns RTA_METRICS read as a scalar int32. Real kernels actually
// nest RTAX_* sub-attributes inside RTA_METRICS; this accessor does a
// best-effort flat read and is not a substitute for parsing the nested
// attribute, which this package does not currently do.
func (r *Route) Metric() (int32, bool) {
	v, ok := r.attrs.get(RTA_METRICS)
	if !ok {
		return 0, false
	}
	u, ok := attrUint32(v)
	return int32(u), ok
}

// Size returns the record's wire-footprint in bytes: the fixed RtMsg header
// plus every decoded attribute.
func (r *Route) Size() int {
	return int(unsafe_SizeofRtMsg) + r.attrs.byteSize()
}

// Minimal returns a copy of r retaining only the attributes needed to
// identify it -- destination, gateway and outgoing interface -- for the
// MINIMAL enumeration flag.
func (r *Route) Minimal() *Route {
	cp := *r
	cp.attrs = r.attrs.keep(maxRouteAttr, RTA_DST, RTA_GATEWAY, RTA_OIF)
	return &cp
}

func (r *Route) ipAttr(typ uint16) (net.IP, bool) {
	v, ok := r.attrs.get(typ)
	if !ok {
		return nil, false
	}
	switch r.Header.Family {
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

// RouteType is RTN_* from uapi/linux/rtnetlink.h.
type RouteType uint8

const (
	RTN_UNSPEC RouteType = iota
	RTN_UNICAST
	RTN_LOCAL
	RTN_BROADCAST
	RTN_ANYCAST
	RTN_MULTICAST
	RTN_BLACKHOLE
	RTN_UNREACHABLE
	RTN_PROHIBIT
	RTN_THROW
	RTN_NAT
	RTN_XRESOLVE
)

var routeTypeName = map[RouteType]string{
	RTN_UNSPEC: "UNSPEC", RTN_UNICAST: "UNICAST", RTN_LOCAL: "LOCAL",
	RTN_BROADCAST: "BROADCAST", RTN_ANYCAST: "ANYCAST", RTN_MULTICAST: "MULTICAST",
	RTN_BLACKHOLE: "BLACKHOLE", RTN_UNREACHABLE: "UNREACHABLE", RTN_PROHIBIT: "PROHIBIT",
	RTN_THROW: "THROW", RTN_NAT: "NAT", RTN_XRESOLVE: "XRESOLVE",
}

func (t RouteType) String() string {
	if n, ok := routeTypeName[t]; ok {
		return n
	}
	return fmt.Sprintf("RTN_%d", uint8(t))
}

// RouteScope is RT_SCOPE_* from uapi/linux/rtnetlink.h.
type RouteScope uint8

const (
	RT_SCOPE_UNIVERSE RouteScope = 0
	RT_SCOPE_SITE     RouteScope = 200
	RT_SCOPE_LINK     RouteScope = 253
	RT_SCOPE_HOST     RouteScope = 254
	RT_SCOPE_NOWHERE  RouteScope = 255
)

var routeScopeName = map[RouteScope]string{
	RT_SCOPE_UNIVERSE: "UNIVERSE", RT_SCOPE_SITE: "SITE", RT_SCOPE_LINK: "LINK",
	RT_SCOPE_HOST: "HOST", RT_SCOPE_NOWHERE: "NOWHERE",
}

func (s RouteScope) String() string {
	if n, ok := routeScopeName[s]; ok {
		return n
	}
	return fmt.Sprintf("SCOPE_%d", uint8(s))
}
