package rtnl

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Kind identifies which record type a decoded message carries.
type Kind int

const (
	KindLink Kind = iota
	KindAddr
	KindRoute
	KindNeigh
)

func (k Kind) String() string {
	switch k {
	case KindLink:
		return "link"
	case KindAddr:
		return "addr"
	case KindRoute:
		return "route"
	case KindNeigh:
		return "neigh"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrUnhandledType is returned by Decode for message types this package does
// not dispatch (anything outside the RTM_{NEW,DEL}{LINK,ADDR,ROUTE,NEIGH}
// family).
var ErrUnhandledType = errors.New("rtnl: unhandled netlink message type")

// Event is a single decoded rtnetlink notification: the record kind, whether
// it is a creation/update (New) or a removal (Del), and the decoded record
// itself (one of *Link, *Addr, *Route, *Neigh).
type Event struct {
	Kind    Kind
	Deleted bool
	Record  interface{}
}

// Decode dispatches a raw netlink message type + payload to the matching
// per-kind decoder, following the same switch-on-message-type structure as
// the original msg_handler_internal, generalized from a single-purpose
// INET_DIAG handler to cover all four rtnetlink object kinds.
func Decode(msgType uint16, payload []byte) (*Event, error) {
	switch msgType {
	case unix.RTM_NEWLINK, unix.RTM_DELLINK:
		l, err := DecodeLink(payload)
		if err != nil {
			return nil, err
		}
		return &Event{Kind: KindLink, Deleted: msgType == unix.RTM_DELLINK, Record: l}, nil
	case unix.RTM_NEWADDR, unix.RTM_DELADDR:
		a, err := DecodeAddr(payload)
		if err != nil {
			return nil, err
		}
		return &Event{Kind: KindAddr, Deleted: msgType == unix.RTM_DELADDR, Record: a}, nil
	case unix.RTM_NEWROUTE, unix.RTM_DELROUTE:
		r, err := DecodeRoute(payload)
		if err != nil {
			return nil, err
		}
		return &Event{Kind: KindRoute, Deleted: msgType == unix.RTM_DELROUTE, Record: r}, nil
	case unix.RTM_NEWNEIGH, unix.RTM_DELNEIGH:
		n, err := DecodeNeigh(payload)
		if err != nil {
			return nil, err
		}
		return &Event{Kind: KindNeigh, Deleted: msgType == unix.RTM_DELNEIGH, Record: n}, nil
	default:
		return nil, ErrUnhandledType
	}
}
