package rtnl

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrShortMessage is returned when a message is too short to contain even
// its fixed-size kernel header.
var ErrShortMessage = errors.New("rtnl: message shorter than its fixed header")

const (
	unsafe_SizeofIfInfomsg = unsafe.Sizeof(unix.IfInfomsg{})
	unsafe_SizeofIfAddrmsg = unsafe.Sizeof(unix.IfAddrmsg{})
	unsafe_SizeofRtMsg     = unsafe.Sizeof(unix.RtMsg{})
	unsafe_SizeofNdMsg     = unsafe.Sizeof(unix.NdMsg{})
)

func ptr(b []byte) unsafe.Pointer { return unsafe.Pointer(&b[0]) }
