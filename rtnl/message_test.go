package rtnl

import (
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"
)

func buildLinkMessage(index int32, name string, up bool) []byte {
	hdr := unix.IfInfomsg{Index: index}
	if up {
		hdr.Flags |= unix.IFF_UP
	}
	hdrBytes := (*(*[unsafe.Sizeof(unix.IfInfomsg{})]byte)(unsafe.Pointer(&hdr)))[:]
	buf := append([]byte{}, hdrBytes...)
	buf = buildAttr(buf, IFLA_IFNAME, append([]byte(name), 0))
	return buf
}

func TestDecodeLink(t *testing.T) {
	buf := buildLinkMessage(3, "eth0", true)
	l, err := DecodeLink(buf)
	if err != nil {
		t.Fatalf("DecodeLink: %v", err)
	}
	if l.Index() != 3 {
		t.Errorf("Index() = %d, want 3", l.Index())
	}
	if name, ok := l.Name(); !ok || name != "eth0" {
		t.Errorf("Name() = %q, %v, want eth0, true", name, ok)
	}
	if !l.Up() {
		t.Errorf("Up() = false, want true")
	}
	if _, ok := l.MTU(); ok {
		t.Errorf("MTU() present, want absent")
	}
}

func TestDecodeDispatch(t *testing.T) {
	buf := buildLinkMessage(7, "lo", false)
	ev, err := Decode(unix.RTM_NEWLINK, buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Kind != KindLink || ev.Deleted {
		t.Errorf("ev = %+v, want KindLink, not deleted", ev)
	}
	link, ok := ev.Record.(*Link)
	if !ok {
		t.Fatalf("Record type = %T, want *Link", ev.Record)
	}
	if link.Index() != 7 {
		t.Errorf("Index() = %d, want 7", link.Index())
	}
}

func TestDecodeUnhandledType(t *testing.T) {
	if _, err := Decode(0, nil); err != ErrUnhandledType {
		t.Errorf("err = %v, want ErrUnhandledType", err)
	}
}
