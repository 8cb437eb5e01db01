package rtnl

import (
	"encoding/binary"
	"testing"

	"github.com/go-test/deep"
	"golang.org/x/sys/unix"
)

// buildAttr appends one aligned rtattr(typ, value) to b, in the style
// inetdiag_whitebox_test.go hand-builds synthetic InetDiagMsg buffers.
func buildAttr(b []byte, typ uint16, value []byte) []byte {
	l := unix.SizeofRtAttr + len(value)
	hdr := make([]byte, unix.SizeofRtAttr)
	nativeEndian.PutUint16(hdr[0:2], uint16(l))
	nativeEndian.PutUint16(hdr[2:4], typ)
	b = append(b, hdr...)
	b = append(b, value...)
	pad := rtaAlignOf(l) - l
	return append(b, make([]byte, pad)...)
}

func TestParseAttrs(t *testing.T) {
	var buf []byte
	buf = buildAttr(buf, 1, []byte("eth0\x00"))
	buf = buildAttr(buf, 2, []byte{0xde, 0xad, 0xbe, 0xef})

	attrs, err := parseAttrs(buf)
	if err != nil {
		t.Fatalf("parseAttrs: %v", err)
	}
	want := []Attr{
		{Type: 1, Value: []byte("eth0\x00")},
		{Type: 2, Value: []byte{0xde, 0xad, 0xbe, 0xef}}}
	if diff := deep.Equal(attrs, want); diff != nil {
		t.Errorf("parseAttrs mismatch: %v", diff)
	}
}

func TestAttrTableDuplicateLastWriteWins(t *testing.T) {
	attrs := []Attr{
		{Type: 5, Value: []byte{1, 0, 0, 0}},
		{Type: 5, Value: []byte{2, 0, 0, 0}},
	}
	table := newAttrTable(attrs, 10)
	v, ok := table.get(5)
	if !ok {
		t.Fatal("expected attribute 5 present")
	}
	got := binary.LittleEndian.Uint32(v)
	if got != 2 {
		t.Errorf("last-write-wins: got %d, want 2", got)
	}
}

func TestAttrTableOverflowFallsBackToScan(t *testing.T) {
	attrs := []Attr{{Type: 20, Value: []byte("over")}}
	table := newAttrTable(attrs, 5)
	if !table.overflow {
		t.Fatal("expected overflow flag set")
	}
	v, ok := table.get(20)
	if !ok || string(v) != "over" {
		t.Errorf("scanAttr fallback failed: %v %v", v, ok)
	}
	if _, ok := table.get(3); ok {
		t.Errorf("expected absent attribute 3 to report not-ok")
	}
}
