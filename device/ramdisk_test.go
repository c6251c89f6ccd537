package device

import (
	"bytes"
	"testing"
)

func tmpRAMDisk(t *testing.T) *RAMDisk {
	t.Helper()
	return NewRAMDisk(512, 8, 4)
}

func TestRAMDisk_WriteReadRoundTrip(t *testing.T) {
	d := tmpRAMDisk(t)
	want := bytes.Repeat([]byte{0xAB}, d.PageSize())

	addr := Address{Segment: 1, Page: 3}
	if err := d.WritePage(addr, want); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := make([]byte, d.PageSize())
	if err := d.ReadPage(addr, got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(want, got) {
		t.Fatalf("round trip mismatch")
	}
}

func TestRAMDisk_EraseZeroesSegment(t *testing.T) {
	d := tmpRAMDisk(t)
	payload := bytes.Repeat([]byte{0xFF}, d.PageSize())
	for p := 0; p < d.PagesPerSegment(); p++ {
		if err := d.WritePage(Address{Segment: 2, Page: uint32(p)}, payload); err != nil {
			t.Fatalf("write page %d: %v", p, err)
		}
	}

	if err := d.Erase(2); err != nil {
		t.Fatalf("erase: %v", err)
	}

	zero := make([]byte, d.PageSize())
	got := make([]byte, d.PageSize())
	for p := 0; p < d.PagesPerSegment(); p++ {
		if err := d.ReadPage(Address{Segment: 2, Page: uint32(p)}, got); err != nil {
			t.Fatalf("read page %d after erase: %v", p, err)
		}
		if !bytes.Equal(zero, got) {
			t.Fatalf("page %d not zeroed after erase", p)
		}
	}
}

func TestRAMDisk_OtherSegmentsUnaffectedByErase(t *testing.T) {
	d := tmpRAMDisk(t)
	payload := bytes.Repeat([]byte{0x42}, d.PageSize())
	if err := d.WritePage(Address{Segment: 0, Page: 0}, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := d.Erase(3); err != nil {
		t.Fatalf("erase: %v", err)
	}
	got := make([]byte, d.PageSize())
	if err := d.ReadPage(Address{Segment: 0, Page: 0}, got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(payload, got) {
		t.Fatalf("erase of segment 3 corrupted segment 0")
	}
}

func TestRAMDisk_RejectsOutOfRangeAddress(t *testing.T) {
	d := tmpRAMDisk(t)
	buf := make([]byte, d.PageSize())

	cases := []Address{
		{Segment: 4, Page: 0}, // segment count is 4, valid range [0,3]
		{Segment: 0, Page: 8}, // pages-per-segment is 8, valid range [0,7]
	}
	for _, addr := range cases {
		if err := d.WritePage(addr, buf); err == nil {
			t.Errorf("expected error writing out-of-range address %+v", addr)
		}
	}
}

func TestRAMDisk_RejectsWrongBufferSize(t *testing.T) {
	d := tmpRAMDisk(t)
	if err := d.WritePage(Address{}, make([]byte, d.PageSize()-1)); err == nil {
		t.Fatal("expected error for undersized buffer")
	}
	if err := d.ReadPage(Address{}, make([]byte, d.PageSize()+1)); err == nil {
		t.Fatal("expected error for oversized buffer")
	}
}
