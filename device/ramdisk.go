package device

import (
	"fmt"
	"sync"
)

// RAMDisk is an in-memory Device backed by a flat byte arena sliced into
// fixed-size segments. It models a NAND-like device closely enough for
// testing the FTL: Erase zeroes a whole segment; WritePage/ReadPage only
// ever touch one page at a time. It is not part of the FTL's correctness
// surface — a real deployment would swap in a zoned-SSD or hardware
// backend behind the same Device interface.
type RAMDisk struct {
	mu sync.RWMutex

	pageSize   int
	pagesPerSg int
	segCount   int

	arena []byte
}

// NewRAMDisk creates a RAMDisk with the given geometry. The arena is
// zeroed, matching a freshly erased device.
func NewRAMDisk(pageSize, pagesPerSegment, segmentCount int) *RAMDisk {
	if pageSize <= 0 || pagesPerSegment <= 0 || segmentCount <= 0 {
		panic("device: invalid geometry")
	}
	total := pageSize * pagesPerSegment * segmentCount
	return &RAMDisk{
		pageSize:   pageSize,
		pagesPerSg: pagesPerSegment,
		segCount:   segmentCount,
		arena:      make([]byte, total),
	}
}

func (d *RAMDisk) offset(addr Address) (int, error) {
	if int(addr.Segment) >= d.segCount {
		return 0, fmt.Errorf("device: segment %d out of range [0,%d)", addr.Segment, d.segCount)
	}
	if int(addr.Page) >= d.pagesPerSg {
		return 0, fmt.Errorf("device: page %d out of range [0,%d)", addr.Page, d.pagesPerSg)
	}
	segBase := int(addr.Segment) * d.pagesPerSg * d.pageSize
	return segBase + int(addr.Page)*d.pageSize, nil
}

// WritePage implements Device.
func (d *RAMDisk) WritePage(addr Address, buf []byte) error {
	if len(buf) != d.pageSize {
		return fmt.Errorf("device: write buffer is %d bytes, want %d", len(buf), d.pageSize)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	off, err := d.offset(addr)
	if err != nil {
		return err
	}
	copy(d.arena[off:off+d.pageSize], buf)
	return nil
}

// ReadPage implements Device.
func (d *RAMDisk) ReadPage(addr Address, buf []byte) error {
	if len(buf) != d.pageSize {
		return fmt.Errorf("device: read buffer is %d bytes, want %d", len(buf), d.pageSize)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	off, err := d.offset(addr)
	if err != nil {
		return err
	}
	copy(buf, d.arena[off:off+d.pageSize])
	return nil
}

// Erase implements Device.
func (d *RAMDisk) Erase(segment uint32) error {
	if int(segment) >= d.segCount {
		return fmt.Errorf("device: segment %d out of range [0,%d)", segment, d.segCount)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	base := int(segment) * d.pagesPerSg * d.pageSize
	for i := base; i < base+d.pagesPerSg*d.pageSize; i++ {
		d.arena[i] = 0
	}
	return nil
}

func (d *RAMDisk) PageSize() int        { return d.pageSize }
func (d *RAMDisk) PagesPerSegment() int { return d.pagesPerSg }
func (d *RAMDisk) SegmentCount() int    { return d.segCount }
func (d *RAMDisk) TotalSize() int64 {
	return int64(d.pageSize) * int64(d.pagesPerSg) * int64(d.segCount)
}
