package ftl

import "flashftl/pageftl/device"

// PPN is a packed physical page number: the low pageBits bits index a page
// within its segment, the remaining high bits index the segment (block).
// PPNEmpty is the reserved "unmapped" sentinel (core spec §6.4).
type PPN uint32

// PPNEmpty denotes "unmapped" — PADDR_EMPTY in the core spec.
const PPNEmpty PPN = 0xFFFFFFFF

// LPN is a logical page number: sector / pageSize.
type LPN uint64

// packPPN and unpackPPN convert between a (segment, page) pair and the
// packed on-device representation. pageBits is ceil(log2(pagesPerSegment)).
func packPPN(segment, page uint32, pageBits uint) PPN {
	return PPN(uint32(segment)<<pageBits | (page & ((1 << pageBits) - 1)))
}

func unpackPPN(p PPN, pageBits uint) (segment, page uint32) {
	mask := uint32(1)<<pageBits - 1
	return uint32(p) >> pageBits, uint32(p) & mask
}

func (p PPN) toDeviceAddress(pageBits uint) device.Address {
	seg, pg := unpackPPN(p, pageBits)
	return device.Address{Segment: seg, Page: pg}
}

// ceilLog2 returns ceil(log2(n)) for n >= 1.
func ceilLog2(n int) uint {
	if n <= 1 {
		return 0
	}
	bits := uint(0)
	v := n - 1
	for v > 0 {
		bits++
		v >>= 1
	}
	return bits
}

// lpnOf returns the LPN for a given byte sector, and pageOffsetOf returns
// the intra-page offset (core spec §3 "Addresses").
func lpnOf(sector int64, pageSize int) LPN {
	return LPN(sector / int64(pageSize))
}

func pageOffsetOf(sector int64, pageSize int) int {
	return int(sector % int64(pageSize))
}
