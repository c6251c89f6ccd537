package ftl

import "fmt"

// Read implements the read path: resolve the LPN's current PPN and issue
// a synchronous device read. Reading an unmapped LPN returns zeros,
// matching a never-written sector on real NAND (core spec §8 scenario S5:
// "every sector either returns its last-written payload or zeros").
func (f *FTL) Read(req *Request) (int, error) {
	defer req.finish()

	if f.closed.Load() {
		return 0, ErrClosed
	}

	sector := req.Sector
	readSize := req.DataLen
	l := lpnOf(sector, f.pageSize)
	offset := pageOffsetOf(sector, f.pageSize)

	if int64(l) > f.mapEntries {
		return 0, fmt.Errorf("%w: lpn %d exceeds map size %d", ErrInvalidArgument, l, f.mapEntries)
	}
	if offset+readSize > f.pageSize {
		return 0, fmt.Errorf("%w: offset %d + len %d overruns page size %d", ErrInvalidArgument, offset, readSize, f.pageSize)
	}

	f.mappingMu.Lock()
	ppn := f.lookup(l)
	f.mappingMu.Unlock()

	if ppn == PPNEmpty {
		for i := range req.Data[:readSize] {
			req.Data[i] = 0
		}
		return readSize, nil
	}

	scratch := make([]byte, f.pageSize)
	if err := f.readPage(ppn, scratch); err != nil {
		return 0, fmt.Errorf("%w: read lpn %d: %v", ErrDeviceIOError, l, err)
	}
	copy(req.Data[:readSize], scratch[offset:offset+readSize])
	return readSize, nil
}

// readPage issues a synchronous device read of the full page at ppn into
// buf, which must be pageSize bytes.
func (f *FTL) readPage(ppn PPN, buf []byte) error {
	return f.dev.ReadPage(ppn.toDeviceAddress(f.pageBits), buf)
}
