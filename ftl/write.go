package ftl

import (
	"fmt"
)

// Write implements the write path of core spec §4.2: validation,
// allocation, conditional read-modify-write, device write, and metadata
// update. It returns the number of bytes written, or an error.
func (f *FTL) Write(req *Request) (int, error) {
	defer req.finish()

	if f.closed.Load() {
		return 0, ErrClosed
	}

	sector := req.Sector
	writeSize := req.DataLen
	l := lpnOf(sector, f.pageSize)
	offset := pageOffsetOf(sector, f.pageSize)

	if int64(l) > f.mapEntries {
		return 0, fmt.Errorf("%w: lpn %d exceeds map size %d", ErrInvalidArgument, l, f.mapEntries)
	}
	if offset+writeSize > f.pageSize {
		return 0, fmt.Errorf("%w: offset %d + len %d overruns page size %d", ErrInvalidArgument, offset, writeSize, f.pageSize)
	}

	ppn, err := f.allocatePageWithGC()
	if err != nil {
		return 0, err
	}

	scratch := make([]byte, f.pageSize)

	f.mappingMu.Lock()
	existing := f.lookup(l)
	f.mappingMu.Unlock()
	isExist := existing != PPNEmpty

	// Sub-page-write predicate preserved verbatim from the original
	// source (core spec §9 open question): when offset==0 but
	// writeSize < pageSize, no pre-read happens and the tail of the old
	// page is silently zero-filled by the zeroed scratch buffer.
	if isExist && !(offset == 0 || writeSize == f.pageSize) {
		if err := f.readPage(existing, scratch); err != nil {
			return 0, fmt.Errorf("%w: read-modify-write pre-read lpn %d: %v", ErrDeviceIOError, l, err)
		}
	}

	copy(scratch[offset:offset+writeSize], req.Data[:writeSize])

	if err := f.dev.WritePage(ppn.toDeviceAddress(f.pageBits), scratch); err != nil {
		return 0, fmt.Errorf("%w: write ppn %v: %v", ErrDeviceIOError, ppn, err)
	}

	f.mappingMu.Lock()
	f.commitWrite(l, ppn)
	f.mappingMu.Unlock()

	req.PPN = ppn
	return writeSize, nil
}

// allocatePageWithGC calls getFreePage; on exhaustion it triggers a
// synchronous forced GC and retries exactly once (core spec §4.4 trigger
// policy (a): "GC is invoked synchronously from the write path when
// get_free_page returns EMPTY").
func (f *FTL) allocatePageWithGC() (PPN, error) {
	f.mappingMu.Lock()
	ppn := f.getFreePage()
	f.mappingMu.Unlock()
	if ppn != PPNEmpty {
		return ppn, nil
	}

	if _, err := f.runGC(GCRatioAll); err != nil {
		return PPNEmpty, fmt.Errorf("%w: forced GC failed: %v", ErrDeviceExhausted, err)
	}

	f.mappingMu.Lock()
	ppn = f.getFreePage()
	f.mappingMu.Unlock()
	if ppn == PPNEmpty {
		return PPNEmpty, ErrDeviceExhausted
	}
	return ppn, nil
}

// commitWrite performs the §4.3 update-on-write sequence: invalidate the
// prior mapping (if any), append l to the new segment's lpn_list, and
// repoint trans_map[l]. Caller must hold mappingMu.
func (f *FTL) commitWrite(l LPN, pNew PPN) {
	if old := f.lookup(l); old != PPNEmpty {
		f.invalidate(l, old)
	}
	newSeg, _ := unpackPPN(pNew, f.pageBits)
	s := f.segments[newSeg]
	s.appendLPN(l)
	s.nrValidPages.Add(1)
	f.update(l, pNew)
}

// invalidate removes l from its old segment's lpn_list, decrements that
// segment's valid-page count, and enqueues the segment for GC if it has
// no free pages left (core spec §4.3 step 1). Caller must hold mappingMu.
func (f *FTL) invalidate(l LPN, pOld PPN) {
	segNum, _ := unpackPPN(pOld, f.pageBits)
	seg := f.segments[segNum]

	seg.removeLPN(l)
	seg.nrValidPages.Add(-1)

	// A segment currently being collected (isGC) was already dequeued by
	// the reclaimer; it must not be re-enqueued while migration is still
	// in flight for it, or the GC list would grow without bound as each
	// migration write invalidates the very segment being drained.
	if seg.nrFreePages.Load() == 0 && !seg.isGC.Load() {
		f.enqueueGC(int(segNum))
	}
}
