package ftl

// getFreePage returns a fresh PPN, advancing the allocator cursor
// (core spec §4.1 "Allocator algorithm"). Caller must hold mappingMu.
// Returns PPNEmpty if every segment is full; the write path then triggers
// synchronous GC and retries (core spec §4.2 step 1).
func (f *FTL) getFreePage() PPN {
	if f.segments[f.cursor].nrFreePages.Load() == 0 {
		if !f.advanceCursorFrom(f.cursor) {
			return PPNEmpty
		}
	}

	c := f.cursor
	seg := f.segments[c]
	idx := seg.useBits.lowestClear()
	if idx < 0 {
		// Counter says free pages remain but the bitmap disagrees —
		// shouldn't happen if invariant 2 holds; fail safe rather than
		// hand out a bogus address.
		return PPNEmpty
	}

	seg.useBits.set(idx)
	seg.nrFreePages.Add(-1)
	ppn := packPPN(uint32(c), uint32(idx), f.pageBits)

	if seg.nrFreePages.Load() == 0 {
		// A segment that just became full holds zero garbage (every page
		// in it is a fresh, live write) — it is full, not dirty, and must
		// not be queued for GC: reclaiming it would migrate every page
		// without freeing a single one, and a GC list fed by "became
		// full" events rather than "gained garbage" events never drains
		// (see invalidate, which is the only correct place to enqueue).
		// Proactively advance the cursor so the next call doesn't have
		// to rediscover that segment c is exhausted. Failure here just
		// means the next getFreePage call will detect exhaustion and
		// search again; it is not itself a DeviceExhausted condition.
		f.advanceCursorFrom(c)
	}

	return ppn
}

// advanceCursorFrom moves the allocator cursor to the next segment (in
// round-robin order starting just after from) with nr_free_pages > 0.
// Returns false, leaving the cursor unchanged, if no such segment exists.
// Caller must hold mappingMu.
func (f *FTL) advanceCursorFrom(from int) bool {
	n := len(f.segments)
	for i := 1; i <= n; i++ {
		c := (from + i) % n
		if f.segments[c].nrFreePages.Load() > 0 {
			f.cursor = c
			return true
		}
	}
	return false
}

// enqueueGC appends segment id to the GC list if it is not already a
// member (core spec §3 invariant 3, §4.1 "GC list"). Caller must hold
// mappingMu.
func (f *FTL) enqueueGC(id int) {
	if f.gcMembership.isSet(id) {
		return
	}
	f.gcMembership.set(id)
	f.gcList = append(f.gcList, id)
}

// dequeueGCHead pops the head of the FIFO GC list (core spec §4.4
// "Victim selection"). Returns -1, false if the list is empty. Caller must
// hold mappingMu.
func (f *FTL) dequeueGCHead() (int, bool) {
	if len(f.gcList) == 0 {
		return -1, false
	}
	id := f.gcList[0]
	f.gcList = f.gcList[1:]
	f.gcMembership.clear(id)
	return id, true
}

// gcListLen returns the current length of the GC candidate list. Caller
// must hold mappingMu.
func (f *FTL) gcListLen() int {
	return len(f.gcList)
}
