package ftl

// Stats is a point-in-time snapshot of allocator and GC state (core spec
// §6.2 get_free_pages / get_free_segments). Page and segment counts are
// read through atomics; DirtySegments is read under a brief hold of
// mappingMu that Stats takes itself, so callers never take it.
type Stats struct {
	TotalSegments int
	TotalPages    int64
	FreePages     int64
	FreeSegments  int
	DirtySegments int // queued for GC, not yet reclaimed
}

// Stats returns a snapshot of current allocator occupancy and GC backlog.
func (f *FTL) Stats() Stats {
	st := Stats{TotalSegments: len(f.segments)}
	for _, seg := range f.segments {
		free := seg.nrFreePages.Load()
		st.FreePages += free
		st.TotalPages += int64(f.pagesPerSegment)
		if int(free) == f.pagesPerSegment {
			st.FreeSegments++
		}
	}
	f.mappingMu.Lock()
	st.DirtySegments = f.gcListLen()
	f.mappingMu.Unlock()
	return st
}

// FreePageRatio returns the fraction of all pages currently free, the
// same quantity the soft-GC threshold check compares against
// DefaultGCThreshold / Config.GCThreshold.
func (f *FTL) FreePageRatio() float64 {
	return f.freePageRatio()
}
