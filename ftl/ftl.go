// Package ftl implements the core of a page-level Flash Translation
// Layer: the logical-to-physical mapping table and free-page allocator,
// the out-of-place-update write path, segment bookkeeping, and the
// garbage collector that reclaims dirty segments. It sits on top of an
// external device.Device collaborator and hides that collaborator's
// erase-before-write discipline from callers that only ever see
// byte-addressable sectors.
package ftl

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"flashftl/pageftl/device"
)

// FTL is one open flash translation layer instance. All exported methods
// are safe for concurrent use by multiple reader/writer goroutines plus
// one background GC goroutine, per core spec §5.
type FTL struct {
	dev device.Device
	cfg Config

	pageSize        int
	pagesPerSegment int
	segmentCount    int
	pageBits        uint // ceil(log2(pagesPerSegment)); low bits of a PPN
	mapEntries      int64

	// mappingMu guards transMap, the allocator cursor, every segment's
	// lpnList/useBits, and the GC list + membership bitmap. It is held
	// briefly around allocation and metadata updates and is never held
	// across a device I/O call (core spec §5).
	mappingMu sync.Mutex
	transMap  []PPN
	cursor    int

	segments     []*segment
	gcList       []int
	gcMembership *bitmap

	// gcMu serializes entry into the GC routine (core spec §5).
	gcMu sync.Mutex

	scheduler *gcScheduler
	closed    atomic.Bool
}

// Open initializes the mapping, segments, allocator, and GC list, and
// launches the background GC scheduler (core spec §6.2 "open"). Segments
// start in the erased/free state.
func Open(dev device.Device, cfg Config) (*FTL, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	pageSize := dev.PageSize()
	pagesPerSegment := dev.PagesPerSegment()
	segmentCount := dev.SegmentCount()
	if pageSize <= 0 || pagesPerSegment <= 0 || segmentCount <= 0 {
		return nil, fmt.Errorf("ftl: invalid device geometry (page=%d pages/seg=%d segments=%d)", pageSize, pagesPerSegment, segmentCount)
	}

	f := &FTL{
		dev:             dev,
		cfg:             cfg,
		pageSize:        pageSize,
		pagesPerSegment: pagesPerSegment,
		segmentCount:    segmentCount,
		pageBits:        ceilLog2(pagesPerSegment),
		mapEntries:      mapSize(dev.TotalSize(), pageSize),
		gcMembership:    newBitmap(segmentCount),
	}

	// One slot past mapEntries: the lpn > mapEntries check admits
	// lpn == mapEntries.
	f.transMap = make([]PPN, f.mapEntries+1)
	for i := range f.transMap {
		f.transMap[i] = PPNEmpty
	}

	f.segments = make([]*segment, segmentCount)
	for i := range f.segments {
		f.segments[i] = newSegment(i, pagesPerSegment)
	}

	f.scheduler = newGCScheduler(f, cfg.BackgroundGCInterval)
	f.scheduler.start()

	return f, nil
}

// Close stops the background GC scheduler and marks the instance closed,
// after which Read, Write and Trim return ErrClosed (core spec §6.2
// "close"). It frees nothing explicitly. The mapping table is
// process-resident and is not persisted (core spec §1 Non-goals, §3
// Lifecycle).
func (f *FTL) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	f.scheduler.stop()
	return nil
}

// Submit dispatches a request by flag to Read, Write, or Ioctl (core spec
// §6.2 "submit_request").
func (f *FTL) Submit(req *Request) (int, error) {
	switch req.Flag {
	case RequestRead:
		return f.Read(req)
	case RequestWrite:
		return f.Write(req)
	case RequestIoctl:
		n, err := f.Ioctl(req)
		return n, err
	default:
		defer req.finish()
		return 0, fmt.Errorf("%w: unknown request flag %d", ErrInvalidArgument, req.Flag)
	}
}

// Ioctl dispatches an ioctl request. TRIM is the only code the core spec
// defines (core spec §6.2 "ioctl(TRIM)").
func (f *FTL) Ioctl(req *Request) (int, error) {
	defer req.finish()
	switch req.Ioctl {
	case IoctlTrim:
		_, err := f.Trim()
		return 0, err
	default:
		return 0, fmt.Errorf("%w: unknown ioctl code %d", ErrInvalidArgument, req.Ioctl)
	}
}

// PageSize returns the device's page size.
func (f *FTL) PageSize() int { return f.pageSize }

// SegmentCount returns the number of segments.
func (f *FTL) SegmentCount() int { return f.segmentCount }

// PagesPerSegment returns the number of pages per segment.
func (f *FTL) PagesPerSegment() int { return f.pagesPerSegment }
