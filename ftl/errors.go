package ftl

import "errors"

// Sentinel errors corresponding to the core spec's §7 error table. Callers
// should match with errors.Is; wrapped detail is added with fmt.Errorf's
// %w, the pattern used throughout the teacher's pager package.
var (
	// ErrInvalidArgument covers an out-of-range LPN or a write whose
	// offset+length overruns a single page.
	ErrInvalidArgument = errors.New("ftl: invalid argument")

	// ErrDeviceExhausted is returned when the allocator has no free page
	// left after the caller's GC attempt. The caller may retry after a
	// forced GC.
	ErrDeviceExhausted = errors.New("ftl: device exhausted (no free pages)")

	// ErrDeviceIOError wraps an underlying read/write/erase failure.
	ErrDeviceIOError = errors.New("ftl: device I/O error")

	// ErrClosed is returned by Read, Write and Trim (and so by Submit
	// requests that reach them) on a closed FTL.
	ErrClosed = errors.New("ftl: closed")
)
