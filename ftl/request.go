package ftl

import "github.com/google/uuid"

// RequestFlag selects which operation submit_request dispatches to
// (core spec §6.2/§6.3).
type RequestFlag uint8

const (
	RequestRead RequestFlag = iota
	RequestWrite
	RequestIoctl
)

// IoctlCode identifies an ioctl operation. TRIM is the only one the core
// spec defines.
type IoctlCode uint8

const (
	IoctlTrim IoctlCode = iota
)

// Request is the host-facing request record (core spec §6.3):
// {flag, sector, data, data_len, paddr, rq_private, end_rq}. The FTL fills
// PPN on writes and invokes EndRQ on every completion path, including
// error paths, so that callers can free any FTL-owned buffer attached to
// the request.
type Request struct {
	Flag    RequestFlag
	Sector  int64
	Data    []byte
	DataLen int
	Ioctl   IoctlCode

	// PPN is filled in by the FTL on a successful write, so a caller (or
	// test) can inspect exactly where a write landed.
	PPN PPN

	// Private is an opaque caller payload, carried through unexamined —
	// rq_private in the core spec.
	Private any

	// EndRQ is invoked exactly once per Submit call, on every exit path.
	// It must free any FTL-owned buffer attached to the request.
	EndRQ func(*Request)

	// RequestID is a correlation ID for the caller's own use; the FTL's
	// log lines do not print it. It plays no role in any FTL invariant.
	RequestID uuid.UUID
}

// NewRequest builds a Request stamped with a fresh RequestID.
func NewRequest(flag RequestFlag, sector int64, data []byte) *Request {
	return &Request{
		Flag:      flag,
		Sector:    sector,
		Data:      data,
		DataLen:   len(data),
		PPN:       PPNEmpty,
		RequestID: uuid.New(),
	}
}

func (r *Request) finish() {
	if r.EndRQ != nil {
		r.EndRQ(r)
	}
}
