package ftl

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// gcScheduler runs soft GC sweeps on a fixed interval in the background,
// the way the teacher's storage.Scheduler drives periodic jobs off a
// robfig/cron schedule. A zero interval disables the scheduler: no soft GC
// runs at all, and GC then only runs as a forced pass, synchronously from
// the write path on exhaustion or via Trim.
type gcScheduler struct {
	ftl      *FTL
	interval time.Duration
	cron     *cron.Cron
	running  atomic.Bool // no-overlap guard, mirrors job.NoOverlap
}

func newGCScheduler(f *FTL, interval time.Duration) *gcScheduler {
	return &gcScheduler{ftl: f, interval: interval}
}

func (s *gcScheduler) start() {
	if s.interval <= 0 {
		return
	}
	s.cron = cron.New()
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		s.ftl.cfg.Logger.Printf("ftl: background gc scheduler disabled, invalid interval %s: %v", s.interval, err)
		s.cron = nil
		return
	}
	s.cron.Start()
}

func (s *gcScheduler) stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// sweep runs one soft GC pass, skipping if a sweep (or any other GC
// caller) is already in flight rather than piling up behind it.
func (s *gcScheduler) sweep() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	defer s.running.Store(false)

	res, err := s.ftl.runGC(s.ftl.cfg.GCRatio)
	if err != nil {
		s.ftl.cfg.Logger.Printf("ftl: background soft gc failed: %v", err)
		return
	}
	if res.Skipped {
		return
	}
	s.ftl.cfg.Logger.Printf("ftl: background soft gc reclaimed %d/%d segments, migrated %d pages", res.SegmentsReclaimed, res.SegmentsScanned, res.PagesMigrated)
}
