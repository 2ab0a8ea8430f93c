package machine

import (
	"github.com/bytedance/gopkg/lang/fastrand"

	"github.com/framekit/framekit/mem"
	"github.com/framekit/framekit/mem/alloc"
)

// StressReport summarizes a randomized workload run.
type StressReport struct {
	Ops       int
	Failures  int // allocations that hit ErrNoMemory
	PeakPages uint64
	Stats     alloc.Stats
}

// Stress runs a random interleaving of allocations and frees against the
// allocator and returns what happened. Any blocks still held at the end are
// freed, so the machine comes back fully coalesced.
func (m *Machine) Stress(ops int) StressReport {
	type held struct {
		page  *mem.Page
		order int
	}
	var live []held
	var livePages uint64

	report := StressReport{Ops: ops}
	maxOrder := uint32(m.Alloc.LastOrder() + 1)

	for i := 0; i < ops; i++ {
		if len(live) == 0 || fastrand.Uint32n(2) == 0 {
			order := int(fastrand.Uint32n(maxOrder))
			page, err := m.Alloc.AllocatePages(order, alloc.FlagNone)
			if err != nil {
				report.Failures++
				continue
			}
			live = append(live, held{page, order})
			livePages += uint64(1) << order
			if livePages > report.PeakPages {
				report.PeakPages = livePages
			}
		} else {
			idx := int(fastrand.Uint32n(uint32(len(live))))
			h := live[idx]
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
			m.Alloc.FreePages(h.page, h.order)
			livePages -= uint64(1) << h.order
		}
	}

	for _, h := range live {
		m.Alloc.FreePages(h.page, h.order)
	}

	report.Stats = m.Alloc.Stats()
	return report
}
