// Package machine assembles the kernel core for simulation: it maps the
// physical arena, builds the page descriptor table, boots the buddy
// allocator from the configured memory map, and wires the scheduler and
// system-call dispatcher around them.
package machine

import (
	"errors"
	"fmt"
	"io"

	"github.com/framekit/framekit/mem"
	"github.com/framekit/framekit/mem/alloc"
	"github.com/framekit/framekit/sched"
	"github.com/framekit/framekit/sys"
)

// Range is a contiguous run of page frames.
type Range struct {
	Start mem.PFN
	Count uint64
}

// Config describes the simulated platform.
type Config struct {
	// Pages is the physical memory size in page frames (default 1024).
	Pages uint64

	// LastOrder bounds the largest block the allocator manages
	// (default 10, i.e. 4 MiB blocks of 4 KiB pages).
	LastOrder int

	// Reserved lists frame ranges withheld from the allocator, the way
	// firmware tables carve out kernel and device memory. Ranges must be
	// in ascending order and must not overlap.
	Reserved []Range

	// DirRoot optionally names a host directory exposed through the
	// ListDir system call. Empty disables the call.
	DirRoot string
}

// ErrBadConfig reports an invalid machine configuration.
var ErrBadConfig = errors.New("machine: bad configuration")

// Machine is a booted kernel core.
type Machine struct {
	pt    *mem.PageTable
	Alloc *alloc.Buddy
	Sched *sched.RoundRobin
	Sys   *sys.Dispatcher

	poweredOff bool
}

// New boots a machine: every page not covered by a reserved range is fed to
// the allocator as free memory.
func New(cfg Config) (*Machine, error) {
	if cfg.Pages == 0 {
		cfg.Pages = 1024
	}
	if cfg.LastOrder == 0 {
		cfg.LastOrder = 10
	}
	if err := validateReserved(cfg.Reserved, cfg.Pages); err != nil {
		return nil, err
	}

	pt, err := mem.NewPageTable(cfg.Pages)
	if err != nil {
		return nil, err
	}

	buddy, err := alloc.New(pt, cfg.LastOrder)
	if err != nil {
		pt.Close()
		return nil, err
	}

	m := &Machine{
		pt:    pt,
		Alloc: buddy,
		Sched: sched.NewRoundRobin(),
		Sys:   sys.NewDispatcher(),
	}

	for _, r := range usableRanges(cfg.Reserved, cfg.Pages) {
		buddy.InsertFreePages(pt.Page(r.Start), r.Count)
	}

	m.registerHandlers()
	if cfg.DirRoot != "" {
		m.Sys.SetDirSource(sys.NewHostDir(cfg.DirRoot))
	}
	return m, nil
}

func validateReserved(reserved []Range, pages uint64) error {
	var prevEnd uint64
	for i, r := range reserved {
		end := uint64(r.Start) + r.Count
		if r.Count == 0 || end > pages {
			return fmt.Errorf("%w: reserved range %d ([%d, %d)) outside [0, %d)",
				ErrBadConfig, i, r.Start, end, pages)
		}
		if uint64(r.Start) < prevEnd {
			return fmt.Errorf("%w: reserved range %d overlaps or is out of order", ErrBadConfig, i)
		}
		prevEnd = end
	}
	return nil
}

// usableRanges returns the gaps between reserved ranges over [0, pages).
func usableRanges(reserved []Range, pages uint64) []Range {
	var out []Range
	var pos uint64
	for _, r := range reserved {
		if uint64(r.Start) > pos {
			out = append(out, Range{Start: mem.PFN(pos), Count: uint64(r.Start) - pos})
		}
		pos = uint64(r.Start) + r.Count
	}
	if pos < pages {
		out = append(out, Range{Start: mem.PFN(pos), Count: pages - pos})
	}
	return out
}

// registerHandlers wires the numeric system calls the core services itself.
func (m *Machine) registerHandlers() {
	m.Sys.Register(sys.AllocMem, m.sysAllocMem)
	m.Sys.Register(sys.Poweroff, func([]uint64) sys.Result {
		m.poweredOff = true
		return sys.Result{Code: sys.OK}
	})
	m.Sys.Register(sys.Exit, func([]uint64) sys.Result {
		return sys.Result{Code: sys.OK}
	})
}

// sysAllocMem services AllocMem(order, flags): Data carries the block's
// physical base address on success; exhaustion maps to NotFound (no block
// found at or above the order) and a bad order to NotSupported.
func (m *Machine) sysAllocMem(args []uint64) sys.Result {
	if len(args) < 2 {
		return sys.Result{Code: sys.NotSupported}
	}
	order := int(args[0])
	flags := alloc.Flags(args[1])

	page, err := m.Alloc.AllocatePages(order, flags)
	switch {
	case errors.Is(err, alloc.ErrBadOrder):
		return sys.Result{Code: sys.NotSupported}
	case errors.Is(err, alloc.ErrNoMemory):
		return sys.Result{Code: sys.NotFound}
	case err != nil:
		return sys.Result{Code: sys.NotSupported}
	}
	return sys.Result{Code: sys.OK, Data: page.BaseAddress()}
}

// PageTable exposes the frame table, e.g. to feed addresses back to
// FreePages in tests and tools.
func (m *Machine) PageTable() *mem.PageTable {
	return m.pt
}

// TotalFree returns the allocator's free-page total.
func (m *Machine) TotalFree() uint64 {
	return m.Alloc.TotalFree()
}

// PoweredOff reports whether a Poweroff call has been serviced.
func (m *Machine) PoweredOff() bool {
	return m.poweredOff
}

// Dump writes the allocator's free-list state to w.
func (m *Machine) Dump(w io.Writer) {
	m.Alloc.Dump(w)
}

// Close releases the physical arena.
func (m *Machine) Close() error {
	return m.pt.Close()
}
