// Package mem provides the physical memory model for the kernel core: a
// contiguous byte arena standing in for physical RAM, and a dense table of
// page descriptors addressable by page-frame-number (pfn).
package mem

import (
	"errors"
	"fmt"

	"github.com/framekit/framekit/internal/format"
)

// PFN is a page-frame-number: the integer handle identifying a physical page.
// A frame's base address is always pfn << format.PageBits; code operates on
// pfns, never raw addresses, so bounds are checked by construction.
type PFN uint64

// ErrNoPages is returned when constructing a page table over zero frames.
var ErrNoPages = errors.New("mem: page table must cover at least one page")

// Page is a page frame descriptor. While the frame is free its backing bytes
// double as allocator bookkeeping; once allocated the caller owns the bytes
// until they are freed again.
type Page struct {
	pfn PFN
	pt  *PageTable
}

// PageTable is the dense descriptor table, one entry per physical frame.
type PageTable struct {
	arena *arena
	pages []Page
}

// NewPageTable maps a physical arena of npages frames and builds its
// descriptor table.
func NewPageTable(npages uint64) (*PageTable, error) {
	if npages == 0 {
		return nil, ErrNoPages
	}

	a, err := mapArena(npages << format.PageBits)
	if err != nil {
		return nil, err
	}

	pt := &PageTable{
		arena: a,
		pages: make([]Page, npages),
	}
	for i := range pt.pages {
		pt.pages[i] = Page{pfn: PFN(i), pt: pt}
	}
	return pt, nil
}

// NumPages returns the number of frames the table covers.
func (pt *PageTable) NumPages() uint64 {
	return uint64(len(pt.pages))
}

// Page returns the descriptor for pfn. An out-of-range pfn is a caller bug
// and panics; valid pfns come from the table itself or from the allocator.
func (pt *PageTable) Page(pfn PFN) *Page {
	if uint64(pfn) >= uint64(len(pt.pages)) {
		panic(fmt.Sprintf("mem: pfn %d out of range (table covers %d pages)", pfn, len(pt.pages)))
	}
	return &pt.pages[pfn]
}

// Bytes returns the whole backing arena.
func (pt *PageTable) Bytes() []byte {
	return pt.arena.data
}

// Close releases the backing arena. All page descriptors and byte views
// obtained from the table are invalid afterwards.
func (pt *PageTable) Close() error {
	pt.pages = nil
	return pt.arena.close()
}

// PFN returns the page's frame number.
func (p *Page) PFN() PFN {
	return p.pfn
}

// BaseAddress returns the frame's physical base address.
func (p *Page) BaseAddress() uint64 {
	return uint64(p.pfn) << format.PageBits
}

// Bytes returns a mutable view of the frame's backing storage.
func (p *Page) Bytes() []byte {
	off := p.BaseAddress()
	return p.pt.arena.data[off : off+format.PageSize]
}
