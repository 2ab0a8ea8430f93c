package alloc

import (
	"fmt"
	"os"

	"github.com/framekit/framekit/internal/format"
	"github.com/framekit/framekit/internal/memops"
	"github.com/framekit/framekit/mem"
)

// Runtime debug flag for allocation logging - controlled by FRAMEKIT_LOG_ALLOC env var.
var logAlloc = os.Getenv("FRAMEKIT_LOG_ALLOC") != ""

// nilPFN terminates a free-list chain. It aliases format.NilLink, which is
// never a valid frame number.
const nilPFN = mem.PFN(format.NilLink)

// maxLastOrder bounds the largest configurable order. Block sizes are tracked
// in uint64 page counts, so orders above 62 would overflow the arithmetic.
const maxLastOrder = 62

// Buddy is a power-of-two free-list allocator over a flat page frame table.
//
// One instance owns the free lists and the free-page counter for the table it
// was constructed with; there is no package-level state. See the package
// documentation for the invariants every operation preserves.
type Buddy struct {
	pt        *mem.PageTable
	lastOrder int

	// freeList[o] is the pfn of the first free order-o block, or nilPFN.
	// Each list is strictly ascending by pfn; the link to the next entry
	// lives in the first 8 bytes of the entry's own backing storage.
	freeList []mem.PFN

	// freeMap holds one bit per frame, set while the frame is covered by
	// any free block. The per-list duplicate check only sees the order a
	// block is being reinserted at; this map is what catches a second free
	// of a block whose first free coalesced it into a larger one.
	freeMap []uint64

	// totalFree is the running total of free pages across all orders.
	totalFree uint64

	stats Stats
}

// New constructs an allocator over pt managing block orders 0..lastOrder.
// The free lists start empty; feed usable ranges in with InsertFreePages.
func New(pt *mem.PageTable, lastOrder int) (*Buddy, error) {
	if pt == nil {
		return nil, ErrNilPageTable
	}
	if lastOrder < 0 || lastOrder > maxLastOrder {
		return nil, fmt.Errorf("%w: lastOrder %d not in [0, %d]", ErrBadOrder, lastOrder, maxLastOrder)
	}

	b := &Buddy{
		pt:        pt,
		lastOrder: lastOrder,
		freeList:  make([]mem.PFN, lastOrder+1),
		freeMap:   make([]uint64, (pt.NumPages()+63)/64),
	}
	for o := range b.freeList {
		b.freeList[o] = nilPFN
	}
	return b, nil
}

// LastOrder returns the largest block order the allocator manages.
func (b *Buddy) LastOrder() int {
	return b.lastOrder
}

// TotalFree returns the current number of free pages across all orders.
func (b *Buddy) TotalFree() uint64 {
	return b.totalFree
}

// Stats returns a copy of the allocator's internal counters.
func (b *Buddy) Stats() Stats {
	return b.stats
}

// readLink reads the next-free pfn stored in a free block's first word.
func (b *Buddy) readLink(p *mem.Page) mem.PFN {
	return mem.PFN(format.ReadU64(p.Bytes(), 0))
}

// writeLink stores the next-free pfn into a free block's first word.
func (b *Buddy) writeLink(p *mem.Page, next mem.PFN) {
	format.PutU64(p.Bytes(), 0, uint64(next))
}

// clearLink invalidates a block's link word the moment it leaves a list.
func (b *Buddy) clearLink(p *mem.Page) {
	format.PutU64(p.Bytes(), 0, 0)
}

// orderInRange reports whether order is one the allocator manages.
func (b *Buddy) orderInRange(order int) bool {
	return order >= 0 && order <= b.lastOrder
}

// pageIsFree reports whether pfn is covered by a free block at any order.
func (b *Buddy) pageIsFree(pfn mem.PFN) bool {
	return b.freeMap[pfn>>6]&(1<<(pfn&63)) != 0
}

// markFree sets the free bit for a run of frames.
func (b *Buddy) markFree(pfn mem.PFN, pages uint64) {
	for i := uint64(0); i < pages; i++ {
		p := pfn + mem.PFN(i)
		b.freeMap[p>>6] |= 1 << (p & 63)
	}
}

// markBusy clears the free bit for a run of frames.
func (b *Buddy) markBusy(pfn mem.PFN, pages uint64) {
	for i := uint64(0); i < pages; i++ {
		p := pfn + mem.PFN(i)
		b.freeMap[p>>6] &^= 1 << (p & 63)
	}
}

// blockBytes returns the backing storage of the whole order-sized block
// starting at p.
func (b *Buddy) blockBytes(p *mem.Page, order int) []byte {
	start := p.BaseAddress()
	end := start + (format.PagesPerBlock(order) << format.PageBits)
	return b.pt.Bytes()[start:end]
}

// insertFreeBlock splices block into the order's free list at its
// ascending-pfn position.
//
// The list is strictly sorted, so the positional scan's stop slot is the only
// place a same-order duplicate could live; comparing that slot makes each list
// a proper set. Duplicates that coalesced to a different order are outside
// this list's view and are caught by the freeMap check on the free path. The
// walk additionally asserts that successive entries strictly increase,
// catching a corrupted chain before it is extended.
func (b *Buddy) insertFreeBlock(order int, block *mem.Page) {
	invariantf(b.orderInRange(order), "insert: order %d not in [0, %d]", order, b.lastOrder)
	target := block.PFN()
	invariantf(format.BlockAligned(order, uint64(target)),
		"insert: pfn %d not aligned to order %d", target, order)

	prev := nilPFN
	cur := b.freeList[order]
	for cur != nilPFN && cur < target {
		next := b.readLink(b.pt.Page(cur))
		invariantf(next == nilPFN || next > cur,
			"insert: order-%d list not strictly ascending after pfn %d", order, cur)
		prev, cur = cur, next
	}

	invariantf(cur != target, "insert: pfn %d already free at order %d (double free?)", target, order)

	b.writeLink(block, cur)
	if prev == nilPFN {
		b.freeList[order] = target
	} else {
		b.writeLink(b.pt.Page(prev), target)
	}
}

// removeFreeBlock unlinks block from the order's free list and clears its
// stored link word. The block must be present.
func (b *Buddy) removeFreeBlock(order int, block *mem.Page) {
	invariantf(b.orderInRange(order), "remove: order %d not in [0, %d]", order, b.lastOrder)
	target := block.PFN()
	invariantf(format.BlockAligned(order, uint64(target)),
		"remove: pfn %d not aligned to order %d", target, order)

	prev := nilPFN
	cur := b.freeList[order]
	for cur != nilPFN && cur != target {
		prev, cur = cur, b.readLink(b.pt.Page(cur))
	}

	invariantf(cur == target, "remove: pfn %d not in order-%d free list", target, order)

	next := b.readLink(block)
	if prev == nilPFN {
		b.freeList[order] = next
	} else {
		b.writeLink(b.pt.Page(prev), next)
	}
	b.clearLink(block)
}

// isInFreeList reports whether pfn heads a free block in the order's list.
func (b *Buddy) isInFreeList(order int, pfn mem.PFN) bool {
	invariantf(b.orderInRange(order), "lookup: order %d not in [0, %d]", order, b.lastOrder)

	for cur := b.freeList[order]; cur != nilPFN; cur = b.readLink(b.pt.Page(cur)) {
		if cur == pfn {
			return true
		}
		if cur > pfn {
			// Lists are ascending; no point walking past the target.
			return false
		}
	}
	return false
}

// splitBlock removes a free order-sized block from its list and inserts its
// two half-order children. Splitting strictly lowers the held order; no
// merging is attempted here.
func (b *Buddy) splitBlock(order int, block *mem.Page) {
	invariantf(order > 0 && order <= b.lastOrder, "split: order %d not in [1, %d]", order, b.lastOrder)
	invariantf(format.BlockAligned(order, uint64(block.PFN())),
		"split: pfn %d not aligned to order %d", block.PFN(), order)

	b.removeFreeBlock(order, block)

	lower := order - 1
	half := format.PagesPerBlock(lower)
	right := b.pt.Page(block.PFN() + mem.PFN(half))

	b.insertFreeBlock(lower, block)
	b.insertFreeBlock(lower, right)
	b.stats.SplitCount++
}

// mergeBuddies removes block and its buddy from the order's free list and
// inserts the combined block one order up. Both halves must currently be
// free at the given order.
func (b *Buddy) mergeBuddies(order int, block *mem.Page) {
	invariantf(order >= 0 && order < b.lastOrder, "merge: order %d not in [0, %d)", order, b.lastOrder)
	pfn := uint64(block.PFN())
	invariantf(format.BlockAligned(order, pfn), "merge: pfn %d not aligned to order %d", pfn, order)

	buddy := b.pt.Page(mem.PFN(format.BuddyPFN(order, pfn)))

	// Both removals are fatal if the entry is absent, which enforces the
	// precondition that buddies are only merged while both are free.
	b.removeFreeBlock(order, block)
	b.removeFreeBlock(order, buddy)

	merged := b.pt.Page(mem.PFN(format.MergedPFN(order, pfn)))
	b.insertFreeBlock(order+1, merged)
	b.stats.MergeCount++
}

// AllocatePages allocates a naturally aligned block of 2^order pages.
//
// The free lists are searched from the requested order upward; the first
// match is removed and split down until it is exactly the requested size,
// reinserting the upper half at each step. Exhaustion returns ErrNoMemory
// with every invariant intact. FlagZero clears the block before return.
func (b *Buddy) AllocatePages(order int, flags Flags) (*mem.Page, error) {
	b.stats.AllocCalls++

	if !b.orderInRange(order) {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrBadOrder, order, b.lastOrder)
	}

	for o := order; o <= b.lastOrder; o++ {
		if b.freeList[o] == nilPFN {
			continue
		}

		block := b.pt.Page(b.freeList[o])
		b.removeFreeBlock(o, block)
		base := block.PFN()

		// Split down to the requested order: the lower half stays with
		// the allocation, the upper half goes back one order lower.
		for cur := o; cur > order; {
			cur--
			upper := b.pt.Page(base + mem.PFN(format.PagesPerBlock(cur)))
			b.insertFreeBlock(cur, upper)
			b.stats.SplitCount++
		}

		pages := format.PagesPerBlock(order)
		b.totalFree -= pages
		b.stats.PagesServed += int64(pages)
		b.markBusy(base, pages)

		ret := b.pt.Page(base)
		if flags&FlagZero != 0 {
			memops.Zero(b.blockBytes(ret, order))
		}
		return ret, nil
	}

	b.stats.AllocFailures++
	if logAlloc {
		fmt.Fprintf(os.Stderr, "[alloc] out of memory: order=%d totalFree=%d\n", order, b.totalFree)
	}
	return nil, ErrNoMemory
}

// FreePages returns a block previously obtained from AllocatePages (or fed in
// during bootstrap) to the order's free list, then coalesces upward: while
// the block's buddy is also free, the pair merges into the next order, until
// a buddy is busy or lastOrder is reached.
//
// A misaligned block, an out-of-range order, or a block overlapping memory
// that is already free (a double free, whatever order the first free
// coalesced to) is a fatal invariant violation since it indicates a bug
// elsewhere in the kernel.
func (b *Buddy) FreePages(block *mem.Page, order int) {
	b.stats.FreeCalls++
	invariantf(block != nil, "free: nil block")
	invariantf(b.orderInRange(order), "free: order %d not in [0, %d]", order, b.lastOrder)
	invariantf(format.BlockAligned(order, uint64(block.PFN())),
		"free: pfn %d not aligned to order %d", block.PFN(), order)

	pages := format.PagesPerBlock(order)
	invariantf(uint64(block.PFN())+pages <= b.pt.NumPages(),
		"free: block [%d, %d) exceeds frame table (%d pages)",
		block.PFN(), uint64(block.PFN())+pages, b.pt.NumPages())
	for i := uint64(0); i < pages; i++ {
		pfn := block.PFN() + mem.PFN(i)
		invariantf(!b.pageIsFree(pfn), "free: pfn %d already free (double free?)", pfn)
	}

	b.insertFreeBlock(order, block)
	b.markFree(block.PFN(), pages)
	b.totalFree += pages
	b.stats.PagesReleased += int64(pages)

	cur := uint64(block.PFN())
	for o := order; o < b.lastOrder; o++ {
		buddy := format.BuddyPFN(o, cur)
		if buddy >= b.pt.NumPages() {
			// Buddy lies beyond the frame table, so it can never be free.
			break
		}
		if !b.isInFreeList(o, mem.PFN(buddy)) {
			break
		}
		b.mergeBuddies(o, b.pt.Page(mem.PFN(cur)))
		cur = format.MergedPFN(o, cur)
	}
}

// InsertFreePages feeds an arbitrary contiguous run of free pages into the
// allocator. The run is decomposed greedily into maximal aligned blocks: at
// each step the largest order fitting both the current position's alignment
// and the pages remaining is freed (which also coalesces it with any already
// free neighbor), then the position advances past it.
func (b *Buddy) InsertFreePages(start *mem.Page, count uint64) {
	invariantf(start != nil, "bootstrap: nil range start")
	invariantf(uint64(start.PFN())+count <= b.pt.NumPages(),
		"bootstrap: range [%d, %d) exceeds frame table (%d pages)",
		start.PFN(), uint64(start.PFN())+count, b.pt.NumPages())
	b.stats.RangeInserts++

	cur := start.PFN()
	remaining := count
	for remaining > 0 {
		order := b.lastOrder
		for order > 0 && (!format.BlockAligned(order, uint64(cur)) ||
			format.PagesPerBlock(order) > remaining) {
			order--
		}

		b.FreePages(b.pt.Page(cur), order)

		step := format.PagesPerBlock(order)
		cur += mem.PFN(step)
		remaining -= step
	}
}
