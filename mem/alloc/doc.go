// Package alloc implements the physical page buddy allocator.
//
// # Overview
//
// The allocator manages a flat table of page frames through an array of
// singly-linked free lists, one per allocation order 0..lastOrder. A block of
// order o spans 2^o contiguous, naturally aligned frames. Allocation searches
// the requested order upward and splits the first match down; freeing inserts
// the block and coalesces it with its buddy upward as far as possible.
//
// # Free-list bookkeeping
//
// Free memory doubles as its own metadata: the link to the next free block is
// stored in the first 8 bytes of a free block's backing storage. A free block
// temporarily owns that view of its own bytes; the link word is invalidated
// the instant the block is removed from a list. Beside the lists the
// allocator keeps one bit per frame recording whether the frame is covered by
// any free block, which is how a double free is caught even after the first
// free coalesced the block into a larger one at a different order.
//
// # Error model
//
// Exhaustion is an ordinary outcome: AllocatePages returns ErrNoMemory and
// leaves every invariant intact, so the caller may retry at a smaller order.
// Everything else — out-of-range orders on internal paths, misaligned blocks,
// freeing a block that is not in the expected list, merging a non-free buddy,
// double frees — indicates a kernel bug and panics with *InvariantError
// rather than attempting silent recovery, because continuing would corrupt
// the free lists for every subsequent operation.
//
// # Usage
//
//	pt, _ := mem.NewPageTable(1024)
//	b, _ := alloc.New(pt, 10)
//	b.InsertFreePages(pt.Page(0), pt.NumPages())
//
//	page, err := b.AllocatePages(2, alloc.FlagZero)
//	if err != nil {
//	    // out of memory at order 2 and above
//	}
//	b.FreePages(page, 2)
//
// # Thread safety
//
// Allocator instances are not thread-safe and never block. Callers requiring
// concurrent access must wrap every entry point in a single mutual-exclusion
// boundary; the allocator deliberately does not acquire locks itself.
package alloc
