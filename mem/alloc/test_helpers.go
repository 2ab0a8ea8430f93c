package alloc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framekit/framekit/internal/format"
	"github.com/framekit/framekit/mem"
)

// newTestBuddy builds an allocator over a fresh npages arena with every page
// fed in as free.
func newTestBuddy(t *testing.T, npages uint64, lastOrder int) *Buddy {
	t.Helper()

	b := newEmptyBuddy(t, npages, lastOrder)
	b.InsertFreePages(b.pt.Page(0), npages)
	return b
}

// newEmptyBuddy builds an allocator with empty free lists.
func newEmptyBuddy(t *testing.T, npages uint64, lastOrder int) *Buddy {
	t.Helper()

	pt, err := mem.NewPageTable(npages)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pt.Close() })

	b, err := New(pt, lastOrder)
	require.NoError(t, err)
	return b
}

// freeBlocks walks every free list and returns the block-start pfns per order.
func freeBlocks(b *Buddy) map[int][]mem.PFN {
	out := make(map[int][]mem.PFN)
	for order := 0; order <= b.lastOrder; order++ {
		for cur := b.freeList[order]; cur != nilPFN; cur = b.readLink(b.pt.Page(cur)) {
			out[order] = append(out[order], cur)
		}
	}
	return out
}

// freePFNs returns the set of every pfn covered by any free block.
func freePFNs(b *Buddy) map[mem.PFN]bool {
	out := make(map[mem.PFN]bool)
	for order, blocks := range freeBlocks(b) {
		for _, start := range blocks {
			for i := uint64(0); i < format.PagesPerBlock(order); i++ {
				out[start+mem.PFN(i)] = true
			}
		}
	}
	return out
}

// assertInvariants checks the structural invariants that must hold before and
// after every public operation:
//   - every order-o entry starts at a pfn divisible by 2^o
//   - each list is strictly ascending with no duplicates
//   - no page is covered by more than one free block
//   - the per-page free map agrees with the lists exactly
//   - totalFree equals the sum of 2^order * count over all lists
//   - no two free buddies coexist at any order below lastOrder
func assertInvariants(t *testing.T, b *Buddy) {
	t.Helper()

	covered := make(map[mem.PFN]string)
	var total uint64

	for order := 0; order <= b.lastOrder; order++ {
		prev := nilPFN
		for cur := b.freeList[order]; cur != nilPFN; cur = b.readLink(b.pt.Page(cur)) {
			require.True(t, format.BlockAligned(order, uint64(cur)),
				"order-%d entry at pfn %d is misaligned", order, cur)
			if prev != nilPFN {
				require.Greater(t, cur, prev,
					"order-%d list not strictly ascending at pfn %d", order, cur)
			}

			pages := format.PagesPerBlock(order)
			desc := fmt.Sprintf("order-%d block at pfn %d", order, cur)
			for i := uint64(0); i < pages; i++ {
				pfn := cur + mem.PFN(i)
				require.Empty(t, covered[pfn],
					"pfn %d covered by both %s and %s", pfn, covered[pfn], desc)
				covered[pfn] = desc
			}

			total += pages
			prev = cur
		}
	}

	require.Equal(t, total, b.TotalFree(), "totalFree out of sync with the lists")

	for pfn := uint64(0); pfn < b.pt.NumPages(); pfn++ {
		_, inList := covered[mem.PFN(pfn)]
		require.Equal(t, inList, b.pageIsFree(mem.PFN(pfn)),
			"free map disagrees with the lists at pfn %d", pfn)
	}

	for order := 0; order < b.lastOrder; order++ {
		for cur := b.freeList[order]; cur != nilPFN; cur = b.readLink(b.pt.Page(cur)) {
			buddy := format.BuddyPFN(order, uint64(cur))
			if buddy >= b.pt.NumPages() {
				continue
			}
			require.False(t, b.isInFreeList(order, mem.PFN(buddy)),
				"buddies %d and %d both free at order %d", cur, buddy, order)
		}
	}
}

// requireInvariantPanic asserts that fn aborts with an *InvariantError.
func requireInvariantPanic(t *testing.T, fn func()) {
	t.Helper()

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a fatal invariant violation")
		err, ok := r.(error)
		require.True(t, ok, "panic value is not an error: %v", r)
		var ie *InvariantError
		require.ErrorAs(t, err, &ie)
	}()
	fn()
}
