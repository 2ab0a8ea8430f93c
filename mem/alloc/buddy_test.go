package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framekit/framekit/internal/format"
	"github.com/framekit/framekit/mem"
)

func TestNewValidation(t *testing.T) {
	pt, err := mem.NewPageTable(4)
	require.NoError(t, err)
	defer pt.Close()

	_, err = New(nil, 4)
	require.ErrorIs(t, err, ErrNilPageTable)

	_, err = New(pt, -1)
	require.ErrorIs(t, err, ErrBadOrder)

	_, err = New(pt, maxLastOrder+1)
	require.ErrorIs(t, err, ErrBadOrder)

	b, err := New(pt, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, b.LastOrder())
	assert.Zero(t, b.TotalFree())
}

func TestAllocateFreeRoundTrip(t *testing.T) {
	// Capacity 2^4 pages bootstraps to a single order-4 block.
	b := newTestBuddy(t, 16, 4)
	require.Equal(t, uint64(16), b.TotalFree())
	require.Equal(t, []mem.PFN{0}, freeBlocks(b)[4])

	page, err := b.AllocatePages(4, FlagNone)
	require.NoError(t, err)
	require.Equal(t, mem.PFN(0), page.PFN())
	assert.Zero(t, b.TotalFree())

	b.FreePages(page, 4)

	// Back to exactly one free block of order 4 and the original total.
	assert.Equal(t, uint64(16), b.TotalFree())
	blocks := freeBlocks(b)
	assert.Equal(t, []mem.PFN{0}, blocks[4])
	for order := 0; order < 4; order++ {
		assert.Empty(t, blocks[order], "order %d should be empty", order)
	}
	assertInvariants(t, b)
}

func TestAllocateSplitsDownToRequestedOrder(t *testing.T) {
	b := newTestBuddy(t, 16, 4)

	page, err := b.AllocatePages(0, FlagNone)
	require.NoError(t, err)
	assert.Equal(t, mem.PFN(0), page.PFN())
	assert.Equal(t, uint64(15), b.TotalFree())

	// Splitting 16 -> 8+8 -> 4+4 -> 2+2 -> 1+1 leaves the upper half at
	// every order on the way down.
	blocks := freeBlocks(b)
	assert.Equal(t, []mem.PFN{1}, blocks[0])
	assert.Equal(t, []mem.PFN{2}, blocks[1])
	assert.Equal(t, []mem.PFN{4}, blocks[2])
	assert.Equal(t, []mem.PFN{8}, blocks[3])
	assert.Equal(t, 4, b.Stats().SplitCount)
	assertInvariants(t, b)
}

func TestAllocatePrefersExactOrder(t *testing.T) {
	b := newEmptyBuddy(t, 8, 3)
	b.FreePages(b.pt.Page(4), 0)
	b.FreePages(b.pt.Page(6), 1)

	// An exact-order block exists, so no split happens.
	page, err := b.AllocatePages(0, FlagNone)
	require.NoError(t, err)
	assert.Equal(t, mem.PFN(4), page.PFN())
	assert.Zero(t, b.Stats().SplitCount)
	assertInvariants(t, b)
}

func TestAllocateBadOrder(t *testing.T) {
	b := newTestBuddy(t, 8, 3)

	_, err := b.AllocatePages(-1, FlagNone)
	require.ErrorIs(t, err, ErrBadOrder)

	_, err = b.AllocatePages(4, FlagNone)
	require.ErrorIs(t, err, ErrBadOrder)

	// State untouched by rejected requests.
	assert.Equal(t, uint64(8), b.TotalFree())
	assertInvariants(t, b)
}

func TestExhaustion(t *testing.T) {
	const k = 3
	b := newTestBuddy(t, 1<<k, k)

	first, err := b.AllocatePages(k, FlagNone)
	require.NoError(t, err)
	assert.Zero(t, b.TotalFree())

	// Every further order-k request is an ordinary failure, not a fault.
	for i := 0; i < k; i++ {
		page, allocErr := b.AllocatePages(k, FlagNone)
		require.ErrorIs(t, allocErr, ErrNoMemory)
		require.Nil(t, page)
	}
	assert.Zero(t, b.TotalFree())
	assertInvariants(t, b)

	// A failed allocate is safe to reattempt once memory returns.
	b.FreePages(first, k)
	again, err := b.AllocatePages(k, FlagNone)
	require.NoError(t, err)
	assert.Equal(t, mem.PFN(0), again.PFN())
}

func TestFailedAllocateLeavesStateIntact(t *testing.T) {
	b := newTestBuddy(t, 8, 3)

	page, err := b.AllocatePages(2, FlagNone)
	require.NoError(t, err)

	before := freeBlocks(b)
	totalBefore := b.TotalFree()

	// Only one order-2 block remains, so order 3 must fail.
	_, err = b.AllocatePages(3, FlagNone)
	require.ErrorIs(t, err, ErrNoMemory)

	assert.Equal(t, before, freeBlocks(b))
	assert.Equal(t, totalBefore, b.TotalFree())
	assertInvariants(t, b)

	b.FreePages(page, 2)
	assert.Equal(t, uint64(8), b.TotalFree())
}

func TestAllocateZeroFill(t *testing.T) {
	// Dirty the arena before handing it to the allocator.
	b := newEmptyBuddy(t, 8, 3)
	arena := b.pt.Bytes()
	for i := range arena {
		arena[i] = 0xAB
	}
	b.InsertFreePages(b.pt.Page(0), 8)

	got, err := b.AllocatePages(2, FlagZero)
	require.NoError(t, err)
	block := b.blockBytes(got, 2)
	for i := range block {
		require.Equal(t, byte(0), block[i], "byte %d not zeroed", i)
	}

	// Without FlagZero the contents are left as-is (apart from the link
	// word the free list used).
	raw, err := b.AllocatePages(2, FlagNone)
	require.NoError(t, err)
	rawBlock := b.blockBytes(raw, 2)
	assert.Equal(t, byte(0xAB), rawBlock[format.LinkWordSize])
}

func TestTotalFreeAccounting(t *testing.T) {
	b := newTestBuddy(t, 32, 5)
	require.Equal(t, uint64(32), b.TotalFree())

	p0, err := b.AllocatePages(0, FlagNone)
	require.NoError(t, err)
	assert.Equal(t, uint64(31), b.TotalFree())

	p3, err := b.AllocatePages(3, FlagNone)
	require.NoError(t, err)
	assert.Equal(t, uint64(23), b.TotalFree())

	b.FreePages(p3, 3)
	assert.Equal(t, uint64(31), b.TotalFree())

	b.FreePages(p0, 0)
	assert.Equal(t, uint64(32), b.TotalFree())
	assertInvariants(t, b)

	stats := b.Stats()
	assert.Equal(t, int64(9), stats.PagesServed)
	assert.GreaterOrEqual(t, stats.PagesReleased, int64(9))
}

func TestLinkWordClearedOnAllocate(t *testing.T) {
	b := newTestBuddy(t, 4, 2)

	// The order-2 block at pfn 0 heads its list with a nil link.
	require.Equal(t, format.NilLink, format.ReadU64(b.pt.Page(0).Bytes(), 0))

	page, err := b.AllocatePages(2, FlagNone)
	require.NoError(t, err)

	// Ownership of the link-word view ends at removal: the word is cleared.
	assert.Equal(t, uint64(0), format.ReadU64(page.Bytes(), 0))
}
