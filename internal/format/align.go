package format

// Alignment utilities for order-sized page blocks.
// A block of order o spans 2^o contiguous page frames and must start at a pfn
// divisible by 2^o (natural alignment).

// PagesPerBlock returns the number of pages in a block of the given order.
func PagesPerBlock(order int) uint64 {
	return 1 << uint(order)
}

// BlockAligned reports whether pfn is naturally aligned for the given order.
//
// Example:
//
//	BlockAligned(0, 3) = true
//	BlockAligned(2, 4) = true
//	BlockAligned(2, 6) = false
func BlockAligned(order int, pfn uint64) bool {
	return pfn&(PagesPerBlock(order)-1) == 0
}

// BuddyPFN returns the pfn of the unique same-order buddy of the block
// starting at pfn: the block whose start differs in exactly bit `order`.
func BuddyPFN(order int, pfn uint64) uint64 {
	return pfn ^ PagesPerBlock(order)
}

// MergedPFN returns the start pfn of the order+1 block covering a block and
// its buddy (the smaller of the two pfns).
func MergedPFN(order int, pfn uint64) uint64 {
	return pfn &^ PagesPerBlock(order)
}
