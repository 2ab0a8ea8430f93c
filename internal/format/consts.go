package format

// Physical memory layout constants.
//
// A page frame is the fixed-size unit of physical memory managed by the page
// allocator. Frames are identified by page-frame-number (pfn); a frame's base
// address is pfn << PageBits.
const (
	// PageBits is log2 of the page size.
	PageBits = 12

	// PageSize is the size of a single page frame in bytes.
	PageSize = 1 << PageBits

	// LinkWordSize is the size of the free-list link word stored in the
	// first bytes of a free page's backing storage.
	LinkWordSize = 8
)

// NilLink terminates an in-page free-list chain. All-ones is never a valid
// pfn (the frame table is bounded well below 2^64 frames).
const NilLink uint64 = ^uint64(0)
