package alloc

// Flags configures a page allocation request.
type Flags uint32

const (
	// FlagNone requests pages with their contents left as-is.
	FlagNone Flags = 0

	// FlagZero fills the allocated block with zero bytes before returning.
	FlagZero Flags = 1 << 0
)

// Stats holds internal allocator counters for diagnostics and tests.
type Stats struct {
	AllocCalls    int   // Total AllocatePages() calls
	AllocFailures int   // Calls that returned ErrNoMemory
	FreeCalls     int   // Total FreePages() calls
	SplitCount    int   // Block splits (explicit and on the allocate path)
	MergeCount    int   // Buddy merges
	RangeInserts  int   // InsertFreePages() calls
	PagesServed   int64 // Total pages handed to callers
	PagesReleased int64 // Total pages returned by callers
}
