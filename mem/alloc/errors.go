package alloc

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMemory indicates that no free block exists at or above the
	// requested order. This is an ordinary outcome, not a fault: all
	// invariants remain intact and the request may be retried.
	ErrNoMemory = errors.New("alloc: no free block at or above requested order")

	// ErrBadOrder indicates a request outside [0, lastOrder].
	ErrBadOrder = errors.New("alloc: order out of range")

	// ErrNilPageTable indicates the allocator was constructed without a
	// page descriptor table.
	ErrNilPageTable = errors.New("alloc: nil page table")
)

// InvariantError reports a fatal free-list invariant violation: a caller bug
// such as a double free, a misaligned block, or merging a non-free buddy.
// It is delivered by panic, never as an ordinary error return.
type InvariantError struct {
	msg string
}

func (e *InvariantError) Error() string {
	return "alloc: invariant violation: " + e.msg
}

// invariantf panics with an *InvariantError unless cond holds.
func invariantf(cond bool, format string, args ...any) {
	if !cond {
		panic(&InvariantError{msg: fmt.Sprintf(format, args...)})
	}
}
