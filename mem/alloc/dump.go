package alloc

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/framekit/framekit/internal/format"
)

// Dump writes the current state of the free lists to w, one line per order
// with the physical extents of every free block. It is read-only and exists
// purely for debugging; the output reflects the free-list invariants exactly.
func (b *Buddy) Dump(w io.Writer) {
	fmt.Fprintf(w, "*** buddy page allocator - free list ***\n")

	for order := 0; order <= b.lastOrder; order++ {
		fmt.Fprintf(w, "[%02d] ", order)

		for cur := b.freeList[order]; cur != nilPFN; {
			page := b.pt.Page(cur)
			start := page.BaseAddress()
			// Extent runs up to and including the block's last valid byte.
			end := start + (format.PagesPerBlock(order) << format.PageBits) - 1
			fmt.Fprintf(w, "%x--%x ", start, end)

			cur = b.readLink(page)
		}

		fmt.Fprintln(w)
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(w, "total free: %d pages (%d bytes)\n",
		b.totalFree, b.totalFree<<format.PageBits)
}
