package machine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framekit/framekit/mem"
	"github.com/framekit/framekit/sys"
)

func newTestMachine(t *testing.T, cfg Config) *Machine {
	t.Helper()
	m, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestBootDefaults(t *testing.T) {
	m := newTestMachine(t, Config{})

	assert.Equal(t, uint64(1024), m.PageTable().NumPages())
	assert.Equal(t, uint64(1024), m.TotalFree())
	assert.Equal(t, 10, m.Alloc.LastOrder())
}

func TestBootWithReservedRanges(t *testing.T) {
	// Withhold the kernel image at [0, 16) and a device hole at [48, 16).
	m := newTestMachine(t, Config{
		Pages:     128,
		LastOrder: 5,
		Reserved: []Range{
			{Start: 0, Count: 16},
			{Start: 48, Count: 16},
		},
	})

	assert.Equal(t, uint64(128-32), m.TotalFree())

	// Every page the allocator hands out must avoid the reserved holes.
	seen := make(map[mem.PFN]bool)
	for {
		page, err := m.Alloc.AllocatePages(0, 0)
		if err != nil {
			break
		}
		pfn := page.PFN()
		require.False(t, seen[pfn])
		seen[pfn] = true
		require.True(t, (pfn >= 16 && pfn < 48) || pfn >= 64, "pfn %d is reserved", pfn)
	}
	assert.Len(t, seen, 128-32)
}

func TestBootRejectsBadReserved(t *testing.T) {
	_, err := New(Config{Pages: 64, LastOrder: 3, Reserved: []Range{{Start: 60, Count: 8}}})
	require.ErrorIs(t, err, ErrBadConfig)

	_, err = New(Config{Pages: 64, LastOrder: 3, Reserved: []Range{
		{Start: 8, Count: 8},
		{Start: 12, Count: 4},
	}})
	require.ErrorIs(t, err, ErrBadConfig)

	_, err = New(Config{Pages: 64, LastOrder: 3, Reserved: []Range{{Start: 8, Count: 0}}})
	require.ErrorIs(t, err, ErrBadConfig)
}

func TestSysAllocMem(t *testing.T) {
	m := newTestMachine(t, Config{Pages: 16, LastOrder: 4})

	res := m.Sys.Dispatch(sys.AllocMem, 4, 0)
	require.Equal(t, sys.OK, res.Code)
	assert.Equal(t, uint64(0), res.Data)
	assert.Zero(t, m.TotalFree())

	// Exhausted: no block found.
	res = m.Sys.Dispatch(sys.AllocMem, 0, 0)
	assert.Equal(t, sys.NotFound, res.Code)

	// Order beyond lastOrder is not supported.
	res = m.Sys.Dispatch(sys.AllocMem, 5, 0)
	assert.Equal(t, sys.NotSupported, res.Code)

	// Missing arguments.
	res = m.Sys.Dispatch(sys.AllocMem, 1)
	assert.Equal(t, sys.NotSupported, res.Code)
}

func TestSysPoweroff(t *testing.T) {
	m := newTestMachine(t, Config{Pages: 16, LastOrder: 2})

	require.False(t, m.PoweredOff())
	res := m.Sys.Dispatch(sys.Poweroff)
	assert.Equal(t, sys.OK, res.Code)
	assert.True(t, m.PoweredOff())
}

func TestStressRestoresFreeTotal(t *testing.T) {
	m := newTestMachine(t, Config{Pages: 256, LastOrder: 6})

	report := m.Stress(5000)
	assert.Equal(t, 5000, report.Ops)
	assert.Equal(t, uint64(256), m.TotalFree(), "stress must free everything it held")
	assert.Positive(t, report.Stats.AllocCalls)
	assert.LessOrEqual(t, report.PeakPages, uint64(256))
}

func TestDump(t *testing.T) {
	m := newTestMachine(t, Config{Pages: 16, LastOrder: 4})

	var buf bytes.Buffer
	m.Dump(&buf)
	assert.Contains(t, buf.String(), "*** buddy page allocator - free list ***")
	assert.Contains(t, buf.String(), "total free: 16 pages")
}
