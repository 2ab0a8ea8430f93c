//go:build linux || darwin

package mem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// arena is the contiguous byte region standing in for physical memory.
// On unix it is an anonymous private mapping so large frame tables don't
// churn the Go heap and unused pages stay untouched until first write.
type arena struct {
	data []byte
}

func mapArena(size uint64) (*arena, error) {
	data, err := unix.Mmap(-1, 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mem: mmap %d bytes: %w", size, err)
	}
	return &arena{data: data}, nil
}

func (a *arena) close() error {
	if a.data == nil {
		return nil
	}
	err := unix.Munmap(a.data)
	a.data = nil
	return err
}
