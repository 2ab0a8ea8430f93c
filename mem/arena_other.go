//go:build !linux && !darwin

package mem

// arena backs physical memory with a plain heap slice on platforms where the
// anonymous-mmap path isn't used.
type arena struct {
	data []byte
}

func mapArena(size uint64) (*arena, error) {
	return &arena{data: make([]byte, size)}, nil
}

func (a *arena) close() error {
	a.data = nil
	return nil
}
