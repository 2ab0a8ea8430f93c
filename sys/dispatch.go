package sys

import (
	"errors"
	"io/fs"
)

// Handler services one system call number.
type Handler func(args []uint64) Result

// DirSource supplies directory listings to the ListDir call.
type DirSource interface {
	// ReadDir lists the entries under path. It returns fs.ErrNotExist if
	// the path does not exist and ErrNotDir if it names a non-directory.
	ReadDir(path string) ([]DirectoryEntry, error)
}

// ErrNotDir reports that a ListDir path names something other than a directory.
var ErrNotDir = errors.New("sys: not a directory")

// Dispatcher routes system calls to their handlers. Unknown numbers resolve
// to NotSupported rather than an error: user space must always get a Result.
type Dispatcher struct {
	handlers map[Number]Handler
	dirs     DirSource
}

// NewDispatcher returns a dispatcher with an empty handler table.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Number]Handler)}
}

// Register installs (or replaces) the handler for n.
func (d *Dispatcher) Register(n Number, h Handler) {
	d.handlers[n] = h
}

// SetDirSource installs the directory provider backing ListDir.
func (d *Dispatcher) SetDirSource(src DirSource) {
	d.dirs = src
}

// Dispatch routes a numeric system call.
func (d *Dispatcher) Dispatch(n Number, args ...uint64) Result {
	h, ok := d.handlers[n]
	if !ok {
		return Result{Code: NotSupported}
	}
	return h(args)
}

// ListDirResult pairs ListDir's entries with the usual call result; Data
// carries the entry count.
//
// ListDir lists up to maxEntries entries under path. Missing paths map to
// NotFound, non-directories to NotSupported. Entry names longer than
// MaxNameLen are truncated.
func (d *Dispatcher) ListDir(path string, maxEntries int) ([]DirectoryEntry, Result) {
	if d.dirs == nil {
		return nil, Result{Code: NotSupported}
	}

	entries, err := d.dirs.ReadDir(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, Result{Code: NotFound}
	case errors.Is(err, ErrNotDir):
		return nil, Result{Code: NotSupported}
	case err != nil:
		return nil, Result{Code: NotFound}
	}

	if maxEntries >= 0 && len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}
	for i := range entries {
		if len(entries[i].Name) > MaxNameLen {
			entries[i].Name = entries[i].Name[:MaxNameLen]
		}
	}
	return entries, Result{Code: OK, Data: uint64(len(entries))}
}
