package sys

import (
	"os"
	"path/filepath"
	"strings"
)

// HostDir exposes a host directory tree through the DirSource interface,
// jailed to its root: paths are interpreted relative to the root and cannot
// escape it.
type HostDir struct {
	root string
}

// NewHostDir returns a DirSource rooted at root.
func NewHostDir(root string) *HostDir {
	return &HostDir{root: root}
}

// ReadDir implements DirSource.
func (h *HostDir) ReadDir(path string) ([]DirectoryEntry, error) {
	full := h.resolve(path)

	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, ErrNotDir
	}

	dirents, err := os.ReadDir(full)
	if err != nil {
		return nil, err
	}

	entries := make([]DirectoryEntry, 0, len(dirents))
	for _, de := range dirents {
		e := DirectoryEntry{Name: de.Name(), Type: EntryFile}
		if de.IsDir() {
			e.Type = EntryDir
		}
		// Directories report their on-disk size too, like a stat would.
		if fi, infoErr := de.Info(); infoErr == nil {
			e.Size = uint64(fi.Size())
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// resolve maps a user-supplied path under the jail root. Leading separators
// and parent traversals are stripped by cleaning against a virtual root.
func (h *HostDir) resolve(path string) string {
	cleaned := filepath.Clean("/" + strings.TrimPrefix(path, "/"))
	return filepath.Join(h.root, cleaned)
}
