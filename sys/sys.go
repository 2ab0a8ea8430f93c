// Package sys provides the system-call surface of the kernel core: call
// numbers, result codes, and a dispatch table mapping numbers to handlers.
package sys

// Number identifies a system call.
type Number uint64

const (
	Exit Number = iota
	Open
	Close
	Read
	PRead
	Write
	PWrite
	SetFS
	SetGS
	AllocMem
	StartProcess
	WaitForProcess
	StartThread
	StopCurrentThread
	JoinThread
	Sleep
	Poweroff
	IOCtl
	ListDir
)

// ResultCode classifies the outcome of a system call.
type ResultCode uint64

const (
	// OK means the call succeeded; Result.Data carries the payload.
	OK ResultCode = 0
	// NotFound means the named object (path, block, process) was not found.
	NotFound ResultCode = 1
	// NotSupported means the call or its arguments are not supported.
	NotSupported ResultCode = 2
)

// Result is what every system call returns to user space.
type Result struct {
	Code ResultCode
	Data uint64
}

// EntryType classifies a directory entry.
type EntryType uint8

const (
	EntryFile EntryType = 0
	EntryDir  EntryType = 1
)

// MaxNameLen is the longest directory entry name returned to user space;
// longer names are truncated.
const MaxNameLen = 63

// DirectoryEntry describes one entry returned by the ListDir call.
type DirectoryEntry struct {
	Name string
	Size uint64
	Type EntryType
}
