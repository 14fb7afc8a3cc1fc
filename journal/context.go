package journal

import (
	"path/filepath"

	"github.com/shvtools/shvjournal/chainpack"
)

// Context is the in-memory index of a journal directory. The append
// engine owns its context exclusively; queries work on a copy taken via
// Clone so a running query cannot observe a torn mid-append state.
type Context struct {
	JournalDir string
	DeviceID   string
	DeviceType string
	// Files holds the start-timestamps of all journal files, ascending.
	Files []int64
	// LastFileSize is the byte-size of the newest file.
	LastFileSize int64
	// JournalSize is the byte-size sum of all files.
	JournalSize int64
	// RecentTimeStamp is the timestamp of the last decoded entry in the
	// newest file, or wall-clock now for an empty or corrupt journal.
	RecentTimeStamp int64
	// TypeInfo is the opaque per-path type descriptor map, attached to
	// query results.
	TypeInfo chainpack.RpcValue
	// DirExists records the last directory probe.
	DirExists bool

	consistent bool
}

// IsConsistent reports whether the context reflects the directory state.
func (c *Context) IsConsistent() bool {
	return c.DirExists && c.consistent
}

// FileMsecToFilePath builds the full path of the file starting at msec.
func (c *Context) FileMsecToFilePath(msec int64) string {
	return filepath.Join(c.JournalDir, FileMsecToFileName(msec))
}

// LastFileMsec returns the newest file start-timestamp, -1 when the
// journal holds no files.
func (c *Context) LastFileMsec() int64 {
	if len(c.Files) == 0 {
		return -1
	}
	return c.Files[len(c.Files)-1]
}

// Clone returns a copy with its own Files slice, safe to read without the
// owner's lock. TypeInfo is shared with the original, not copied.
func (c *Context) Clone() Context {
	cp := *c
	cp.Files = append([]int64(nil), c.Files...)
	return cp
}
