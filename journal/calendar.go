package journal

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/shvtools/shvjournal/chainpack"
)

// FileExt is the journal file suffix.
const FileExt = ".log2"

// Separator positions inside "2020-01-15T13:07:42.123" that are
// substituted with '-' to make a filesystem-safe name.
const (
	minSepPos  = 13
	secSepPos  = 16
	msecSepPos = 19
)

// FileMsecToFileName encodes a file's first-entry timestamp into its
// on-disk name, e.g. 1000000 -> "1970-01-01T00-16-40-000.log2".
func FileMsecToFileName(msec int64) string {
	s := chainpack.FromMSecs(msec).ToIsoString(chainpack.MsecAlways, false)
	b := []byte(s)
	b[minSepPos] = '-'
	b[secSepPos] = '-'
	b[msecSepPos] = '-'
	return string(b) + FileExt
}

// FileNameToFileMsec decodes a journal file name back to its first-entry
// timestamp. Malformed names yield an error.
func FileNameToFileMsec(fn string) (int64, error) {
	if !strings.HasSuffix(fn, FileExt) {
		return 0, errors.Errorf("file name %q without %s extension", fn, FileExt)
	}
	s := fn[:len(fn)-len(FileExt)]
	if len(s) <= msecSepPos {
		return 0, errors.Errorf("file name %q too short", fn)
	}
	b := []byte(s)
	b[minSepPos] = ':'
	b[secSepPos] = ':'
	b[msecSepPos] = '.'
	dt, n := chainpack.ParseISO(string(b))
	if n == 0 || dt.Msec == 0 {
		return 0, errors.Errorf("file name %q cannot be converted to date-time", fn)
	}
	return dt.Msec, nil
}
