package journal

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/shvtools/shvjournal/chainpack"
	"github.com/shvtools/shvjournal/utils"
	"github.com/shvtools/shvjournal/utils/log"
)

// DefaultGetLogRecordCountLimit caps getLog results regardless of the
// caller's maxRecordCount.
const DefaultGetLogRecordCountLimit = 1000

const (
	defaultFileSizeLimit    = 1024 * 1024
	defaultJournalSizeLimit = 100 * 1024 * 1024
)

// SnapshotFn produces the current state of all continuous signals. The
// engine calls it whenever a new journal file is started, so every file
// opens with a full snapshot and can serve queries on its own.
type SnapshotFn func() []Entry

// FileJournal is the append engine over one journal directory. It is not
// internally thread-safe; callers serialize access.
type FileJournal struct {
	snapshotFn       SnapshotFn
	fileSizeLimit    int64
	journalSizeLimit int64
	ctx              Context
	log1Converted    bool
	nowFn            func() int64
}

// NewFileJournal makes a journal for the given device. The snapshot
// producer may be nil for read-only use; appending without one fails on
// the first new file.
func NewFileJournal(deviceID string, snapshotFn SnapshotFn) *FileJournal {
	j := &FileJournal{
		snapshotFn:       snapshotFn,
		fileSizeLimit:    defaultFileSizeLimit,
		journalSizeLimit: defaultJournalSizeLimit,
		nowFn:            func() int64 { return chainpack.Now().Msec },
	}
	j.ctx.DeviceID = deviceID
	return j
}

func (j *FileJournal) SetJournalDir(dir string)          { j.ctx.JournalDir = dir }
func (j *FileJournal) SetDeviceType(t string)            { j.ctx.DeviceType = t }
func (j *FileJournal) SetTypeInfo(ti chainpack.RpcValue) { j.ctx.TypeInfo = ti }
func (j *FileJournal) SetFileSizeLimit(n int64)          { j.fileSizeLimit = n }
func (j *FileJournal) SetJournalSizeLimit(n int64)       { j.journalSizeLimit = n }

// SetFileSizeLimitString parses limits like "4k", "1m", "2g".
func (j *FileJournal) SetFileSizeLimitString(s string) error {
	n, err := utils.ParseByteSize(s)
	if err != nil {
		return err
	}
	j.fileSizeLimit = n
	return nil
}

// SetJournalSizeLimitString parses limits like "4k", "1m", "2g".
func (j *FileJournal) SetJournalSizeLimitString(s string) error {
	n, err := utils.ParseByteSize(s)
	if err != nil {
		return err
	}
	j.journalSizeLimit = n
	return nil
}

// JournalDir returns the journal directory, falling back to a device-id
// derived path under /tmp/shvjournal when unset.
func (j *FileJournal) JournalDir() string {
	if j.ctx.JournalDir == "" {
		d := "default"
		if j.ctx.DeviceID != "" {
			r := strings.NewReplacer("/", "-", ":", "-", ".", "-")
			d = r.Replace(j.ctx.DeviceID)
		}
		j.ctx.JournalDir = filepath.Join("/tmp/shvjournal", d)
		log.Warn("Journal dir not set, falling back to default value: %s", j.ctx.JournalDir)
	}
	return j.ctx.JournalDir
}

// Append records one entry. It never fails from the caller's view: the
// first error forces a rescan and a single retry, the second is logged.
func (j *FileJournal) Append(e Entry) {
	err := j.appendThrow(e)
	if err == nil {
		return
	}
	log.Info("Append to log failed, journal dir will be read again, storage might be replaced: %v", err)
	if err := j.checkContextHelper(true); err != nil {
		log.Warn("Append to log failed after journal dir check: %v", err)
		return
	}
	if err := j.appendThrow(e); err != nil {
		log.Warn("Append to log failed after journal dir check: %v", err)
	}
}

func (j *FileJournal) appendThrow(e Entry) error {
	if err := j.ensureJournalDir(); err != nil {
		return err
	}
	if err := j.checkContextHelper(false); err != nil {
		return err
	}

	msec := e.EpochMsec
	if msec == 0 {
		msec = j.nowFn()
	}
	if msec < j.ctx.RecentTimeStamp {
		msec = j.ctx.RecentTimeStamp
	}

	var fileMsec int64
	switch {
	case len(j.ctx.Files) == 0:
		fileMsec = msec
	case j.ctx.LastFileSize > j.fileSizeLimit:
		// rotate by size
		fileMsec = msec
	default:
		fileMsec = j.ctx.LastFileMsec()
	}
	if last := j.ctx.LastFileMsec(); last >= 0 && fileMsec < last {
		return ContextCorruptedError(j.ctx.JournalDir)
	}

	fn := j.ctx.FileMsecToFilePath(fileMsec)
	var origSize int64
	if fi, err := os.Stat(fn); err == nil {
		origSize = fi.Size()
	}
	if origSize == 0 && j.snapshotFn == nil {
		return NoSnapshotFnError(j.ctx.JournalDir)
	}
	w, err := NewWriter(fn, fileMsec)
	if err != nil {
		return err
	}
	defer w.Close()
	if origSize == 0 {
		// new file starts with a snapshot
		log.Debug("new file, snapshot will be written to: %s", fn)
		snapshot := j.snapshotFn()
		if len(snapshot) == 0 {
			log.Warn("Empty snapshot created")
		}
		for _, se := range snapshot {
			if err := w.AppendMonotonic(se); err != nil {
				return err
			}
		}
		j.ctx.Files = append(j.ctx.Files, fileMsec)
	}
	e.EpochMsec = msec
	if err := w.AppendMonotonic(e); err != nil {
		return err
	}
	newSize, err := w.FileSize()
	if err != nil {
		return err
	}
	j.ctx.LastFileSize = newSize
	j.ctx.JournalSize += newSize - origSize
	j.ctx.RecentTimeStamp = msec
	if j.ctx.JournalSize > j.journalSizeLimit {
		j.rotateJournal()
	}
	return nil
}

func (j *FileJournal) ensureJournalDir() error {
	if err := os.MkdirAll(j.JournalDir(), 0o755); err != nil {
		j.ctx.DirExists = false
		return errors.Wrapf(err, "journal dir %s does not exist and cannot be created", j.ctx.JournalDir)
	}
	j.ctx.DirExists = true
	return nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func (j *FileJournal) checkContextHelper(force bool) error {
	if !j.ctx.IsConsistent() || force {
		j.ctx.DirExists = isDir(j.JournalDir())
		if j.ctx.DirExists {
			if err := j.updateJournalStatus(); err != nil {
				j.ctx.consistent = false
				log.Warn("Journal dir scan failed: %v", err)
			}
		} else {
			log.Warn("Journal dir: %s does not exist!", j.ctx.JournalDir)
		}
	}
	if !j.ctx.IsConsistent() {
		return InconsistentJournalError(j.ctx.JournalDir)
	}
	return nil
}

// CheckContext brings the context to a consistent state, forcing a
// rescan if the cheap check fails, and returns a query-safe copy.
func (j *FileJournal) CheckContext() (Context, error) {
	if err := j.checkContextHelper(false); err != nil {
		log.Info("Journal consistency check failed, journal dir will be read again, error: %v", err)
		if err := j.checkContextHelper(true); err != nil {
			return Context{}, err
		}
	}
	return j.ctx.Clone(), nil
}

func (j *FileJournal) updateJournalStatus() error {
	if err := j.updateJournalFiles(); err != nil {
		return err
	}
	j.updateRecentTimeStamp()
	j.ctx.consistent = true
	return nil
}

func (j *FileJournal) updateJournalFiles() error {
	j.ctx.JournalSize = 0
	j.ctx.LastFileSize = 0
	j.ctx.Files = j.ctx.Files[:0]
	maxFileMsec := int64(-1)
	entries, err := os.ReadDir(j.ctx.JournalDir)
	if err != nil {
		return errors.Wrapf(err, "cannot read content of dir %s", j.ctx.JournalDir)
	}
	for _, de := range entries {
		if !de.Type().IsRegular() {
			continue
		}
		fn := de.Name()
		if !strings.HasSuffix(fn, FileExt) {
			continue
		}
		msec, err := FileNameToFileMsec(fn)
		if err != nil {
			log.Warn("Malformed journal file name %s: %v", fn, err)
			continue
		}
		fi, err := de.Info()
		if err != nil {
			log.Warn("Cannot stat file: %s", fn)
			continue
		}
		j.ctx.Files = append(j.ctx.Files, msec)
		if msec > maxFileMsec {
			maxFileMsec = msec
			j.ctx.LastFileSize = fi.Size()
		}
		j.ctx.JournalSize += fi.Size()
	}
	sort.Slice(j.ctx.Files, func(a, b int) bool { return j.ctx.Files[a] < j.ctx.Files[b] })
	log.Debug("journal dir contains %d files", len(j.ctx.Files))
	return nil
}

func (j *FileJournal) updateRecentTimeStamp() {
	if len(j.ctx.Files) == 0 {
		j.ctx.RecentTimeStamp = j.nowFn()
		return
	}
	fn := j.ctx.FileMsecToFilePath(j.ctx.LastFileMsec())
	msec, err := findLastEntryMsec(fn)
	if err != nil || msec < 0 {
		if err != nil {
			log.Warn("Cannot find last entry date-time in %s: %v", fn, err)
		}
		// no valid date-time in the newest file, fall back to wall-clock now
		j.ctx.RecentTimeStamp = j.nowFn()
		return
	}
	j.ctx.RecentTimeStamp = msec
}

// reverse scan parameters: the buffer must exceed the longest serialized
// date-time (28 bytes for 2018-01-10T12:03:56.123+0130), the overlap
// keeps a date-time split across chunk borders readable.
const (
	reverseScanSkip = 128
	reverseScanTail = 30
)

// findLastEntryMsec scans the file backwards in reverseScanSkip-byte
// chunks looking for record-separator-prefixed date-time fields and
// returns the highest valid timestamp, -1 when none is found.
func findLastEntryMsec(fn string) (int64, error) {
	f, err := os.Open(fn)
	if err != nil {
		return -1, errors.Wrapf(err, "cannot open file %s for reading", fn)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return -1, errors.Wrapf(err, "cannot stat file %s", fn)
	}
	fpos := fi.Size()
	checkAt := func(chunk []byte, recStart int) int64 {
		tab := -1
		for i := recStart; i < len(chunk); i++ {
			if chunk[i] == FieldSeparator {
				tab = i
				break
			}
		}
		if tab < 0 {
			if len(chunk)-recStart > 0 {
				log.Warn("%s Truncated journal date-time: %q will be ignored", fn, string(chunk[recStart:]))
			}
			return -1
		}
		s := string(chunk[recStart:tab])
		dt, n := chainpack.ParseISO(s)
		if n == 0 {
			log.Warn("%s Malformed journal date-time: %q will be ignored", fn, s)
			return -1
		}
		return dt.Msec
	}
	for fpos > 0 {
		fpos -= reverseScanSkip
		chunkLen := int64(reverseScanSkip)
		if fpos < 0 {
			chunkLen += fpos
			fpos = 0
		}
		chunkLen += reverseScanTail
		buf := make([]byte, chunkLen)
		n, _ := f.ReadAt(buf, fpos)
		chunk := buf[:n]
		dtMsec := int64(-1)
		if fpos == 0 && len(chunk) > 0 {
			// the first record of a file has no separator before it
			if ms := checkAt(chunk, 0); ms > 0 {
				dtMsec = ms
			}
		}
		for i := 0; i < len(chunk); i++ {
			if chunk[i] != RecordSeparator {
				continue
			}
			if ms := checkAt(chunk, i+1); ms > 0 {
				dtMsec = ms
			}
		}
		if dtMsec > 0 {
			return dtMsec, nil
		}
	}
	log.Warn("%s File does not contain a record with valid date-time", fn)
	return -1, nil
}

func rmFile(fn string) int64 {
	fi, err := os.Stat(fn)
	if err != nil {
		log.Warn("Cannot stat file: %s", fn)
		return 0
	}
	if err := os.Remove(fn); err != nil {
		log.Warn("Cannot delete file: %s", fn)
		return 0
	}
	return fi.Size()
}

// rotateJournal deletes the oldest files until the journal fits its size
// limit again. The newest file always survives, even when it alone
// exceeds the limit under bad configuration.
func (j *FileJournal) rotateJournal() {
	log.Info("Rotating journal of size: %d", j.ctx.JournalSize)
	if err := j.updateJournalFiles(); err != nil {
		log.Warn("Journal rotation rescan failed: %v", err)
		return
	}
	fileCnt := len(j.ctx.Files)
	for _, fileMsec := range j.ctx.Files {
		if fileCnt == 1 {
			break
		}
		if j.ctx.JournalSize <= j.journalSizeLimit {
			break
		}
		fn := j.ctx.FileMsecToFilePath(fileMsec)
		log.Info("deleting file: %s", fn)
		j.ctx.JournalSize -= rmFile(fn)
		fileCnt--
	}
	if err := j.updateJournalStatus(); err != nil {
		log.Warn("Journal rescan after rotation failed: %v", err)
	}
	log.Info("New journal size: %d", j.ctx.JournalSize)
}

// ConvertLog1Dir renames legacy ".log" files (named by sequence number,
// starting with an ISO date-time line) to the current calendar format.
// It runs at most once per process and is idempotent; per-file errors
// are logged and never abort the scan.
func (j *FileJournal) ConvertLog1Dir() {
	if j.log1Converted {
		return
	}
	j.log1Converted = true
	dir := j.JournalDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Error("Cannot read content of dir: %s", dir)
		return
	}
	const ext = ".log"
	nFiles := 0
	for _, de := range entries {
		if !de.Type().IsRegular() {
			continue
		}
		fn := de.Name()
		if !strings.HasSuffix(fn, ext) {
			continue
		}
		if nFiles == 0 {
			log.Info("======= Journal1 format file(s) found, converting to format 2")
		}
		nFiles++
		n, err := strconv.Atoi(fn[:len(fn)-len(ext)])
		if err != nil || n <= 0 {
			log.Warn("Malformed journal file name %s", fn)
			continue
		}
		full := filepath.Join(dir, fn)
		buf := make([]byte, reverseScanTail)
		f, err := os.Open(full)
		if err != nil {
			log.Warn("Cannot open file: %s for reading", full)
			continue
		}
		cnt, _ := f.Read(buf)
		f.Close()
		if cnt <= 0 {
			log.Warn("Cannot read date-time from first line of file: %s", full)
			continue
		}
		dt, consumed := chainpack.ParseISO(string(buf[:cnt]))
		if consumed == 0 || dt.Msec == 0 {
			log.Warn("Cannot read date-time from first line of file: %s line: %q", full, string(buf[:cnt]))
			continue
		}
		newFn := filepath.Join(dir, FileMsecToFileName(dt.Msec))
		log.Info("renaming %s -> %s", full, newFn)
		if err := os.Rename(full, newFn); err != nil {
			log.Error("cannot rename: %s to: %s", full, newFn)
		}
	}
}
