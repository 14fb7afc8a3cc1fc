package journal

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shvtools/shvjournal/chainpack"
)

func emptySnapshot() []Entry { return nil }

func newTestJournal(t *testing.T, snapFn SnapshotFn) *FileJournal {
	t.Helper()
	j := NewFileJournal("test-device", snapFn)
	j.SetJournalDir(t.TempDir())
	return j
}

func setClock(j *FileJournal, msec int64) {
	j.nowFn = func() int64 { return msec }
}

func journalFileNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal("failed to read journal dir. err=" + err.Error())
	}
	var names []string
	for _, de := range entries {
		names = append(names, de.Name())
	}
	sort.Strings(names)
	return names
}

func readJournal(t *testing.T, dir string) []Entry {
	t.Helper()
	var all []Entry
	for _, fn := range journalFileNames(t, dir) {
		all = append(all, readEntries(t, filepath.Join(dir, fn))...)
	}
	return all
}

func TestNewFileStartsWithSnapshot(t *testing.T) {
	snapFn := func() []Entry {
		return []Entry{
			NewEntry(0, "a", chainpack.NewInt(1)),
			NewEntry(0, "b", chainpack.NewInt(2)),
		}
	}
	j := newTestJournal(t, snapFn)
	setClock(j, 500_000)

	j.Append(NewEntry(1_000_000, "c", chainpack.NewInt(3)))

	dir := j.JournalDir()
	assert.Equal(t, []string{"1970-01-01T00-16-40-000.log2"}, journalFileNames(t, dir))
	got := readJournal(t, dir)
	assert.Len(t, got, 3)
	for i, want := range []struct {
		path string
		val  int64
	}{{"a", 1}, {"b", 2}, {"c", 3}} {
		assert.Equal(t, want.path, got[i].Path)
		assert.Equal(t, want.val, got[i].Value.ToInt())
		assert.Equal(t, int64(1_000_000), got[i].EpochMsec)
	}
}

func TestAppendSubstitutesClock(t *testing.T) {
	j := newTestJournal(t, emptySnapshot)
	setClock(j, 777_000)

	j.Append(NewEntry(0, "p", chainpack.NewInt(1)))

	got := readJournal(t, j.JournalDir())
	assert.Len(t, got, 1)
	assert.Equal(t, int64(777_000), got[0].EpochMsec)
	ctx, err := j.CheckContext()
	assert.Nil(t, err)
	assert.Equal(t, int64(777_000), ctx.RecentTimeStamp)
}

func TestAppendMonotonicAcrossCalls(t *testing.T) {
	j := newTestJournal(t, emptySnapshot)
	setClock(j, 1000)

	j.Append(NewEntry(2000, "p", chainpack.NewInt(1)))
	j.Append(NewEntry(1500, "p", chainpack.NewInt(2)))
	j.Append(NewEntry(3000, "p", chainpack.NewInt(3)))

	got := readJournal(t, j.JournalDir())
	assert.Len(t, got, 3)
	assert.Equal(t, int64(2000), got[0].EpochMsec)
	// clamped to the recent time stamp, submission order preserved
	assert.Equal(t, int64(2000), got[1].EpochMsec)
	assert.Equal(t, int64(2), got[1].Value.ToInt())
	assert.Equal(t, int64(3000), got[2].EpochMsec)
}

func TestFileSizeRotation(t *testing.T) {
	j := newTestJournal(t, emptySnapshot)
	setClock(j, 1000)
	j.SetFileSizeLimit(1024)

	base := int64(10_000)
	for i := 0; i < 200; i++ {
		j.Append(NewEntry(base+int64(i)*10, "p", chainpack.NewInt(int64(i))))
	}

	dir := j.JournalDir()
	names := journalFileNames(t, dir)
	assert.True(t, len(names) >= 2, "expected rotation to produce multiple files, got %d", len(names))
	// every file except possibly the last stays within limit + one-entry slack
	for _, fn := range names[:len(names)-1] {
		fi, err := os.Stat(filepath.Join(dir, fn))
		assert.Nil(t, err)
		assert.True(t, fi.Size() <= 1024+128, "file %s size %d exceeds limit with slack", fn, fi.Size())
	}
	// the whole directory still reads back in non-decreasing time order
	got := readJournal(t, dir)
	assert.Len(t, got, 200)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].EpochMsec >= got[i-1].EpochMsec)
	}
}

func TestJournalSizeRotation(t *testing.T) {
	j := newTestJournal(t, emptySnapshot)
	setClock(j, 1000)
	j.SetFileSizeLimit(512)
	j.SetJournalSizeLimit(2048)

	base := int64(10_000)
	for i := 0; i < 300; i++ {
		j.Append(NewEntry(base+int64(i)*10, "p", chainpack.NewInt(int64(i))))
	}

	ctx, err := j.CheckContext()
	assert.Nil(t, err)
	assert.True(t, ctx.JournalSize <= 2048 || len(ctx.Files) == 1,
		"journal size %d with %d files", ctx.JournalSize, len(ctx.Files))
	// the oldest data is gone, the newest survives
	got := readJournal(t, j.JournalDir())
	assert.True(t, len(got) > 0)
	assert.Equal(t, int64(299), got[len(got)-1].Value.ToInt())
	assert.True(t, got[0].Value.ToInt() > 0, "oldest file should have been deleted first")
}

func TestRotationKeepsNewestFileUnderBadLimits(t *testing.T) {
	j := newTestJournal(t, emptySnapshot)
	setClock(j, 1000)
	j.SetFileSizeLimit(1024 * 1024)
	// the limit is below a single file's size
	j.SetJournalSizeLimit(1024)

	base := int64(10_000)
	for i := 0; i < 100; i++ {
		j.Append(NewEntry(base+int64(i)*10, "p", chainpack.NewInt(int64(i))))
	}
	ctx, err := j.CheckContext()
	assert.Nil(t, err)
	assert.Len(t, ctx.Files, 1)
}

func TestRecentTimeStampRecovery(t *testing.T) {
	dir := t.TempDir()
	j1 := NewFileJournal("dev", emptySnapshot)
	j1.SetJournalDir(dir)
	setClock(j1, 1000)
	j1.Append(NewEntry(100_000, "p", chainpack.NewInt(1)))
	j1.Append(NewEntry(200_000, "p", chainpack.NewInt(2)))

	j2 := NewFileJournal("dev", nil)
	j2.SetJournalDir(dir)
	setClock(j2, 1)
	ctx, err := j2.CheckContext()
	assert.Nil(t, err)
	assert.Equal(t, int64(200_000), ctx.RecentTimeStamp)
	assert.Len(t, ctx.Files, 1)
	assert.True(t, ctx.JournalSize > 0)
	assert.Equal(t, ctx.JournalSize, ctx.LastFileSize)
}

func TestRecoveryFromSingleRecordFile(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, FileMsecToFileName(5000))
	writeEntries(t, fn, 5000, NewEntry(5000, "p", chainpack.NewInt(1)))

	j := NewFileJournal("dev", nil)
	j.SetJournalDir(dir)
	setClock(j, 1)
	ctx, err := j.CheckContext()
	assert.Nil(t, err)
	assert.Equal(t, int64(5000), ctx.RecentTimeStamp)
}

func TestRecoveryIgnoresGarbageTail(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, FileMsecToFileName(5000))
	writeEntries(t, fn, 5000,
		NewEntry(5000, "p", chainpack.NewInt(1)),
		NewEntry(6000, "p", chainpack.NewInt(2)),
	)
	f, err := os.OpenFile(fn, os.O_WRONLY|os.O_APPEND, 0o644)
	assert.Nil(t, err)
	f.WriteString("1970-01-01T00:0")
	f.Close()

	j := NewFileJournal("dev", nil)
	j.SetJournalDir(dir)
	setClock(j, 1)
	ctx, err := j.CheckContext()
	assert.Nil(t, err)
	assert.Equal(t, int64(6000), ctx.RecentTimeStamp)
}

func TestRecoveryOfCorruptFileFallsBackToNow(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, FileMsecToFileName(5000))
	err := os.WriteFile(fn, []byte("garbage without any date time\n"), 0o644)
	assert.Nil(t, err)

	j := NewFileJournal("dev", nil)
	j.SetJournalDir(dir)
	setClock(j, 42_000)
	ctx, cerr := j.CheckContext()
	assert.Nil(t, cerr)
	assert.Equal(t, int64(42_000), ctx.RecentTimeStamp)
}

func TestScanSkipsMalformedFileNames(t *testing.T) {
	dir := t.TempDir()
	writeEntries(t, filepath.Join(dir, FileMsecToFileName(5000)), 5000,
		NewEntry(5000, "p", chainpack.NewInt(1)))
	err := os.WriteFile(filepath.Join(dir, "notadate.log2"), []byte("x\n"), 0o644)
	assert.Nil(t, err)

	j := NewFileJournal("dev", nil)
	j.SetJournalDir(dir)
	setClock(j, 1)
	ctx, cerr := j.CheckContext()
	assert.Nil(t, cerr)
	assert.Equal(t, []int64{5000}, ctx.Files)
}

func TestAppendWithoutSnapshotFnFails(t *testing.T) {
	j := newTestJournal(t, nil)
	setClock(j, 1000)
	// Append never raises; the entry is dropped and logged
	j.Append(NewEntry(2000, "p", chainpack.NewInt(1)))
	assert.Empty(t, journalFileNames(t, j.JournalDir()))
}

func TestConvertLog1Dir(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "1.log"),
		[]byte("1970-01-01T00:16:40.000Z\tp\t1\t\t\t\n"), 0o644)
	assert.Nil(t, err)
	err = os.WriteFile(filepath.Join(dir, "junk.log"), []byte("nope\n"), 0o644)
	assert.Nil(t, err)

	j := NewFileJournal("dev", nil)
	j.SetJournalDir(dir)
	j.ConvertLog1Dir()

	names := journalFileNames(t, dir)
	assert.Contains(t, names, "1970-01-01T00-16-40-000.log2")
	assert.Contains(t, names, "junk.log")
	assert.NotContains(t, names, "1.log")
}
