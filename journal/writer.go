package journal

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/shvtools/shvjournal/chainpack"
)

// RecordSeparator terminates one journal record, FieldSeparator splits
// fields within it. The record codec is self-synchronizing on these
// bytes; values are Cpon-escaped so neither byte appears inside a field.
const (
	RecordSeparator = '\n'
	FieldSeparator  = '\t'
)

// Writer appends records to one journal file. It keeps the file's
// monotonic clock: each appended record's timestamp is raised to the
// preceding record's when lower, starting at the file start-timestamp.
type Writer struct {
	f          *os.File
	path       string
	recentMsec int64
}

// NewWriter opens (or creates) the journal file at path whose first
// entry belongs at fileMsec.
func NewWriter(path string, fileMsec int64) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open journal file %s", path)
	}
	return &Writer{f: f, path: path, recentMsec: fileMsec}, nil
}

// FileSize returns the current byte-size of the file.
func (w *Writer) FileSize() (int64, error) {
	fi, err := w.f.Stat()
	if err != nil {
		return 0, errors.Wrapf(err, "cannot stat journal file %s", w.path)
	}
	return fi.Size(), nil
}

// AppendMonotonic writes one entry, clamping its timestamp to the
// writer's monotonic clock. A zero timestamp is raised like any other: to
// the file start for the first record, to the preceding record's otherwise.
func (w *Writer) AppendMonotonic(e Entry) error {
	msec := e.EpochMsec
	if msec < w.recentMsec {
		msec = w.recentMsec
	}
	e.EpochMsec = msec
	if err := w.append(e); err != nil {
		return err
	}
	w.recentMsec = msec
	return nil
}

func (w *Writer) append(e Entry) error {
	var sb strings.Builder
	sb.WriteString(e.DateTime().ToIsoString(chainpack.MsecAlways, true))
	sb.WriteByte(FieldSeparator)
	sb.WriteString(sanitizeField(e.Path))
	sb.WriteByte(FieldSeparator)
	if e.Value.IsValid() {
		sb.WriteString(chainpack.ToCpon(e.Value))
	}
	sb.WriteByte(FieldSeparator)
	if e.ShortTime != NoShortTime {
		sb.WriteString(strconv.Itoa(e.ShortTime))
	}
	sb.WriteByte(FieldSeparator)
	sb.WriteString(sanitizeField(e.Domain))
	sb.WriteByte(FieldSeparator)
	if e.SampleType == SampleDiscrete {
		sb.WriteByte('D')
	}
	sb.WriteByte(RecordSeparator)
	if _, err := w.f.WriteString(sb.String()); err != nil {
		return errors.Wrapf(err, "cannot write to journal file %s", w.path)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	return w.f.Close()
}

// sanitizeField strips separator bytes from free-form string fields so a
// hostile path or domain cannot break record framing.
func sanitizeField(s string) string {
	if !strings.ContainsAny(s, "\t\n") {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == FieldSeparator || r == RecordSeparator {
			return ' '
		}
		return r
	}, s)
}
