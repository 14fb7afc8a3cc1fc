package journal

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/shvtools/shvjournal/chainpack"
)

// Reader decodes journal records sequentially from one file. It stops at
// the last complete record, so a partially appended or truncated tail is
// tolerated, and it skips records with a malformed date-time.
type Reader struct {
	path  string
	f     *os.File
	br    *bufio.Reader
	entry Entry
	warns []string
}

// NewReader opens the journal file at path for sequential decoding.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open journal file %s", path)
	}
	return &Reader{path: path, f: f, br: bufio.NewReader(f)}, nil
}

// Next advances to the next well-formed record, returning false at the
// end of the decodable data.
func (r *Reader) Next() bool {
	for {
		line, err := r.br.ReadString(RecordSeparator)
		if err != nil {
			// an unterminated tail is an incomplete record, discard it
			if err != io.EOF {
				r.warns = append(r.warns, err.Error())
			}
			return false
		}
		line = line[:len(line)-1]
		if line == "" {
			continue
		}
		e, ok := parseRecord(line)
		if !ok {
			r.warns = append(r.warns, "malformed record: "+line)
			continue
		}
		r.entry = e
		return true
	}
}

// Entry returns the record decoded by the last successful Next.
func (r *Reader) Entry() Entry {
	return r.entry
}

// Warnings lists records skipped as malformed.
func (r *Reader) Warnings() []string {
	return r.warns
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

func parseRecord(line string) (Entry, bool) {
	fields := strings.Split(line, string(FieldSeparator))
	if len(fields) < 2 {
		return Entry{}, false
	}
	dt, n := chainpack.ParseISO(fields[0])
	if n == 0 {
		return Entry{}, false
	}
	e := Entry{
		EpochMsec: dt.Msec,
		Path:      fields[1],
		ShortTime: NoShortTime,
	}
	if e.Path == "" {
		return Entry{}, false
	}
	if len(fields) > 2 && fields[2] != "" {
		v, err := chainpack.FromCpon(fields[2])
		if err != nil {
			return Entry{}, false
		}
		e.Value = v
	}
	if len(fields) > 3 && fields[3] != "" {
		st, err := strconv.Atoi(fields[3])
		if err != nil {
			return Entry{}, false
		}
		e.ShortTime = st
	}
	if len(fields) > 4 {
		e.Domain = fields[4]
	}
	if len(fields) > 5 && (fields[5] == "D" || strings.EqualFold(fields[5], "Discrete")) {
		e.SampleType = SampleDiscrete
	}
	return e, true
}
