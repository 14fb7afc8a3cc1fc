package utils

import (
	"strconv"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/pkg/errors"
)

// MinByteSizeLimit is the smallest accepted journal size limit.
const MinByteSizeLimit = 1024

// ParseByteSize parses a size-limit string: a bare byte count or a count
// with a k/m/g suffix (bytefmt's kb/mb/gb forms work too, any case).
// Results are clamped to MinByteSizeLimit.
func ParseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty size string")
	}
	var n int64
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		n = v
	} else {
		v, err := bytefmt.ToBytes(s)
		if err != nil {
			return 0, errors.Wrapf(err, "cannot parse size %q", s)
		}
		n = int64(v)
	}
	if n < MinByteSizeLimit {
		n = MinByteSizeLimit
	}
	return n, nil
}
