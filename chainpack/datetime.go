package chainpack

import (
	"fmt"
	"time"
)

// MsecPolicy controls whether the millisecond part is rendered when a
// date-time is formatted as an ISO-8601 string.
type MsecPolicy int

const (
	MsecAuto MsecPolicy = iota
	MsecAlways
	MsecNever
)

// DateTime is a millisecond-resolution instant with an optional UTC
// offset remembered from parsing. The offset does not change the instant,
// only how it is rendered.
type DateTime struct {
	// Msec is milliseconds since the Unix epoch, UTC.
	Msec int64
	// UtcOffsetMin is the parsed zone offset in minutes east of UTC.
	UtcOffsetMin int
}

// Now returns the current wall-clock instant.
func Now() DateTime {
	return DateTime{Msec: time.Now().UnixMilli()}
}

// FromMSecs makes a DateTime from an epoch-millisecond count.
func FromMSecs(msec int64) DateTime {
	return DateTime{Msec: msec}
}

// ToTime converts to a stdlib time in UTC.
func (dt DateTime) ToTime() time.Time {
	return time.UnixMilli(dt.Msec).UTC()
}

// ToIsoString renders the instant as ISO-8601. The millisecond part
// follows policy, the zone suffix ("Z" or +hhmm) is emitted only when
// includeTimeZone is set.
func (dt DateTime) ToIsoString(policy MsecPolicy, includeTimeZone bool) string {
	t := time.UnixMilli(dt.Msec + int64(dt.UtcOffsetMin)*60_000).UTC()
	s := t.Format("2006-01-02T15:04:05")
	msec := dt.Msec % 1000
	if msec < 0 {
		msec += 1000
	}
	if policy == MsecAlways || (policy == MsecAuto && msec != 0) {
		s += fmt.Sprintf(".%03d", msec)
	}
	if includeTimeZone {
		if dt.UtcOffsetMin == 0 {
			s += "Z"
		} else {
			off := dt.UtcOffsetMin
			sign := "+"
			if off < 0 {
				sign = "-"
				off = -off
			}
			s += fmt.Sprintf("%s%02d%02d", sign, off/60, off%60)
		}
	}
	return s
}

// ParseISO parses an ISO-8601 date-time with optional millisecond part
// and optional zone suffix (Z, +hh, +hhmm or +hh:mm) at the start of s.
// It returns the parsed instant and the number of bytes consumed; a zero
// byte count means no valid date-time was found.
func ParseISO(s string) (DateTime, int) {
	// YYYY-MM-DDThh:mm:ss is the mandatory prefix
	const minLen = 19
	if len(s) < minLen {
		return DateTime{}, 0
	}
	sep := func(pos int, chars string) bool {
		for i := 0; i < len(chars); i++ {
			if s[pos] == chars[i] {
				return true
			}
		}
		return false
	}
	if !sep(4, "-") || !sep(7, "-") || !sep(10, "T ") || !sep(13, ":") || !sep(16, ":") {
		return DateTime{}, 0
	}
	num := func(from, to int) (int, bool) {
		n := 0
		for i := from; i < to; i++ {
			c := s[i]
			if c < '0' || c > '9' {
				return 0, false
			}
			n = n*10 + int(c-'0')
		}
		return n, true
	}
	year, ok1 := num(0, 4)
	month, ok2 := num(5, 7)
	day, ok3 := num(8, 10)
	hour, ok4 := num(11, 13)
	min, ok5 := num(14, 16)
	sec, ok6 := num(17, 19)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return DateTime{}, 0
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || min > 59 || sec > 59 {
		return DateTime{}, 0
	}
	pos := minLen
	msec := 0
	if pos < len(s) && s[pos] == '.' {
		if pos+4 > len(s) {
			return DateTime{}, 0
		}
		m, ok := num(pos+1, pos+4)
		if !ok {
			return DateTime{}, 0
		}
		msec = m
		pos += 4
	}
	offsetMin := 0
	if pos < len(s) {
		switch s[pos] {
		case 'Z':
			pos++
		case '+', '-':
			neg := s[pos] == '-'
			start := pos + 1
			digits := 0
			for start+digits < len(s) && digits < 2 && s[start+digits] >= '0' && s[start+digits] <= '9' {
				digits++
			}
			if digits != 2 {
				return DateTime{}, 0
			}
			hh, _ := num(start, start+2)
			pos = start + 2
			mm := 0
			mstart := pos
			if mstart < len(s) && s[mstart] == ':' {
				mstart++
			}
			if mstart+2 <= len(s) {
				if m, ok := num(mstart, mstart+2); ok {
					mm = m
					pos = mstart + 2
				}
			}
			offsetMin = hh*60 + mm
			if neg {
				offsetMin = -offsetMin
			}
		}
	}
	t := time.Date(year, time.Month(month), day, hour, min, sec, msec*int(time.Millisecond), time.UTC)
	return DateTime{
		Msec:         t.UnixMilli() - int64(offsetMin)*60_000,
		UtcOffsetMin: offsetMin,
	}, pos
}
