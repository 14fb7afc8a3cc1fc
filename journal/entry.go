// Package journal implements the file-backed, append-only time-series
// journal: a directory of chronologically named .log2 files holding
// per-property events, with range queries that can reconstruct a
// snapshot of all continuous signals as of a requested instant.
package journal

import (
	"github.com/shvtools/shvjournal/chainpack"
)

// NoShortTime marks an entry without a short-time counter. Zero is a
// valid counter value and must stay distinct from "none".
const NoShortTime = -1

// SampleType drives snapshot inclusion: a continuous signal keeps its
// last value until a new entry arrives, a discrete one is event-like.
type SampleType int

const (
	SampleContinuous SampleType = iota
	SampleDiscrete
)

func (st SampleType) String() string {
	if st == SampleDiscrete {
		return "Discrete"
	}
	return "Continuous"
}

// Entry is one recorded event.
type Entry struct {
	// EpochMsec is the event instant in milliseconds since the Unix
	// epoch. Zero means "stamp with wall-clock now at append time".
	EpochMsec int64
	// Path is the non-empty property path, '/'-separated.
	Path string
	// Value is the recorded value.
	Value chainpack.RpcValue
	// ShortTime is the device-local 16-bit counter, NoShortTime if unset.
	ShortTime int
	// Domain is an optional event domain, empty if unset.
	Domain     string
	SampleType SampleType
}

// NewEntry makes an entry with no short-time and default sample type.
func NewEntry(epochMsec int64, path string, value chainpack.RpcValue) Entry {
	return Entry{
		EpochMsec: epochMsec,
		Path:      path,
		Value:     value,
		ShortTime: NoShortTime,
	}
}

// DateTime returns the entry instant as a chainpack date-time.
func (e Entry) DateTime() chainpack.DateTime {
	return chainpack.FromMSecs(e.EpochMsec)
}

// IsValid reports whether the entry can be appended.
func (e Entry) IsValid() bool {
	return e.Path != ""
}
