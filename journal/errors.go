package journal

// ContextCorruptedError reports an invariant violation in the journal
// context, e.g. a chosen file start-timestamp older than the known max.
type ContextCorruptedError string

func (msg ContextCorruptedError) Error() string {
	return string(msg) + ": journal context corrupted"
}

// InconsistentJournalError reports that a rescan could not bring the
// context to a consistent state.
type InconsistentJournalError string

func (msg InconsistentJournalError) Error() string {
	return string(msg) + ": journal cannot be brought to consistent state"
}

// NoSnapshotFnError reports a missing snapshot producer on new-file
// creation, which is a configuration error.
type NoSnapshotFnError string

func (msg NoSnapshotFnError) Error() string {
	return string(msg) + ": snapshot function not defined"
}
