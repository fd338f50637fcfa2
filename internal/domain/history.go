package domain

import "time"

// HistoryKind is the value recorded in a history entry: either a lifecycle
// status or an overlay tag (escalation, soft deletion).
type HistoryKind string

const (
	HistoryOpen       HistoryKind = "open"
	HistoryAssigned   HistoryKind = "assigned"
	HistoryInProgress HistoryKind = "in_progress"
	HistoryResolved   HistoryKind = "resolved"
	HistoryEscalated  HistoryKind = "escalated"
	HistoryDeleted    HistoryKind = "deleted"
)

// HistoryEntry is one element of the append-only status ledger.
type HistoryEntry struct {
	Entry HistoryKind `json:"status"`
	At    time.Time   `json:"at"`
	Note  string      `json:"note,omitempty"`
}

// IsLifecycle reports whether the entry records a core lifecycle state
// rather than an overlay tag.
func (k HistoryKind) IsLifecycle() bool {
	switch k {
	case HistoryOpen, HistoryAssigned, HistoryInProgress, HistoryResolved:
		return true
	default:
		return false
	}
}

// LifecycleStatus converts a lifecycle entry kind to its Status.
func (k HistoryKind) LifecycleStatus() (Status, bool) {
	if !k.IsLifecycle() {
		return "", false
	}
	return Status(k), true
}

// FirstAssignedAt returns the timestamp of the first "assigned" entry, used
// as the SLA anchor for assigned work.
func FirstAssignedAt(history []HistoryEntry) (time.Time, bool) {
	for _, h := range history {
		if h.Entry == HistoryAssigned {
			return h.At, true
		}
	}
	return time.Time{}, false
}

// LastLifecycleStatus walks the ledger backwards for the most recent core
// lifecycle entry. Overlay tags never change the answer.
func LastLifecycleStatus(history []HistoryEntry) (Status, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if status, ok := history[i].Entry.LifecycleStatus(); ok {
			return status, true
		}
	}
	return "", false
}
