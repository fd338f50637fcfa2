package triage

import (
	"fmt"
	"time"

	"github.com/spec-kit/issue-triage-service/internal/domain"
)

// Flag is the coarse three-way triage bucket used for attention ranking.
// Naming is status-scoped on purpose: "delayed" only ever applies to open
// issues, "overdue" only to assigned ones. They are two independent SLA
// windows, not a severity ladder.
type Flag string

const (
	FlagOnTime  Flag = "on-time"
	FlagDelayed Flag = "delayed"
	FlagOverdue Flag = "overdue"
)

// AttentionRank orders flags for sorting; lower demands attention first.
func AttentionRank(f Flag) int {
	switch f {
	case FlagOverdue:
		return 0
	case FlagDelayed:
		return 1
	default:
		return 2
	}
}

// Display is the fine, human-readable SLA rendering for one issue.
type Display struct {
	Label      string `json:"label"`
	Breached   bool   `json:"breached"`
	ColorClass string `json:"colorClass"`
}

// Evaluator computes SLA state from an issue snapshot and an explicit now.
// It holds only the two window widths and never mutates its input.
type Evaluator struct {
	OpenWindow     time.Duration
	AssignedWindow time.Duration
}

// NewEvaluator returns an evaluator with the stock 24h/48h windows.
func NewEvaluator() Evaluator {
	return Evaluator{
		OpenWindow:     24 * time.Hour,
		AssignedWindow: 48 * time.Hour,
	}
}

// CoarseFlag buckets the issue for attention sorting. The open window is
// anchored on the first history entry, the assigned window on the first
// "assigned" entry.
func (e Evaluator) CoarseFlag(issue domain.Issue, now time.Time) Flag {
	switch issue.Status {
	case domain.StatusOpen:
		if len(issue.History) > 0 && !issue.History[0].At.IsZero() &&
			now.Sub(issue.History[0].At) > e.OpenWindow {
			return FlagDelayed
		}
	case domain.StatusAssigned:
		if assignedAt, ok := domain.FirstAssignedAt(issue.History); ok &&
			now.Sub(assignedAt) > e.AssignedWindow {
			return FlagOverdue
		}
	}
	return FlagOnTime
}

// Deadline returns the active SLA deadline for the issue, if any. Open
// issues run against createdAt; assigned and in-progress issues against the
// first assignment (falling back to createdAt when history lacks one).
func (e Evaluator) Deadline(issue domain.Issue) (time.Time, bool) {
	switch issue.Status {
	case domain.StatusOpen:
		return issue.CreatedAt.Add(e.OpenWindow), true
	case domain.StatusAssigned, domain.StatusInProgress:
		anchor := issue.CreatedAt
		if assignedAt, ok := domain.FirstAssignedAt(issue.History); ok {
			anchor = assignedAt
		}
		return anchor.Add(e.AssignedWindow), true
	default:
		return time.Time{}, false
	}
}

// Display renders remaining time or breach age for the issue as of now.
func (e Evaluator) Display(issue domain.Issue, now time.Time) Display {
	if issue.IsDeleted {
		return Display{Label: "Deleted", ColorClass: "sla-muted"}
	}
	if issue.Status == domain.StatusResolved {
		return Display{Label: "Complete", ColorClass: "sla-complete"}
	}
	deadline, ok := e.Deadline(issue)
	if !ok {
		return Display{Label: "—", ColorClass: "sla-muted"}
	}
	remaining := deadline.Sub(now)
	if remaining >= 0 {
		return Display{
			Label:      fmt.Sprintf("%s left", formatDuration(remaining)),
			ColorClass: "sla-ok",
		}
	}
	return Display{
		Label:      fmt.Sprintf("BREACHED: %s ago", formatDuration(-remaining)),
		Breached:   true,
		ColorClass: "sla-breached",
	}
}

// formatDuration truncates to whole minutes; the hours component is omitted
// when zero.
func formatDuration(d time.Duration) string {
	total := int(d / time.Minute)
	hours := total / 60
	minutes := total % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
