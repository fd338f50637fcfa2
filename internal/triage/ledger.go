package triage

import (
	"fmt"
	"time"

	"github.com/spec-kit/issue-triage-service/internal/domain"
)

// Action names an administrative transition on an issue.
type Action string

const (
	ActionAssign   Action = "assign"
	ActionStart    Action = "start"
	ActionResolve  Action = "resolve"
	ActionEscalate Action = "escalate"
	ActionDelete   Action = "delete"
)

// ParseAction validates an inbound action string.
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionAssign, ActionStart, ActionResolve, ActionEscalate, ActionDelete:
		return Action(raw), nil
	default:
		return "", fmt.Errorf("unknown action %q", raw)
	}
}

// TransitionInput carries everything a transition needs. Now is explicit:
// the ledger never reads the wall clock.
type TransitionInput struct {
	Action Action
	Role   *domain.StaffRole
	Note   string
	Actor  string
	Now    time.Time
}

// TransitionError reports a precondition violation. The issue is left
// completely unchanged when one is returned.
type TransitionError struct {
	Action Action
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %q rejected: %s", e.Action, e.Reason)
}

// Ledger applies state-machine transitions to issue snapshots. Escalation
// guards consult the SLA evaluator.
type Ledger struct {
	Evaluator Evaluator
}

// NewLedger returns a ledger over the stock SLA windows.
func NewLedger() Ledger {
	return Ledger{Evaluator: NewEvaluator()}
}

// Apply runs one transition against a snapshot and returns the updated
// issue. It is pure: the input is never mutated, accepted transitions
// append exactly one history entry and stamp UpdatedAt, rejected ones
// return a TransitionError and nothing else.
func (l Ledger) Apply(issue domain.Issue, in TransitionInput) (domain.Issue, error) {
	switch in.Action {
	case ActionAssign:
		return l.assign(issue, in)
	case ActionStart:
		return l.start(issue, in)
	case ActionResolve:
		return l.resolve(issue, in)
	case ActionEscalate:
		return l.escalate(issue, in)
	case ActionDelete:
		return l.softDelete(issue, in)
	default:
		return domain.Issue{}, &TransitionError{Action: in.Action, Reason: "unknown action"}
	}
}

func (l Ledger) assign(issue domain.Issue, in TransitionInput) (domain.Issue, error) {
	if issue.Status != domain.StatusOpen {
		return domain.Issue{}, &TransitionError{Action: in.Action, Reason: fmt.Sprintf("issue is %s, not open", issue.Status)}
	}
	if in.Role == nil {
		return domain.Issue{}, &TransitionError{Action: in.Action, Reason: "staff role required"}
	}
	next := issue.Clone()
	role := *in.Role
	next.Status = domain.StatusAssigned
	next.AssignedTo = &role
	next.AssignedAt = &in.Now
	next.AssignedBy = in.Actor
	return commit(next, domain.HistoryAssigned, in), nil
}

func (l Ledger) start(issue domain.Issue, in TransitionInput) (domain.Issue, error) {
	if issue.Status != domain.StatusAssigned {
		return domain.Issue{}, &TransitionError{Action: in.Action, Reason: fmt.Sprintf("issue is %s, not assigned", issue.Status)}
	}
	next := issue.Clone()
	next.Status = domain.StatusInProgress
	return commit(next, domain.HistoryInProgress, in), nil
}

func (l Ledger) resolve(issue domain.Issue, in TransitionInput) (domain.Issue, error) {
	if issue.Status != domain.StatusAssigned && issue.Status != domain.StatusInProgress {
		return domain.Issue{}, &TransitionError{Action: in.Action, Reason: fmt.Sprintf("cannot resolve from %s", issue.Status)}
	}
	next := issue.Clone()
	next.Status = domain.StatusResolved
	return commit(next, domain.HistoryResolved, in), nil
}

func (l Ledger) escalate(issue domain.Issue, in TransitionInput) (domain.Issue, error) {
	if issue.IsDeleted {
		return domain.Issue{}, &TransitionError{Action: in.Action, Reason: "issue is deleted"}
	}
	if issue.Escalated {
		return domain.Issue{}, &TransitionError{Action: in.Action, Reason: "already escalated"}
	}
	if !l.Evaluator.Display(issue, in.Now).Breached {
		return domain.Issue{}, &TransitionError{Action: in.Action, Reason: "SLA not breached"}
	}
	next := issue.Clone()
	next.Escalated = true
	next.EscalatedAt = &in.Now
	return commit(next, domain.HistoryEscalated, in), nil
}

func (l Ledger) softDelete(issue domain.Issue, in TransitionInput) (domain.Issue, error) {
	if issue.IsDeleted {
		return domain.Issue{}, &TransitionError{Action: in.Action, Reason: "already deleted"}
	}
	if issue.Status != domain.StatusResolved {
		return domain.Issue{}, &TransitionError{Action: in.Action, Reason: fmt.Sprintf("issue is %s, not resolved", issue.Status)}
	}
	next := issue.Clone()
	next.IsDeleted = true
	next.DeletedAt = &in.Now
	next.DeletedBy = in.Actor
	return commit(next, domain.HistoryDeleted, in), nil
}

// commit appends the single ledger entry for an accepted transition and
// stamps UpdatedAt.
func commit(next domain.Issue, kind domain.HistoryKind, in TransitionInput) domain.Issue {
	next.History = append(next.History, domain.HistoryEntry{
		Entry: kind,
		At:    in.Now,
		Note:  in.Note,
	})
	next.UpdatedAt = in.Now
	return next
}
