package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/issue-triage-service/internal/domain"
)

func rolePtr(r domain.StaffRole) *domain.StaffRole { return &r }

func TestLedgerFullLifecycle(t *testing.T) {
	ledger := NewLedger()
	now := time.Now()
	issue := openIssue(now.Add(-1 * time.Hour))

	assigned, err := ledger.Apply(issue, TransitionInput{
		Action: ActionAssign,
		Role:   rolePtr(domain.RoleElectrician),
		Note:   "power socket dead",
		Actor:  "admin-1",
		Now:    now,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, assigned.Status)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, domain.RoleElectrician, *assigned.AssignedTo)
	assert.Equal(t, "admin-1", assigned.AssignedBy)
	require.NotNil(t, assigned.AssignedAt)
	assert.Equal(t, now, *assigned.AssignedAt)
	require.Len(t, assigned.History, 2)
	assert.Equal(t, domain.HistoryAssigned, assigned.History[1].Entry)
	assert.Equal(t, "power socket dead", assigned.History[1].Note)

	started, err := ledger.Apply(assigned, TransitionInput{Action: ActionStart, Now: now.Add(time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, started.Status)
	require.Len(t, started.History, 3)

	resolved, err := ledger.Apply(started, TransitionInput{Action: ActionResolve, Now: now.Add(2 * time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, resolved.Status)

	deleted, err := ledger.Apply(resolved, TransitionInput{Action: ActionDelete, Actor: "admin-1", Now: now.Add(3 * time.Minute)})
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	assert.Equal(t, "admin-1", deleted.DeletedBy)
	require.NotNil(t, deleted.DeletedAt)

	// status always agrees with the last lifecycle-typed ledger entry
	for _, snapshot := range []domain.Issue{assigned, started, resolved, deleted} {
		status, ok := domain.LastLifecycleStatus(snapshot.History)
		require.True(t, ok)
		assert.Equal(t, snapshot.Status, status)
	}
	// the soft-delete tag never replaced the lifecycle status
	assert.Equal(t, domain.StatusResolved, deleted.Status)
}

func TestLedgerResolveFromAssignedSkipsInProgress(t *testing.T) {
	ledger := NewLedger()
	now := time.Now()
	issue := assignedIssue(now.Add(-2*time.Hour), now.Add(-1*time.Hour))

	resolved, err := ledger.Apply(issue, TransitionInput{Action: ActionResolve, Now: now})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, resolved.Status)
}

func TestLedgerRejectsSkipStates(t *testing.T) {
	ledger := NewLedger()
	now := time.Now()

	_, err := ledger.Apply(openIssue(now.Add(-time.Hour)), TransitionInput{Action: ActionResolve, Now: now})
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)

	_, err = ledger.Apply(openIssue(now.Add(-time.Hour)), TransitionInput{Action: ActionStart, Now: now})
	require.ErrorAs(t, err, &terr)
}

func TestLedgerAssignRequiresRole(t *testing.T) {
	ledger := NewLedger()
	now := time.Now()

	_, err := ledger.Apply(openIssue(now.Add(-time.Hour)), TransitionInput{Action: ActionAssign, Now: now})
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Contains(t, terr.Reason, "staff role")
}

func TestLedgerEscalateOnlyWhenBreached(t *testing.T) {
	ledger := NewLedger()
	now := time.Now()

	fresh := openIssue(now.Add(-1 * time.Hour))
	_, err := ledger.Apply(fresh, TransitionInput{Action: ActionEscalate, Now: now})
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Contains(t, terr.Reason, "not breached")

	breached := openIssue(now.Add(-25 * time.Hour))
	escalated, err := ledger.Apply(breached, TransitionInput{Action: ActionEscalate, Note: "no response", Now: now})
	require.NoError(t, err)
	assert.True(t, escalated.Escalated)
	require.NotNil(t, escalated.EscalatedAt)
	// escalation is an overlay tag: lifecycle status is untouched
	assert.Equal(t, domain.StatusOpen, escalated.Status)
	assert.Equal(t, domain.HistoryEscalated, escalated.History[len(escalated.History)-1].Entry)

	_, err = ledger.Apply(escalated, TransitionInput{Action: ActionEscalate, Now: now})
	require.ErrorAs(t, err, &terr)
	assert.Contains(t, terr.Reason, "already escalated")
}

func TestLedgerDeleteRequiresResolved(t *testing.T) {
	ledger := NewLedger()
	now := time.Now()

	_, err := ledger.Apply(openIssue(now.Add(-time.Hour)), TransitionInput{Action: ActionDelete, Now: now})
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
}

func TestLedgerDoubleDeleteRejected(t *testing.T) {
	ledger := NewLedger()
	now := time.Now()
	issue := assignedIssue(now.Add(-2*time.Hour), now.Add(-time.Hour))

	resolved, err := ledger.Apply(issue, TransitionInput{Action: ActionResolve, Now: now})
	require.NoError(t, err)
	deleted, err := ledger.Apply(resolved, TransitionInput{Action: ActionDelete, Now: now})
	require.NoError(t, err)

	_, err = ledger.Apply(deleted, TransitionInput{Action: ActionDelete, Now: now})
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Contains(t, terr.Reason, "already deleted")
}

func TestLedgerRejectionLeavesInputUntouched(t *testing.T) {
	ledger := NewLedger()
	now := time.Now()
	issue := openIssue(now.Add(-time.Hour))
	issue.UpdatedAt = now.Add(-time.Hour)
	before := issue.Clone()

	_, err := ledger.Apply(issue, TransitionInput{Action: ActionDelete, Now: now})
	require.Error(t, err)
	assert.Equal(t, before, issue)
	assert.Equal(t, before.UpdatedAt, issue.UpdatedAt)
	assert.Len(t, issue.History, len(before.History))
}

func TestLedgerAcceptedTransitionStampsUpdatedAt(t *testing.T) {
	ledger := NewLedger()
	now := time.Now()
	issue := openIssue(now.Add(-time.Hour))

	next, err := ledger.Apply(issue, TransitionInput{Action: ActionAssign, Role: rolePtr(domain.RolePlumber), Now: now})
	require.NoError(t, err)
	assert.Equal(t, now, next.UpdatedAt)
	// exactly one entry appended per accepted transition
	assert.Len(t, next.History, len(issue.History)+1)
}
