package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/issue-triage-service/internal/domain"
)

func openIssue(createdAt time.Time) domain.Issue {
	return domain.Issue{
		ID:        "iss-1",
		Status:    domain.StatusOpen,
		CreatedAt: createdAt,
		History:   []domain.HistoryEntry{{Entry: domain.HistoryOpen, At: createdAt}},
	}
}

func assignedIssue(createdAt, assignedAt time.Time) domain.Issue {
	return domain.Issue{
		ID:        "iss-2",
		Status:    domain.StatusAssigned,
		CreatedAt: createdAt,
		History: []domain.HistoryEntry{
			{Entry: domain.HistoryOpen, At: createdAt},
			{Entry: domain.HistoryAssigned, At: assignedAt},
		},
	}
}

func TestCoarseFlagOpenIssueDelaysAfter24h(t *testing.T) {
	eval := NewEvaluator()
	now := time.Now()

	assert.Equal(t, FlagOnTime, eval.CoarseFlag(openIssue(now.Add(-23*time.Hour)), now))
	assert.Equal(t, FlagDelayed, eval.CoarseFlag(openIssue(now.Add(-25*time.Hour)), now))
}

func TestCoarseFlagAssignedBoundary(t *testing.T) {
	eval := NewEvaluator()
	now := time.Now()
	created := now.Add(-72 * time.Hour)

	// 47h since assignment stays on-time, 49h is overdue
	assert.Equal(t, FlagOnTime, eval.CoarseFlag(assignedIssue(created, now.Add(-47*time.Hour)), now))
	assert.Equal(t, FlagOverdue, eval.CoarseFlag(assignedIssue(created, now.Add(-49*time.Hour)), now))
}

func TestCoarseFlagInProgressNeverOverdue(t *testing.T) {
	eval := NewEvaluator()
	now := time.Now()
	issue := assignedIssue(now.Add(-100*time.Hour), now.Add(-90*time.Hour))
	issue.Status = domain.StatusInProgress
	issue.History = append(issue.History, domain.HistoryEntry{Entry: domain.HistoryInProgress, At: now.Add(-80 * time.Hour)})

	assert.Equal(t, FlagOnTime, eval.CoarseFlag(issue, now))
}

func TestDisplayOpenBreached(t *testing.T) {
	eval := NewEvaluator()
	now := time.Now()

	d := eval.Display(openIssue(now.Add(-25*time.Hour)), now)
	assert.True(t, d.Breached)
	assert.Equal(t, "BREACHED: 1h 0m ago", d.Label)
	assert.Equal(t, "sla-breached", d.ColorClass)
}

func TestDisplayRemainingTimeFormats(t *testing.T) {
	eval := NewEvaluator()
	now := time.Now()

	// 45 minutes to deadline: minutes only
	d := eval.Display(openIssue(now.Add(-23*time.Hour-15*time.Minute)), now)
	assert.False(t, d.Breached)
	assert.Equal(t, "45m left", d.Label)
	assert.Equal(t, "sla-ok", d.ColorClass)

	// 2h30m to deadline
	d = eval.Display(openIssue(now.Add(-21*time.Hour-30*time.Minute)), now)
	assert.Equal(t, "2h 30m left", d.Label)
}

func TestDisplayAssignedAnchorsOnFirstAssignment(t *testing.T) {
	eval := NewEvaluator()
	now := time.Now()
	issue := assignedIssue(now.Add(-60*time.Hour), now.Add(-50*time.Hour))

	d := eval.Display(issue, now)
	assert.True(t, d.Breached)
	assert.Equal(t, "BREACHED: 2h 0m ago", d.Label)
}

func TestDisplayAssignedFallsBackToCreatedAt(t *testing.T) {
	eval := NewEvaluator()
	now := time.Now()
	issue := domain.Issue{
		Status:    domain.StatusAssigned,
		CreatedAt: now.Add(-10 * time.Hour),
	}

	d := eval.Display(issue, now)
	assert.False(t, d.Breached)
	assert.Equal(t, "38h 0m left", d.Label)
}

func TestDisplayResolvedIsComplete(t *testing.T) {
	eval := NewEvaluator()
	now := time.Now()
	issue := openIssue(now.Add(-90 * time.Hour))
	issue.Status = domain.StatusResolved

	d := eval.Display(issue, now)
	assert.False(t, d.Breached)
	assert.Equal(t, "Complete", d.Label)
}

func TestDisplayDeletedIsNeutral(t *testing.T) {
	eval := NewEvaluator()
	now := time.Now()
	issue := openIssue(now.Add(-90 * time.Hour))
	issue.Status = domain.StatusResolved
	issue.IsDeleted = true

	d := eval.Display(issue, now)
	assert.False(t, d.Breached)
	assert.Equal(t, "Deleted", d.Label)
}

func TestEvaluatorIsPure(t *testing.T) {
	eval := NewEvaluator()
	now := time.Now()
	issue := openIssue(now.Add(-25 * time.Hour))

	first := eval.Display(issue, now)
	second := eval.Display(issue, now)
	assert.Equal(t, first, second)
	assert.Equal(t, eval.CoarseFlag(issue, now), eval.CoarseFlag(issue, now))
	assert.Equal(t, domain.StatusOpen, issue.Status)
}
