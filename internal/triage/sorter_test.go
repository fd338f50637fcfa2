package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/issue-triage-service/internal/domain"
)

func TestSortByAttentionFlagOutranksUrgency(t *testing.T) {
	eval := NewEvaluator()
	now := time.Now()

	overdue := assignedIssue(now.Add(-80*time.Hour), now.Add(-50*time.Hour))
	overdue.ID = "overdue"
	overdue.UrgencyScore = 1

	delayed := openIssue(now.Add(-30 * time.Hour))
	delayed.ID = "delayed"
	delayed.UrgencyScore = 2

	onTime := openIssue(now.Add(-1 * time.Hour))
	onTime.ID = "on-time"
	onTime.UrgencyScore = 3

	sorted := eval.SortByAttention([]domain.Issue{onTime, delayed, overdue}, now)
	require.Len(t, sorted, 3)
	assert.Equal(t, "overdue", sorted[0].ID)
	assert.Equal(t, "delayed", sorted[1].ID)
	assert.Equal(t, "on-time", sorted[2].ID)
}

func TestSortByAttentionUrgencyThenNewest(t *testing.T) {
	eval := NewEvaluator()
	now := time.Now()

	lowOld := openIssue(now.Add(-3 * time.Hour))
	lowOld.ID = "low-old"
	lowOld.UrgencyScore = 1

	highOld := openIssue(now.Add(-2 * time.Hour))
	highOld.ID = "high-old"
	highOld.UrgencyScore = 3

	highNew := openIssue(now.Add(-1 * time.Hour))
	highNew.ID = "high-new"
	highNew.UrgencyScore = 3

	sorted := eval.SortByAttention([]domain.Issue{lowOld, highOld, highNew}, now)
	assert.Equal(t, []string{"high-new", "high-old", "low-old"}, ids(sorted))
}

func TestSortByAttentionUrgencyLabelFallback(t *testing.T) {
	eval := NewEvaluator()
	now := time.Now()

	// legacy document: no persisted score, label only
	legacyHigh := openIssue(now.Add(-2 * time.Hour))
	legacyHigh.ID = "legacy-high"
	legacyHigh.Urgency = domain.UrgencyHigh

	scoredMedium := openIssue(now.Add(-1 * time.Hour))
	scoredMedium.ID = "scored-medium"
	scoredMedium.UrgencyScore = 2

	sorted := eval.SortByAttention([]domain.Issue{scoredMedium, legacyHigh}, now)
	assert.Equal(t, []string{"legacy-high", "scored-medium"}, ids(sorted))
}

func TestSortByAttentionStableOnFullTie(t *testing.T) {
	eval := NewEvaluator()
	now := time.Now()
	createdAt := now.Add(-1 * time.Hour)

	var input []domain.Issue
	for _, id := range []string{"a", "b", "c", "d"} {
		issue := openIssue(createdAt)
		issue.ID = id
		issue.UrgencyScore = 2
		input = append(input, issue)
	}

	sorted := eval.SortByAttention(input, now)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(sorted))
}

func TestSortByAttentionDoesNotMutateInput(t *testing.T) {
	eval := NewEvaluator()
	now := time.Now()

	first := openIssue(now.Add(-1 * time.Hour))
	first.ID = "first"
	second := openIssue(now.Add(-30 * time.Hour))
	second.ID = "second"

	input := []domain.Issue{first, second}
	_ = eval.SortByAttention(input, now)
	assert.Equal(t, []string{"first", "second"}, ids(input))
}

func ids(issues []domain.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.ID)
	}
	return out
}
