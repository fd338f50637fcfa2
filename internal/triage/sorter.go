package triage

import (
	"sort"
	"time"

	"github.com/spec-kit/issue-triage-service/internal/domain"
)

// SortByAttention orders a snapshot of issues for display priority: coarse
// SLA flag first (overdue, delayed, on-time), then urgency score descending,
// then newest first. The sort is stable so fully tied issues keep their
// input order.
func (e Evaluator) SortByAttention(issues []domain.Issue, now time.Time) []domain.Issue {
	out := append([]domain.Issue(nil), issues...)
	sort.SliceStable(out, func(i, j int) bool {
		ri := AttentionRank(e.CoarseFlag(out[i], now))
		rj := AttentionRank(e.CoarseFlag(out[j], now))
		if ri != rj {
			return ri < rj
		}
		si := effectiveScore(out[i])
		sj := effectiveScore(out[j])
		if si != sj {
			return si > sj
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// effectiveScore prefers the persisted score, falling back to the urgency
// label for documents written before scores existed.
func effectiveScore(issue domain.Issue) int {
	if issue.UrgencyScore != 0 {
		return issue.UrgencyScore
	}
	return domain.ScoreForUrgency(issue.Urgency)
}
