package triage

import (
	"strings"

	"github.com/spec-kit/issue-triage-service/internal/domain"
)

// Match identifies a recent issue a candidate title likely re-reports.
type Match struct {
	IssueID string `json:"issueId"`
	Title   string `json:"title"`
}

// Detector flags likely re-reports. It is advisory only: callers surface
// the match, they never block submission on it.
type Detector struct {
	MinTitleLength int
	Threshold      float64
}

// NewDetector returns a detector with the stock parameters.
func NewDetector() Detector {
	return Detector{MinTitleLength: 6, Threshold: 0.6}
}

// FindDuplicate returns the first recent issue whose normalized title
// overlaps the candidate beyond the threshold. The caller restricts recent
// to issues created within the prior 24 hours. First-found semantics: the
// result depends on input order and is not necessarily the best match.
func (d Detector) FindDuplicate(candidateTitle string, recent []domain.Issue) *Match {
	if len(candidateTitle) < d.MinTitleLength {
		return nil
	}
	candidate := tokenize(candidateTitle)
	for _, issue := range recent {
		if similarity(candidate, tokenize(issue.Title)) > d.Threshold {
			return &Match{IssueID: issue.ID, Title: issue.Title}
		}
	}
	return nil
}

// tokenize lower-cases, strips everything outside [a-z0-9 ] and splits into
// a token set.
func tokenize(title string) map[string]struct{} {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(b.String()) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

// similarity is |intersection| / max(|a|, |b|, 1); the denominator never
// reaches zero.
func similarity(a, b map[string]struct{}) float64 {
	shared := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			shared++
		}
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	if denom < 1 {
		denom = 1
	}
	return float64(shared) / float64(denom)
}
