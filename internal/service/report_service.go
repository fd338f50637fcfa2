package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/issue-triage-service/internal/domain"
	"github.com/spec-kit/issue-triage-service/internal/repository"
	"github.com/spec-kit/issue-triage-service/internal/triage"
	apperrors "github.com/spec-kit/issue-triage-service/pkg/util/errorutil"
)

// placeholderNarrative is returned when the narrator is unavailable or
// fails; the statistics themselves are always reported.
const placeholderNarrative = "Narrative summary unavailable; see statistics."

// ReportStats aggregates the issue population for reporting.
type ReportStats struct {
	Total       int                      `json:"total"`
	ByCategory  map[domain.Category]int  `json:"by_category"`
	ByUrgency   map[domain.Urgency]int   `json:"by_urgency"`
	ByLocation  map[string]int           `json:"by_location"`
	ByAssignee  map[domain.StaffRole]int `json:"by_assignee"`
	Resolved    int                      `json:"resolved"`
	Breached    int                      `json:"breached"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// Report is the admin-facing weekly summary.
type Report struct {
	Stats     ReportStats `json:"stats"`
	Narrative string      `json:"narrative"`
}

// Narrator turns aggregate statistics into free text. Implementations are
// best-effort collaborators; errors degrade the report, never fail it.
type Narrator interface {
	Narrate(ctx context.Context, stats ReportStats) (string, error)
}

// ReportService builds aggregate reports with optional narration.
type ReportService struct {
	issues    repository.IssueRepository
	evaluator triage.Evaluator
	narrator  Narrator
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService constructs the service. narrator may be nil.
func NewReportService(issues repository.IssueRepository, evaluator triage.Evaluator, narrator Narrator, logger *zap.Logger, now func() time.Time) *ReportService {
	if now == nil {
		now = time.Now
	}
	return &ReportService{
		issues:    issues,
		evaluator: evaluator,
		narrator:  narrator,
		logger:    logger,
		now:       now,
	}
}

// WeeklyReport aggregates the current issue population and narrates it.
func (s *ReportService) WeeklyReport(ctx context.Context) (*Report, error) {
	issues, err := s.issues.ListWithFilter(ctx, repository.IssueFilter{Limit: 1000})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	stats := ReportStats{
		ByCategory:  make(map[domain.Category]int),
		ByUrgency:   make(map[domain.Urgency]int),
		ByLocation:  make(map[string]int),
		ByAssignee:  make(map[domain.StaffRole]int),
		GeneratedAt: now,
	}
	for _, issue := range issues {
		stats.Total++
		stats.ByCategory[issue.Category]++
		stats.ByUrgency[issue.Urgency]++
		stats.ByLocation[issue.Location]++
		if issue.AssignedTo != nil {
			stats.ByAssignee[*issue.AssignedTo]++
		}
		if issue.Status == domain.StatusResolved {
			stats.Resolved++
		}
		if s.evaluator.Display(issue, now).Breached {
			stats.Breached++
		}
	}

	return &Report{
		Stats:     stats,
		Narrative: s.narrate(ctx, stats),
	}, nil
}

func (s *ReportService) narrate(ctx context.Context, stats ReportStats) string {
	if s.narrator == nil {
		return placeholderNarrative
	}
	narrative, err := s.narrator.Narrate(ctx, stats)
	if err != nil {
		s.logger.Warn("summary narration failed; degrading to statistics only", zap.Error(err))
		return placeholderNarrative
	}
	return narrative
}
