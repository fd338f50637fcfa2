package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-triage-service/internal/domain"
	"github.com/spec-kit/issue-triage-service/internal/events"
	"github.com/spec-kit/issue-triage-service/internal/repository"
	"github.com/spec-kit/issue-triage-service/internal/triage"
	apperrors "github.com/spec-kit/issue-triage-service/pkg/util/errorutil"
)

// fakeIssueRepo keeps issues in memory and mirrors the repository's
// transition semantics: the closure runs against a snapshot and exactly
// its result is stored.
type fakeIssueRepo struct {
	issues map[string]domain.Issue
	order  []string
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: make(map[string]domain.Issue)}
}

func (r *fakeIssueRepo) Create(_ context.Context, issue *domain.Issue) error {
	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	r.issues[issue.ID] = *issue
	r.order = append(r.order, issue.ID)
	return nil
}

func (r *fakeIssueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	issue, ok := r.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := issue.Clone()
	return &clone, nil
}

func (r *fakeIssueRepo) ListWithFilter(_ context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	out := make([]domain.Issue, 0, len(r.order))
	for _, id := range r.order {
		issue := r.issues[id]
		if filter.CreatedBy != nil && issue.CreatedBy != *filter.CreatedBy {
			continue
		}
		if issue.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		out = append(out, issue.Clone())
	}
	return out, nil
}

func (r *fakeIssueRepo) ListRecent(_ context.Context, since time.Time) ([]domain.Issue, error) {
	out := make([]domain.Issue, 0, len(r.order))
	for _, id := range r.order {
		issue := r.issues[id]
		if issue.IsDeleted || issue.CreatedAt.Before(since) {
			continue
		}
		out = append(out, issue.Clone())
	}
	return out, nil
}

func (r *fakeIssueRepo) ApplyTransition(_ context.Context, issueID string, apply func(domain.Issue) (domain.Issue, error)) (*domain.Issue, error) {
	issue, ok := r.issues[issueID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	next, err := apply(issue.Clone())
	if err != nil {
		return nil, err
	}
	r.issues[issueID] = next
	clone := next.Clone()
	return &clone, nil
}

func newTestService(repo *fakeIssueRepo, now time.Time) (*IssueService, events.Dispatcher) {
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewIssueService(IssueDependencies{
		IssueRepo:    repo,
		RecentCache:  nil,
		Ledger:       triage.NewLedger(),
		Detector:     triage.NewDetector(),
		RecentWindow: 24 * time.Hour,
		Dispatcher:   dispatcher,
		Logger:       zap.NewNop(),
		Now:          func() time.Time { return now },
	})
	return svc, dispatcher
}

func TestCreateIssueClassifiesRoutesAndSeedsHistory(t *testing.T) {
	repo := newFakeIssueRepo()
	now := time.Now()
	svc, _ := newTestService(repo, now)

	issue, err := svc.CreateIssue(context.Background(), "user-1", IssueCreateInput{
		Title:       "Water leaking from bathroom pipe",
		Description: "the floor is flooding",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryWater, issue.Category)
	assert.Equal(t, domain.UrgencyHigh, issue.Urgency)
	assert.Equal(t, domain.StatusAssigned, issue.Status)
	require.NotNil(t, issue.AssignedTo)
	assert.Equal(t, domain.RolePlumber, *issue.AssignedTo)
	assert.Equal(t, "system", issue.AssignedBy)
	require.NotNil(t, issue.AssignedAt)
	assert.Equal(t, "Hostel A", issue.Location)

	require.Len(t, issue.History, 2)
	assert.Equal(t, domain.HistoryOpen, issue.History[0].Entry)
	assert.Equal(t, domain.HistoryAssigned, issue.History[1].Entry)
	assert.Equal(t, "Auto-assigned to plumber", issue.History[1].Note)
}

func TestCreateIssueRequiresTitle(t *testing.T) {
	svc, _ := newTestService(newFakeIssueRepo(), time.Now())

	_, err := svc.CreateIssue(context.Background(), "user-1", IssueCreateInput{Title: "   "})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestCreateIssueUnroutableStaysOpen(t *testing.T) {
	svc, _ := newTestService(newFakeIssueRepo(), time.Now())

	issue, err := svc.CreateIssue(context.Background(), "user-1", IssueCreateInput{
		Title: "Something odd happened yesterday",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryOther, issue.Category)
	assert.Equal(t, domain.StatusOpen, issue.Status)
	assert.Nil(t, issue.AssignedTo)
	assert.Empty(t, issue.AssignedBy)
	require.Len(t, issue.History, 1)
}

func TestCreateIssuePublishesEvents(t *testing.T) {
	repo := newFakeIssueRepo()
	svc, dispatcher := newTestService(repo, time.Now())

	var got []events.EventType
	dispatcher.Subscribe(events.EventIssueCreated, func(_ context.Context, e events.Event) error {
		got = append(got, e.Type)
		return nil
	})
	dispatcher.Subscribe(events.EventIssueAssigned, func(_ context.Context, e events.Event) error {
		got = append(got, e.Type)
		return nil
	})

	_, err := svc.CreateIssue(context.Background(), "user-1", IssueCreateInput{
		Title: "No power in room 12, socket sparking",
	})
	require.NoError(t, err)
	assert.Equal(t, []events.EventType{events.EventIssueCreated, events.EventIssueAssigned}, got)
}

func TestCheckDuplicateFallsBackToRepository(t *testing.T) {
	repo := newFakeIssueRepo()
	now := time.Now()
	svc, _ := newTestService(repo, now)

	require.NoError(t, repo.Create(context.Background(), &domain.Issue{
		Title:     "wifi not working in block b",
		CreatedBy: "user-2",
		CreatedAt: now.Add(-2 * time.Hour),
	}))

	match, err := svc.CheckDuplicate(context.Background(), "WiFi not working in block B")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "wifi not working in block b", match.Title)

	match, err = svc.CheckDuplicate(context.Background(), "mess food quality complaint")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestApplyTransitionAssignAppendsOneEntry(t *testing.T) {
	repo := newFakeIssueRepo()
	now := time.Now()
	svc, _ := newTestService(repo, now)

	issue, err := svc.CreateIssue(context.Background(), "user-1", IssueCreateInput{
		Title: "Strange noise at night",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusOpen, issue.Status)

	role := domain.RoleMaintenance
	updated, err := svc.ApplyTransition(context.Background(), "admin-1", issue.ID, TransitionRequest{
		Action: triage.ActionAssign,
		Role:   &role,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusAssigned, updated.Status)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, role, *updated.AssignedTo)
	assert.Equal(t, "admin-1", updated.AssignedBy)
	assert.Len(t, updated.History, len(issue.History)+1)
}

func TestApplyTransitionRejectionMapsToConflict(t *testing.T) {
	repo := newFakeIssueRepo()
	svc, _ := newTestService(repo, time.Now())

	issue, err := svc.CreateIssue(context.Background(), "user-1", IssueCreateInput{
		Title: "Tap leaking in washroom",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusAssigned, issue.Status)

	// resolve is legal from assigned, a second resolve must be rejected
	_, err = svc.ApplyTransition(context.Background(), "admin-1", issue.ID, TransitionRequest{Action: triage.ActionResolve})
	require.NoError(t, err)

	_, err = svc.ApplyTransition(context.Background(), "admin-1", issue.ID, TransitionRequest{Action: triage.ActionResolve})
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "TRANSITION_REJECTED", domainErr.Code)
	assert.Equal(t, 409, domainErr.HTTPStatus)

	stored, err := repo.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, stored.Status)
}

func TestApplyTransitionUnknownIssue(t *testing.T) {
	svc, _ := newTestService(newFakeIssueRepo(), time.Now())

	_, err := svc.ApplyTransition(context.Background(), "admin-1", "missing", TransitionRequest{Action: triage.ActionStart})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestListUserIssuesSortsByAttention(t *testing.T) {
	repo := newFakeIssueRepo()
	now := time.Now()
	svc, _ := newTestService(repo, now)

	old := domain.Issue{
		ID: "low", Title: "minor paint chip", CreatedBy: "user-1",
		Category: domain.CategoryMaintenance, Urgency: domain.UrgencyLow, UrgencyScore: 1,
		Status: domain.StatusOpen, CreatedAt: now.Add(-1 * time.Hour),
		History: []domain.HistoryEntry{{Entry: domain.HistoryOpen, At: now.Add(-1 * time.Hour)}},
	}
	stale := domain.Issue{
		ID: "overdue", Title: "fan broken", CreatedBy: "user-1",
		Category: domain.CategoryElectricity, Urgency: domain.UrgencyLow, UrgencyScore: 1,
		Status: domain.StatusAssigned, CreatedAt: now.Add(-80 * time.Hour),
		History: []domain.HistoryEntry{
			{Entry: domain.HistoryOpen, At: now.Add(-80 * time.Hour)},
			{Entry: domain.HistoryAssigned, At: now.Add(-60 * time.Hour)},
		},
	}
	require.NoError(t, repo.Create(context.Background(), &old))
	require.NoError(t, repo.Create(context.Background(), &stale))

	views, err := svc.ListUserIssues(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, views, 2)

	// the overdue issue outranks the fresher one despite equal urgency
	assert.Equal(t, "overdue", views[0].Issue.ID)
	assert.Equal(t, triage.FlagOverdue, views[0].Flag)
	assert.Equal(t, "low", views[1].Issue.ID)
	require.NotNil(t, views[1].Deadline)
	assert.Equal(t, old.CreatedAt.Add(24*time.Hour), *views[1].Deadline)
}
