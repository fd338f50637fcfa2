package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-triage-service/internal/domain"
	"github.com/spec-kit/issue-triage-service/internal/events"
	"github.com/spec-kit/issue-triage-service/internal/observability"
	"github.com/spec-kit/issue-triage-service/internal/repository"
	"github.com/spec-kit/issue-triage-service/internal/triage"
	apperrors "github.com/spec-kit/issue-triage-service/pkg/util/errorutil"
)

const defaultLocation = "Hostel A"

// EvidenceUploader pushes an evidence image to blob storage. Upload failure
// never blocks issue creation.
type EvidenceUploader interface {
	Upload(ctx context.Context, file io.Reader, userID, filename string) (*domain.EvidenceImage, error)
}

// IssueService coordinates issue intake, reads and transitions.
type IssueService struct {
	issues       repository.IssueRepository
	recentCache  *repository.RecentTitleCache
	ledger       triage.Ledger
	detector     triage.Detector
	recentWindow time.Duration
	uploader     EvidenceUploader
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo    repository.IssueRepository
	RecentCache  *repository.RecentTitleCache
	Ledger       triage.Ledger
	Detector     triage.Detector
	RecentWindow time.Duration
	Uploader     EvidenceUploader
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
	Now          func() time.Time
}

// IssueCreateInput describes a new report. Category and Urgency may be
// empty, in which case the classifier infers them.
type IssueCreateInput struct {
	Title       string
	Description string
	Category    domain.Category
	Urgency     domain.Urgency
	Location    string
	Evidence    *EvidenceFile
	EvidenceRef *domain.EvidenceImage
}

// EvidenceFile is an optional attachment accompanying a report.
type EvidenceFile struct {
	Name    string
	Content io.Reader
}

// TransitionRequest describes an administrative action on an issue.
type TransitionRequest struct {
	Action triage.Action
	Role   *domain.StaffRole
	Note   string
}

// IssueView pairs a persisted snapshot with its derived SLA state as of a
// single read instant.
type IssueView struct {
	Issue    domain.Issue
	Flag     triage.Flag
	Display  triage.Display
	Deadline *time.Time
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	window := deps.RecentWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &IssueService{
		issues:       deps.IssueRepo,
		recentCache:  deps.RecentCache,
		ledger:       deps.Ledger,
		detector:     deps.Detector,
		recentWindow: window,
		uploader:     deps.Uploader,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		now:          now,
	}
}

// CreateIssue classifies, routes and persists a new report.
func (s *IssueService) CreateIssue(ctx context.Context, userID string, input IssueCreateInput) (*domain.Issue, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	location := strings.TrimSpace(input.Location)
	if location == "" {
		location = defaultLocation
	}

	classification := triage.ClassifyAndRoute(title, input.Description, input.Category, input.Urgency)
	now := s.now()
	status, history := triage.SeedHistory(classification, now)

	issue := &domain.Issue{
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Category:     classification.Category,
		Urgency:      classification.Urgency,
		UrgencyScore: classification.UrgencyScore,
		Location:     location,
		Status:       status,
		AssignedTo:   classification.AssignedTo,
		CreatedBy:    userID,
		CreatedAt:    now,
		UpdatedAt:    now,
		History:      history,
		AutoReason:   classification.Reason,
		Evidence:     input.EvidenceRef,
	}
	if issue.Evidence == nil {
		issue.Evidence = s.uploadEvidence(ctx, userID, input.Evidence)
	}
	if classification.AssignedTo != nil {
		issue.AssignedBy = "system"
		issue.AssignedAt = &now
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.metrics.RecordTriage(string(issue.Category), issue.AssignedTo != nil)

	if err := s.recentCache.Add(ctx, *issue); err != nil {
		s.logger.Debug("recent-title cache add failed", zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		ActorID: userID,
		Payload: events.IssueCreatedPayload{
			Title:      issue.Title,
			Category:   issue.Category,
			Urgency:    issue.Urgency,
			Location:   issue.Location,
			AssignedTo: issue.AssignedTo,
			AutoReason: issue.AutoReason,
		},
	})
	if issue.AssignedTo != nil {
		s.publish(ctx, events.Event{
			Type:    events.EventIssueAssigned,
			IssueID: issue.ID,
			ActorID: "system",
			Payload: events.IssueAssignedPayload{AssignedTo: *issue.AssignedTo},
		})
	}
	return issue, nil
}

// UploadEvidence stores an image ahead of issue creation and returns its
// stored location for the reporter to reference on submit.
func (s *IssueService) UploadEvidence(ctx context.Context, userID string, file EvidenceFile) (*domain.EvidenceImage, error) {
	if s.uploader == nil {
		return nil, apperrors.NewDomainError("EVIDENCE_UPLOAD_DISABLED",
			"evidence upload not configured", http.StatusServiceUnavailable, nil)
	}
	evidence, err := s.uploader.Upload(ctx, file.Content, userID, file.Name)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return evidence, nil
}

// uploadEvidence is best-effort: any failure degrades to no attachment.
func (s *IssueService) uploadEvidence(ctx context.Context, userID string, file *EvidenceFile) *domain.EvidenceImage {
	if file == nil || s.uploader == nil {
		return nil
	}
	evidence, err := s.uploader.Upload(ctx, file.Content, userID, file.Name)
	if err != nil {
		s.logger.Warn("evidence upload failed; continuing without attachment",
			zap.String("file", file.Name), zap.Error(err))
		return nil
	}
	return evidence
}

// CheckDuplicate advises whether a candidate title likely re-reports a
// recent issue. It never blocks submission.
func (s *IssueService) CheckDuplicate(ctx context.Context, title string) (*triage.Match, error) {
	now := s.now()
	recent, err := s.recentCache.Recent(ctx, now)
	if err != nil || len(recent) == 0 {
		recent, err = s.issues.ListRecent(ctx, now.Add(-s.recentWindow))
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return s.detector.FindDuplicate(title, recent), nil
}

// GetIssue loads one issue with derived SLA state.
func (s *IssueService) GetIssue(ctx context.Context, id string) (*IssueView, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	view := s.view(*issue, s.now())
	return &view, nil
}

// ListUserIssues returns the reporter's non-deleted issues in attention
// order.
func (s *IssueService) ListUserIssues(ctx context.Context, userID string) ([]IssueView, error) {
	return s.list(ctx, repository.IssueFilter{CreatedBy: &userID})
}

// AdminFilter narrows the administrative listing.
type AdminFilter struct {
	Statuses       []domain.Status
	Categories     []domain.Category
	Location       *string
	IncludeDeleted bool
}

// ListAllIssues returns every matching issue in attention order.
func (s *IssueService) ListAllIssues(ctx context.Context, filter AdminFilter) ([]IssueView, error) {
	return s.list(ctx, repository.IssueFilter{
		Statuses:       filter.Statuses,
		Categories:     filter.Categories,
		Location:       filter.Location,
		IncludeDeleted: filter.IncludeDeleted,
	})
}

func (s *IssueService) list(ctx context.Context, filter repository.IssueFilter) ([]IssueView, error) {
	issues, err := s.issues.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	now := s.now()
	sorted := s.ledger.Evaluator.SortByAttention(issues, now)
	views := make([]IssueView, 0, len(sorted))
	for _, issue := range sorted {
		views = append(views, s.view(issue, now))
	}
	return views, nil
}

func (s *IssueService) view(issue domain.Issue, now time.Time) IssueView {
	view := IssueView{
		Issue:   issue,
		Flag:    s.ledger.Evaluator.CoarseFlag(issue, now),
		Display: s.ledger.Evaluator.Display(issue, now),
	}
	if deadline, ok := s.ledger.Evaluator.Deadline(issue); ok {
		view.Deadline = &deadline
	}
	return view
}

// ApplyTransition runs one state-machine action against an issue. The
// repository serializes the read-decide-append sequence per issue.
func (s *IssueService) ApplyTransition(ctx context.Context, actorID, issueID string, req TransitionRequest) (*domain.Issue, error) {
	now := s.now()
	updated, err := s.issues.ApplyTransition(ctx, issueID, func(snapshot domain.Issue) (domain.Issue, error) {
		return s.ledger.Apply(snapshot, triage.TransitionInput{
			Action: req.Action,
			Role:   req.Role,
			Note:   req.Note,
			Actor:  actorID,
			Now:    now,
		})
	})
	if err != nil {
		var terr *triage.TransitionError
		if errors.As(err, &terr) {
			return nil, apperrors.NewTransitionRejected(terr.Reason, map[string]any{
				"issue_id": issueID,
				"action":   string(terr.Action),
			})
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishTransition(ctx, actorID, req, updated)
	return updated, nil
}

func (s *IssueService) publishTransition(ctx context.Context, actorID string, req TransitionRequest, issue *domain.Issue) {
	switch req.Action {
	case triage.ActionEscalate:
		s.publish(ctx, events.Event{
			Type:    events.EventIssueEscalated,
			IssueID: issue.ID,
			ActorID: actorID,
			Payload: events.IssueEscalatedPayload{Note: req.Note},
		})
	case triage.ActionDelete:
		s.publish(ctx, events.Event{
			Type:    events.EventIssueDeleted,
			IssueID: issue.ID,
			ActorID: actorID,
			Payload: events.IssueDeletedPayload{DeletedBy: actorID},
		})
	case triage.ActionAssign:
		if issue.AssignedTo != nil {
			s.publish(ctx, events.Event{
				Type:    events.EventIssueAssigned,
				IssueID: issue.ID,
				ActorID: actorID,
				Payload: events.IssueAssignedPayload{AssignedTo: *issue.AssignedTo, Note: req.Note},
			})
		}
	default:
		s.publish(ctx, events.Event{
			Type:    events.EventIssueStatusChanged,
			IssueID: issue.ID,
			ActorID: actorID,
			Payload: events.IssueStatusChangedPayload{NewStatus: issue.Status, Note: req.Note},
		})
	}
}

func (s *IssueService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
