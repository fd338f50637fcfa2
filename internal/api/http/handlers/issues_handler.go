package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-triage-service/internal/api/dto"
	"github.com/spec-kit/issue-triage-service/internal/auth"
	"github.com/spec-kit/issue-triage-service/internal/domain"
	"github.com/spec-kit/issue-triage-service/internal/service"
	apperrors "github.com/spec-kit/issue-triage-service/pkg/util/errorutil"
)

// IssuesHandler manages reporter-facing issue endpoints.
type IssuesHandler struct {
	service *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{service: issueService}
}

// CreateIssue POST /issues. Accepts JSON or multipart form; the multipart
// form may carry an "evidence" image file.
func (h *IssuesHandler) CreateIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}

	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("title required", nil)
	}

	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	urgency, err := domain.ParseUrgency(req.Urgency)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	input := service.IssueCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    category,
		Urgency:     urgency,
		Location:    req.Location,
	}
	if req.Evidence != nil {
		input.EvidenceRef = &domain.EvidenceImage{
			URL:  req.Evidence.URL,
			Path: req.Evidence.Path,
			Name: req.Evidence.Name,
		}
	}
	if fileHeader, err := c.FormFile("evidence"); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			return apperrors.NewValidationError("unreadable evidence file", nil)
		}
		defer file.Close()
		input.Evidence = &service.EvidenceFile{Name: fileHeader.Filename, Content: file}
	}

	issue, err := h.service.CreateIssue(c.Context(), principal.User.ID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": issueResponse(*issue, nil)})
}

// ListIssues GET /issues. Returns the caller's issues in attention order.
func (h *IssuesHandler) ListIssues(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	views, err := h.service.ListUserIssues(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponses(views)})
}

// GetIssue GET /issues/:id. Reporters may only read their own issues.
func (h *IssuesHandler) GetIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	view, err := h.service.GetIssue(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if principal.Role != domain.UserRoleAdmin && view.Issue.CreatedBy != principal.User.ID {
		return apperrors.NewNotFound("issue", map[string]any{"issue_id": c.Params("id")})
	}
	return c.JSON(fiber.Map{"data": viewResponse(*view)})
}

// UploadEvidence POST /issues/evidence. Stores an image and returns its
// location for a later CreateIssue call to reference.
func (h *IssuesHandler) UploadEvidence(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader == nil {
		return apperrors.NewValidationError("file required", nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable file", nil)
	}
	defer file.Close()

	evidence, err := h.service.UploadEvidence(c.Context(), principal.User.ID, service.EvidenceFile{
		Name:    fileHeader.Filename,
		Content: file,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.EvidenceUpload{
		URL:  evidence.URL,
		Path: evidence.Path,
		Name: evidence.Name,
	}})
}

// CheckDuplicate GET /issues/duplicate-check?title=... advises the reporter
// before they submit. Advisory only, submission is never blocked.
func (h *IssuesHandler) CheckDuplicate(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("user required")
	}
	title := c.Query("title")
	if strings.TrimSpace(title) == "" {
		return apperrors.NewValidationError("title query parameter required", nil)
	}
	match, err := h.service.CheckDuplicate(c.Context(), title)
	if err != nil {
		return err
	}
	resp := dto.DuplicateCheckResponse{Duplicate: match != nil}
	if match != nil {
		resp.Match = &dto.DuplicateHit{IssueID: match.IssueID, Title: match.Title}
	}
	return c.JSON(fiber.Map{"data": resp})
}
