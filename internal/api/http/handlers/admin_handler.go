package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-triage-service/internal/api/dto"
	"github.com/spec-kit/issue-triage-service/internal/auth"
	"github.com/spec-kit/issue-triage-service/internal/domain"
	"github.com/spec-kit/issue-triage-service/internal/service"
	"github.com/spec-kit/issue-triage-service/internal/triage"
	apperrors "github.com/spec-kit/issue-triage-service/pkg/util/errorutil"
)

// AdminHandler manages the administrative issue surface.
type AdminHandler struct {
	service *service.IssueService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(issueService *service.IssueService) *AdminHandler {
	return &AdminHandler{service: issueService}
}

// ListIssues GET /admin/issues. Every matching issue in attention order.
func (h *AdminHandler) ListIssues(c *fiber.Ctx) error {
	filter, err := parseAdminIssueFilter(c)
	if err != nil {
		return err
	}
	views, err := h.service.ListAllIssues(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponses(views)})
}

// GetIssue GET /admin/issues/:id.
func (h *AdminHandler) GetIssue(c *fiber.Ctx) error {
	view, err := h.service.GetIssue(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": viewResponse(*view)})
}

// TransitionIssue POST /admin/issues/:id/transition. A rejected transition
// returns 409 and leaves the issue untouched.
func (h *AdminHandler) TransitionIssue(c *fiber.Ctx) error {
	principal, err := adminPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.TransitionIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	action, err := triage.ParseAction(req.Action)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	transition := service.TransitionRequest{Action: action, Note: req.Note}
	if req.Role != "" {
		role, err := domain.ParseStaffRole(req.Role)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		transition.Role = &role
	}

	issue, err := h.service.ApplyTransition(c.Context(), principal.User.ID, c.Params("id"), transition)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(*issue, nil)})
}

func adminPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Role != domain.UserRoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	return principal, nil
}

func parseAdminIssueFilter(c *fiber.Ctx) (service.AdminFilter, error) {
	filter := service.AdminFilter{}
	if statuses := c.Query("status"); statuses != "" {
		for _, part := range strings.Split(statuses, ",") {
			status, err := domain.ParseStatus(strings.TrimSpace(part))
			if err != nil {
				return filter, apperrors.NewValidationError(err.Error(), nil)
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if categories := c.Query("category"); categories != "" {
		for _, part := range strings.Split(categories, ",") {
			category, err := domain.ParseCategory(strings.TrimSpace(part))
			if err != nil || category == "" {
				return filter, apperrors.NewValidationError("invalid category filter", nil)
			}
			filter.Categories = append(filter.Categories, category)
		}
	}
	if location := c.Query("location"); location != "" {
		filter.Location = &location
	}
	filter.IncludeDeleted = c.QueryBool("include_deleted")
	return filter, nil
}
