package dto

import (
	"time"

	"github.com/spec-kit/issue-triage-service/internal/domain"
	"github.com/spec-kit/issue-triage-service/internal/triage"
)

// CreateIssueRequest payload. Category and urgency are optional; leaving
// them empty asks the classifier to infer both.
type CreateIssueRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Urgency     string          `json:"urgency"`
	Location    string          `json:"location"`
	Evidence    *EvidenceUpload `json:"evidence,omitempty"`
}

// EvidenceUpload references an image stored via POST /issues/evidence.
type EvidenceUpload struct {
	URL  string `json:"url"`
	Path string `json:"path"`
	Name string `json:"name"`
}

// TransitionIssueRequest payload for admin state-machine actions.
type TransitionIssueRequest struct {
	Action string `json:"action"`
	Role   string `json:"role,omitempty"`
	Note   string `json:"note,omitempty"`
}

// IssueListQuery captures admin listing filters.
type IssueListQuery struct {
	Statuses       []domain.Status
	Categories     []domain.Category
	Location       *string
	IncludeDeleted bool
}

// HistoryEntryResponse is one ledger row.
type HistoryEntryResponse struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
	Note   string    `json:"note,omitempty"`
}

// SLAResponse carries the derived deadline state for one issue.
type SLAResponse struct {
	Flag       triage.Flag `json:"flag"`
	Label      string      `json:"label"`
	Breached   bool        `json:"breached"`
	ColorClass string      `json:"color_class"`
	Deadline   *time.Time  `json:"deadline,omitempty"`
}

// IssueResponse is the full issue representation.
type IssueResponse struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Category     domain.Category        `json:"category"`
	Urgency      domain.Urgency         `json:"urgency"`
	UrgencyScore int                    `json:"urgency_score"`
	Location     string                 `json:"location"`
	Status       domain.Status          `json:"status"`
	Escalated    bool                   `json:"escalated"`
	IsDeleted    bool                   `json:"is_deleted,omitempty"`
	AssignedTo   *domain.StaffRole      `json:"assigned_to,omitempty"`
	AssignedBy   string                 `json:"assigned_by,omitempty"`
	CreatedBy    string                 `json:"created_by"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	AssignedAt   *time.Time             `json:"assigned_at,omitempty"`
	EscalatedAt  *time.Time             `json:"escalated_at,omitempty"`
	AutoReason   string                 `json:"auto_reason,omitempty"`
	Evidence     *EvidenceResponse      `json:"evidence,omitempty"`
	History      []HistoryEntryResponse `json:"history"`
	SLA          *SLAResponse           `json:"sla,omitempty"`
}

// EvidenceResponse metadata for an attached image.
type EvidenceResponse struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// DuplicateCheckResponse advises the reporter before submission.
type DuplicateCheckResponse struct {
	Duplicate bool          `json:"duplicate"`
	Match     *DuplicateHit `json:"match,omitempty"`
}

// DuplicateHit names the likely original report.
type DuplicateHit struct {
	IssueID string `json:"issue_id"`
	Title   string `json:"title"`
}
