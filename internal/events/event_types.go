package events

import (
	"time"

	"github.com/spec-kit/issue-triage-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated       EventType = "issue_created"
	EventIssueAssigned      EventType = "issue_assigned"
	EventIssueStatusChanged EventType = "issue_status_changed"
	EventIssueEscalated     EventType = "issue_escalated"
	EventIssueDeleted       EventType = "issue_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Title      string            `json:"title"`
	Category   domain.Category   `json:"category"`
	Urgency    domain.Urgency    `json:"urgency"`
	Location   string            `json:"location"`
	AssignedTo *domain.StaffRole `json:"assigned_to,omitempty"`
	AutoReason string            `json:"auto_reason,omitempty"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.Status `json:"old_status"`
	NewStatus domain.Status `json:"new_status"`
	Note      string        `json:"note,omitempty"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	AssignedTo domain.StaffRole `json:"assigned_to"`
	Note       string           `json:"note,omitempty"`
}

// IssueEscalatedPayload payload.
type IssueEscalatedPayload struct {
	Note string `json:"note,omitempty"`
}

// IssueDeletedPayload payload.
type IssueDeletedPayload struct {
	DeletedBy string `json:"deleted_by"`
}
