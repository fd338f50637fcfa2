package handlers

import (
	"github.com/spec-kit/issue-triage-service/internal/api/dto"
	"github.com/spec-kit/issue-triage-service/internal/domain"
	"github.com/spec-kit/issue-triage-service/internal/service"
)

func issueResponse(issue domain.Issue, sla *dto.SLAResponse) dto.IssueResponse {
	history := make([]dto.HistoryEntryResponse, 0, len(issue.History))
	for _, entry := range issue.History {
		history = append(history, dto.HistoryEntryResponse{
			Status: string(entry.Entry),
			At:     entry.At,
			Note:   entry.Note,
		})
	}

	resp := dto.IssueResponse{
		ID:           issue.ID,
		Title:        issue.Title,
		Description:  issue.Description,
		Category:     issue.Category,
		Urgency:      issue.Urgency,
		UrgencyScore: issue.UrgencyScore,
		Location:     issue.Location,
		Status:       issue.Status,
		Escalated:    issue.Escalated,
		IsDeleted:    issue.IsDeleted,
		AssignedTo:   issue.AssignedTo,
		AssignedBy:   issue.AssignedBy,
		CreatedBy:    issue.CreatedBy,
		CreatedAt:    issue.CreatedAt,
		UpdatedAt:    issue.UpdatedAt,
		AssignedAt:   issue.AssignedAt,
		EscalatedAt:  issue.EscalatedAt,
		AutoReason:   issue.AutoReason,
		History:      history,
		SLA:          sla,
	}
	if issue.Evidence != nil {
		resp.Evidence = &dto.EvidenceResponse{URL: issue.Evidence.URL, Name: issue.Evidence.Name}
	}
	return resp
}

func viewResponse(view service.IssueView) dto.IssueResponse {
	return issueResponse(view.Issue, &dto.SLAResponse{
		Flag:       view.Flag,
		Label:      view.Display.Label,
		Breached:   view.Display.Breached,
		ColorClass: view.Display.ColorClass,
		Deadline:   view.Deadline,
	})
}

func issueResponses(views []service.IssueView) []dto.IssueResponse {
	items := make([]dto.IssueResponse, 0, len(views))
	for _, view := range views {
		items = append(items, viewResponse(view))
	}
	return items
}
