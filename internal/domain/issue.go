package domain

import (
	"fmt"
	"time"
)

// Category enumerates the facility areas an issue can belong to.
type Category string

const (
	CategoryWater       Category = "water"
	CategoryElectricity Category = "electricity"
	CategoryWifi        Category = "wifi"
	CategoryMess        Category = "mess"
	CategoryMaintenance Category = "maintenance"
	CategoryOther       Category = "other"
)

// Urgency enumerates reporter-facing severity.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Status enumerates lifecycle states for issues. Escalation and soft
// deletion are independent flags layered on top, never statuses.
type Status string

const (
	StatusOpen       Status = "open"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

// StaffRole enumerates the fixed maintenance roles issues route to.
type StaffRole string

const (
	RolePlumber        StaffRole = "plumber"
	RoleElectrician    StaffRole = "electrician"
	RoleWifiTeam       StaffRole = "wifi_team"
	RoleMessSupervisor StaffRole = "mess_supervisor"
	RoleMaintenance    StaffRole = "maintenance"
)

// EvidenceImage is an opaque reference to an uploaded attachment.
type EvidenceImage struct {
	URL  string `json:"url"`
	Path string `json:"path"`
	Name string `json:"name"`
}

// Issue is the aggregate for a reported facility problem.
type Issue struct {
	ID           string
	Title        string
	Description  string
	Category     Category
	Urgency      Urgency
	UrgencyScore int
	Location     string
	Status       Status
	Escalated    bool
	IsDeleted    bool
	AssignedTo   *StaffRole
	AssignedBy   string
	CreatedBy    string
	DeletedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	AssignedAt   *time.Time
	EscalatedAt  *time.Time
	DeletedAt    *time.Time
	History      []HistoryEntry
	Evidence     *EvidenceImage
	AutoReason   string
}

// Clone returns a deep copy so pure computations never alias the original.
func (i Issue) Clone() Issue {
	out := i
	out.History = append([]HistoryEntry(nil), i.History...)
	out.AssignedTo = clonePtr(i.AssignedTo)
	out.AssignedAt = clonePtr(i.AssignedAt)
	out.EscalatedAt = clonePtr(i.EscalatedAt)
	out.DeletedAt = clonePtr(i.DeletedAt)
	out.Evidence = clonePtr(i.Evidence)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ScoreForUrgency maps urgency to its persisted integer proxy.
func ScoreForUrgency(u Urgency) int {
	switch u {
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	default:
		return 0
	}
}

// ParseCategory validates an inbound category string. Empty means "auto".
func ParseCategory(raw string) (Category, error) {
	switch Category(raw) {
	case CategoryWater, CategoryElectricity, CategoryWifi, CategoryMess, CategoryMaintenance, CategoryOther:
		return Category(raw), nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("unknown category %q", raw)
	}
}

// ParseUrgency validates an inbound urgency string. Empty means "auto".
func ParseUrgency(raw string) (Urgency, error) {
	switch Urgency(raw) {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return Urgency(raw), nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("unknown urgency %q", raw)
	}
}

// ParseStatus validates an inbound status string.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusOpen, StatusAssigned, StatusInProgress, StatusResolved:
		return Status(raw), nil
	default:
		return "", fmt.Errorf("unknown status %q", raw)
	}
}

// ParseStaffRole validates an inbound staff role string.
func ParseStaffRole(raw string) (StaffRole, error) {
	switch StaffRole(raw) {
	case RolePlumber, RoleElectrician, RoleWifiTeam, RoleMessSupervisor, RoleMaintenance:
		return StaffRole(raw), nil
	default:
		return "", fmt.Errorf("unknown staff role %q", raw)
	}
}
