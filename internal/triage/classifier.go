package triage

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/issue-triage-service/internal/domain"
)

// Classification is the outcome of classifying and routing a new report.
type Classification struct {
	Category     domain.Category
	Urgency      domain.Urgency
	UrgencyScore int
	AssignedTo   *domain.StaffRole
	Reason       string
}

// categoryKeywords drive the text heuristic. Order fixes tie-breaking so
// classification stays deterministic.
var categoryOrder = []domain.Category{
	domain.CategoryWater,
	domain.CategoryElectricity,
	domain.CategoryWifi,
	domain.CategoryMess,
	domain.CategoryMaintenance,
}

var categoryKeywords = map[domain.Category][]string{
	domain.CategoryWater: {
		"water", "leak", "leakage", "tap", "pipe", "pipeline", "flood",
		"flooding", "drain", "drainage", "shower", "geyser", "seepage",
	},
	domain.CategoryElectricity: {
		"power", "electric", "electricity", "socket", "switch", "fan",
		"light", "bulb", "tube", "voltage", "sparking", "short circuit",
	},
	domain.CategoryWifi: {
		"wifi", "wi-fi", "internet", "network", "router", "lan", "signal",
		"connectivity",
	},
	domain.CategoryMess: {
		"mess", "food", "meal", "canteen", "kitchen", "hygiene", "stale",
	},
	domain.CategoryMaintenance: {
		"door", "window", "bed", "chair", "table", "wall", "paint",
		"furniture", "lock", "ceiling", "carpenter", "broken", "crack",
	},
}

var highUrgencyKeywords = []string{
	"urgent", "emergency", "immediately", "flooding", "flood", "burst",
	"sparking", "fire", "shock", "overflow", "exposed wire", "no power",
	"no water",
}

var lowUrgencyKeywords = []string{
	"minor", "slight", "small", "sometimes", "occasionally", "cosmetic",
	"whenever possible",
}

// routing is the fixed category → staff role table. Category is the sole
// routing key; urgency is never consulted.
var routing = map[domain.Category]domain.StaffRole{
	domain.CategoryWater:       domain.RolePlumber,
	domain.CategoryElectricity: domain.RoleElectrician,
	domain.CategoryWifi:        domain.RoleWifiTeam,
	domain.CategoryMess:        domain.RoleMessSupervisor,
	domain.CategoryMaintenance: domain.RoleMaintenance,
}

// RouteForCategory returns the staff role a category routes to, or nil for
// other/unrecognized categories.
func RouteForCategory(category domain.Category) *domain.StaffRole {
	if role, ok := routing[category]; ok {
		return &role
	}
	return nil
}

// ClassifyAndRoute determines category, urgency, score and assignment for a
// new report. Explicit category/urgency take precedence; otherwise the
// keyword heuristic infers them from title+description and explains itself
// in Reason.
func ClassifyAndRoute(title, description string, explicitCategory domain.Category, explicitUrgency domain.Urgency) Classification {
	text := strings.ToLower(strings.TrimSpace(title + " " + description))

	var reasons []string

	category := explicitCategory
	if category == "" {
		var matched string
		category, matched = inferCategory(text)
		if matched != "" {
			reasons = append(reasons, fmt.Sprintf("matched %q -> %s", matched, category))
		} else {
			reasons = append(reasons, "no category keyword matched; defaulted to other")
		}
	} else {
		reasons = append(reasons, fmt.Sprintf("category %s chosen by reporter", category))
	}

	urgency := explicitUrgency
	if urgency == "" {
		var matched string
		urgency, matched = inferUrgency(text)
		if matched != "" {
			reasons = append(reasons, fmt.Sprintf("urgency %s (keyword %q)", urgency, matched))
		} else {
			reasons = append(reasons, "urgency defaulted to medium")
		}
	} else {
		reasons = append(reasons, fmt.Sprintf("urgency %s chosen by reporter", urgency))
	}

	return Classification{
		Category:     category,
		Urgency:      urgency,
		UrgencyScore: domain.ScoreForUrgency(urgency),
		AssignedTo:   RouteForCategory(category),
		Reason:       strings.Join(reasons, "; "),
	}
}

func inferCategory(text string) (domain.Category, string) {
	best := domain.CategoryOther
	bestHits := 0
	bestKeyword := ""
	for _, category := range categoryOrder {
		hits := 0
		first := ""
		for _, kw := range categoryKeywords[category] {
			if strings.Contains(text, kw) {
				hits++
				if first == "" {
					first = kw
				}
			}
		}
		if hits > bestHits {
			best = category
			bestHits = hits
			bestKeyword = first
		}
	}
	return best, bestKeyword
}

func inferUrgency(text string) (domain.Urgency, string) {
	for _, kw := range highUrgencyKeywords {
		if strings.Contains(text, kw) {
			return domain.UrgencyHigh, kw
		}
	}
	for _, kw := range lowUrgencyKeywords {
		if strings.Contains(text, kw) {
			return domain.UrgencyLow, kw
		}
	}
	return domain.UrgencyMedium, ""
}

// SeedHistory builds the initial ledger for a freshly classified issue: an
// "open" entry always, plus an "assigned" entry carrying the auto-assignment
// note when routing produced a role.
func SeedHistory(c Classification, now time.Time) (domain.Status, []domain.HistoryEntry) {
	history := []domain.HistoryEntry{{Entry: domain.HistoryOpen, At: now}}
	if c.AssignedTo == nil {
		return domain.StatusOpen, history
	}
	history = append(history, domain.HistoryEntry{
		Entry: domain.HistoryAssigned,
		At:    now,
		Note:  fmt.Sprintf("Auto-assigned to %s", *c.AssignedTo),
	})
	return domain.StatusAssigned, history
}
