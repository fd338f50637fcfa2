package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/issue-triage-service/internal/domain"
)

func TestClassifyAndRouteInfersCategory(t *testing.T) {
	c := ClassifyAndRoute("Water leakage in room 203", "tap keeps dripping", "", "")
	assert.Equal(t, domain.CategoryWater, c.Category)
	require.NotNil(t, c.AssignedTo)
	assert.Equal(t, domain.RolePlumber, *c.AssignedTo)
	assert.Equal(t, domain.UrgencyMedium, c.Urgency)
	assert.Equal(t, 2, c.UrgencyScore)
	assert.Contains(t, c.Reason, "water")
}

func TestClassifyAndRouteExplicitValuesWin(t *testing.T) {
	c := ClassifyAndRoute("Water leakage", "", domain.CategoryWifi, domain.UrgencyLow)
	assert.Equal(t, domain.CategoryWifi, c.Category)
	require.NotNil(t, c.AssignedTo)
	assert.Equal(t, domain.RoleWifiTeam, *c.AssignedTo)
	assert.Equal(t, domain.UrgencyLow, c.Urgency)
	assert.Equal(t, 1, c.UrgencyScore)
}

func TestClassifyAndRouteUrgencyKeywords(t *testing.T) {
	high := ClassifyAndRoute("Pipe burst, room flooding", "", "", "")
	assert.Equal(t, domain.UrgencyHigh, high.Urgency)
	assert.Equal(t, 3, high.UrgencyScore)

	low := ClassifyAndRoute("Minor crack in the wall paint", "", "", "")
	assert.Equal(t, domain.UrgencyLow, low.Urgency)
	assert.Equal(t, domain.CategoryMaintenance, low.Category)
}

func TestClassifyAndRouteUnmatchedFallsToOther(t *testing.T) {
	c := ClassifyAndRoute("Something odd happened", "", "", "")
	assert.Equal(t, domain.CategoryOther, c.Category)
	assert.Nil(t, c.AssignedTo)
	assert.Equal(t, domain.UrgencyMedium, c.Urgency)
}

func TestRouteForCategoryTable(t *testing.T) {
	cases := map[domain.Category]domain.StaffRole{
		domain.CategoryWater:       domain.RolePlumber,
		domain.CategoryElectricity: domain.RoleElectrician,
		domain.CategoryWifi:        domain.RoleWifiTeam,
		domain.CategoryMess:        domain.RoleMessSupervisor,
		domain.CategoryMaintenance: domain.RoleMaintenance,
	}
	for category, want := range cases {
		role := RouteForCategory(category)
		require.NotNil(t, role, category)
		assert.Equal(t, want, *role)
	}
	assert.Nil(t, RouteForCategory(domain.CategoryOther))
}

func TestSeedHistoryRoutedIssueGetsTwoEntries(t *testing.T) {
	now := time.Now()
	c := ClassifyAndRoute("water leak in bathroom", "", "", "")
	status, history := SeedHistory(c, now)

	assert.Equal(t, domain.StatusAssigned, status)
	require.Len(t, history, 2)
	assert.Equal(t, domain.HistoryOpen, history[0].Entry)
	assert.Equal(t, now, history[0].At)
	assert.Equal(t, domain.HistoryAssigned, history[1].Entry)
	assert.Equal(t, "Auto-assigned to plumber", history[1].Note)
}

func TestSeedHistoryUnroutedIssueStaysOpen(t *testing.T) {
	now := time.Now()
	status, history := SeedHistory(Classification{Category: domain.CategoryOther}, now)

	assert.Equal(t, domain.StatusOpen, status)
	require.Len(t, history, 1)
	assert.Equal(t, domain.HistoryOpen, history[0].Entry)
}
