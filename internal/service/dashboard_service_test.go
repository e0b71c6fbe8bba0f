package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cscinfonest/portal-api/internal/models"
	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
)

// dashboardRepoStub backs all four kind-specific interfaces with shared
// counters. Concurrent fan-outs mutate it, so every method locks.
type dashboardRepoStub struct {
	mu sync.Mutex

	total     int
	published int
	created   map[time.Time]int

	recentEvents        []models.Event
	recentResults       []models.Result
	recentTimetables    []models.Timetable
	recentAnnouncements []models.Announcement

	distribution map[string]int
	sessionRows  int

	bulkIDs       []string
	bulkPublished bool
}

func newDashboardRepoStub() *dashboardRepoStub {
	return &dashboardRepoStub{created: make(map[time.Time]int)}
}

func (r *dashboardRepoStub) Counts(ctx context.Context) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total, r.published, nil
}

func (r *dashboardRepoStub) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created[from], nil
}

func (r *dashboardRepoStub) Recent(ctx context.Context, limit int) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recentEvents, nil
}

func (r *dashboardRepoStub) SearchTitle(ctx context.Context, term string, limit int) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recentEvents, nil
}

func (r *dashboardRepoStub) BulkSetPublished(ctx context.Context, ids []string, published bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bulkIDs = ids
	r.bulkPublished = published
	return nil
}

type dashboardResultRepoStub struct{ *dashboardRepoStub }

func (r dashboardResultRepoStub) Recent(ctx context.Context, limit int) ([]models.Result, error) {
	return r.recentResults, nil
}

func (r dashboardResultRepoStub) SearchTitle(ctx context.Context, term string, limit int) ([]models.Result, error) {
	return r.recentResults, nil
}

func (r dashboardResultRepoStub) LevelDistribution(ctx context.Context) (map[string]int, error) {
	return r.distribution, nil
}

func (r dashboardResultRepoStub) AllBySession(ctx context.Context, session string) ([]models.Result, error) {
	return make([]models.Result, r.sessionRows), nil
}

type dashboardTimetableRepoStub struct{ *dashboardRepoStub }

func (r dashboardTimetableRepoStub) Recent(ctx context.Context, limit int) ([]models.Timetable, error) {
	return r.recentTimetables, nil
}

func (r dashboardTimetableRepoStub) SearchTitle(ctx context.Context, term string, limit int) ([]models.Timetable, error) {
	return r.recentTimetables, nil
}

func (r dashboardTimetableRepoStub) AllBySession(ctx context.Context, session string) ([]models.Timetable, error) {
	return make([]models.Timetable, r.sessionRows), nil
}

type dashboardAnnouncementRepoStub struct{ *dashboardRepoStub }

func (r dashboardAnnouncementRepoStub) Recent(ctx context.Context, limit int) ([]models.Announcement, error) {
	return r.recentAnnouncements, nil
}

func (r dashboardAnnouncementRepoStub) SearchTitle(ctx context.Context, term string, limit int) ([]models.Announcement, error) {
	return r.recentAnnouncements, nil
}

func newDashboardServiceForTest(events, results, timetables, announcements *dashboardRepoStub) *DashboardService {
	svc := NewDashboardService(
		events,
		dashboardResultRepoStub{results},
		dashboardTimetableRepoStub{timetables},
		dashboardAnnouncementRepoStub{announcements},
		nil,
		zap.NewNop(),
		"2024-2025",
	)
	svc.now = func() time.Time { return time.Date(2025, time.August, 14, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestDashboardServiceStatsSumsPendingApprovals(t *testing.T) {
	events := newDashboardRepoStub()
	events.total, events.published = 10, 7
	results := newDashboardRepoStub()
	results.total, results.published = 8, 8
	timetables := newDashboardRepoStub()
	timetables.total, timetables.published = 4, 2
	announcements := newDashboardRepoStub()
	announcements.total, announcements.published = 6, 5

	svc := newDashboardServiceForTest(events, results, timetables, announcements)
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, stats.TotalEvents)
	require.Equal(t, 6, stats.PendingApprovals)
	require.Equal(t, "2024-2025", stats.ActiveSession)
}

func TestDashboardServiceRecentActivitySortsAndLabels(t *testing.T) {
	base := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	events := newDashboardRepoStub()
	events.recentEvents = []models.Event{
		{ID: "evt-1", Title: "Old", CreatedAt: base, UpdatedAt: base, IsPublished: true},
	}
	results := newDashboardRepoStub()
	results.recentResults = []models.Result{
		{ID: "res-1", Title: "Edited", CreatedAt: base, UpdatedAt: base.Add(48 * time.Hour)},
	}

	svc := newDashboardServiceForTest(events, results, newDashboardRepoStub(), newDashboardRepoStub())
	items, err := svc.RecentActivity(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "res-1", items[0].ID)
	require.Equal(t, "updated", items[0].Action)
	require.Equal(t, "draft", items[0].Status)

	require.Equal(t, "evt-1", items[1].ID)
	require.Equal(t, "created", items[1].Action)
	require.Equal(t, "published", items[1].Status)
}

func TestDashboardServiceAnalyticsBuildsSixMonthChart(t *testing.T) {
	events := newDashboardRepoStub()
	// March window: five months before the fixed August clock.
	events.created[time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)] = 3
	events.created[time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)] = 1
	results := newDashboardRepoStub()
	results.distribution = map[string]int{"100": 3, "400": 1}

	svc := newDashboardServiceForTest(events, results, newDashboardRepoStub(), newDashboardRepoStub())
	analytics, err := svc.Analytics(context.Background())
	require.NoError(t, err)
	require.Len(t, analytics.ChartData, 6)
	require.Equal(t, "Mar", analytics.ChartData[0].Name)
	require.Equal(t, 3, analytics.ChartData[0].Events)
	require.Equal(t, "Aug", analytics.ChartData[5].Name)
	require.Equal(t, 1, analytics.ChartData[5].Events)

	require.Equal(t, []models.LevelShare{
		{Name: "100 Level", Value: 3, Percentage: 75},
		{Name: "400 Level", Value: 1, Percentage: 25},
	}, analytics.LevelDistribution)
}

func TestDashboardServiceQuickMetricsTrends(t *testing.T) {
	thisMonth := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

	results := newDashboardRepoStub()
	results.created[thisMonth] = 6
	results.created[lastMonth] = 4
	events := newDashboardRepoStub()
	events.created[thisMonth] = 2
	events.created[lastMonth] = 0

	svc := newDashboardServiceForTest(events, results, newDashboardRepoStub(), newDashboardRepoStub())
	metrics, err := svc.QuickMetrics(context.Background())
	require.NoError(t, err)
	require.Len(t, metrics, 2)

	require.Equal(t, "Results This Month", metrics[0].Label)
	require.Equal(t, "6", metrics[0].Value)
	require.Equal(t, 50, metrics[0].Change)
	require.Equal(t, "up", metrics[0].Trend)

	require.Equal(t, "Events This Month", metrics[1].Label)
	require.Equal(t, 100, metrics[1].Change)
}

func TestDashboardServiceSearchRequiresTwoCharacters(t *testing.T) {
	svc := newDashboardServiceForTest(newDashboardRepoStub(), newDashboardRepoStub(), newDashboardRepoStub(), newDashboardRepoStub())

	_, err := svc.Search(context.Background(), " a ")
	requireAppError(t, err, "Search term must be at least 2 characters")

	out, err := svc.Search(context.Background(), "exam")
	require.NoError(t, err)
	require.NotNil(t, out)
}

func TestDashboardServiceContentBySessionValidatesSession(t *testing.T) {
	results := newDashboardRepoStub()
	results.sessionRows = 2
	timetables := newDashboardRepoStub()
	timetables.sessionRows = 1

	svc := newDashboardServiceForTest(newDashboardRepoStub(), results, timetables, newDashboardRepoStub())

	_, err := svc.ContentBySession(context.Background(), "bad")
	requireAppError(t, err, "Academic session must be in YYYY-YYYY format (e.g., 2024-2025)")

	content, err := svc.ContentBySession(context.Background(), "2024-2025")
	require.NoError(t, err)
	require.Len(t, content.Results, 2)
	require.Len(t, content.Timetables, 1)
}

func TestDashboardServiceBulkPublish(t *testing.T) {
	events := newDashboardRepoStub()
	svc := newDashboardServiceForTest(events, newDashboardRepoStub(), newDashboardRepoStub(), newDashboardRepoStub())

	err := svc.BulkPublish(context.Background(), "widgets", []string{"a"}, true)
	appErr := requireAppError(t, err, "Unknown content type: widgets")
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	err = svc.BulkPublish(context.Background(), "events", nil, true)
	requireAppError(t, err, "No items selected")

	require.NoError(t, svc.BulkPublish(context.Background(), "events", []string{"evt-1", "evt-2"}, true))
	require.Equal(t, []string{"evt-1", "evt-2"}, events.bulkIDs)
	require.True(t, events.bulkPublished)
}
