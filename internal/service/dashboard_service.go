package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cscinfonest/portal-api/internal/models"
	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
)

type dashboardEventRepo interface {
	Counts(ctx context.Context) (int, int, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	Recent(ctx context.Context, limit int) ([]models.Event, error)
	SearchTitle(ctx context.Context, term string, limit int) ([]models.Event, error)
	BulkSetPublished(ctx context.Context, ids []string, published bool) error
}

type dashboardResultRepo interface {
	Counts(ctx context.Context) (int, int, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	Recent(ctx context.Context, limit int) ([]models.Result, error)
	SearchTitle(ctx context.Context, term string, limit int) ([]models.Result, error)
	LevelDistribution(ctx context.Context) (map[string]int, error)
	AllBySession(ctx context.Context, session string) ([]models.Result, error)
	BulkSetPublished(ctx context.Context, ids []string, published bool) error
}

type dashboardTimetableRepo interface {
	Counts(ctx context.Context) (int, int, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	Recent(ctx context.Context, limit int) ([]models.Timetable, error)
	SearchTitle(ctx context.Context, term string, limit int) ([]models.Timetable, error)
	AllBySession(ctx context.Context, session string) ([]models.Timetable, error)
	BulkSetPublished(ctx context.Context, ids []string, published bool) error
}

type dashboardAnnouncementRepo interface {
	Counts(ctx context.Context) (int, int, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	Recent(ctx context.Context, limit int) ([]models.Announcement, error)
	SearchTitle(ctx context.Context, term string, limit int) ([]models.Announcement, error)
	BulkSetPublished(ctx context.Context, ids []string, published bool) error
}

const (
	recentActivityLimit = 20
	searchResultLimit   = 5
	analyticsMonths     = 6
)

// DashboardService aggregates cross-content reads for the admin dashboard.
// Independent queries fan out concurrently; the first failure cancels the
// rest.
type DashboardService struct {
	events        dashboardEventRepo
	results       dashboardResultRepo
	timetables    dashboardTimetableRepo
	announcements dashboardAnnouncementRepo
	cache         *CacheService
	logger        *zap.Logger
	activeSession string
	now           func() time.Time
}

func NewDashboardService(
	events dashboardEventRepo,
	results dashboardResultRepo,
	timetables dashboardTimetableRepo,
	announcements dashboardAnnouncementRepo,
	cache *CacheService,
	logger *zap.Logger,
	activeSession string,
) *DashboardService {
	return &DashboardService{
		events:        events,
		results:       results,
		timetables:    timetables,
		announcements: announcements,
		cache:         cache,
		logger:        logger,
		activeSession: activeSession,
		now:           time.Now,
	}
}

// Stats collects content volume counters across all four kinds.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{ActiveSession: s.activeSession}
	weekAgo := s.now().UTC().AddDate(0, 0, -7)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.TotalEvents, stats.PublishedEvents, err = s.events.Counts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalResults, stats.PublishedResults, err = s.results.Counts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalTimetables, stats.PublishedTimetables, err = s.timetables.Counts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalAnnouncements, stats.PublishedAnnouncements, err = s.announcements.Counts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.RecentUploads, err = s.results.CountCreatedBetween(gctx, weekAgo, s.now().UTC())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch dashboard stats: %s", err.Error()))
	}

	stats.PendingApprovals = (stats.TotalEvents - stats.PublishedEvents) +
		(stats.TotalResults - stats.PublishedResults) +
		(stats.TotalTimetables - stats.PublishedTimetables) +
		(stats.TotalAnnouncements - stats.PublishedAnnouncements)
	return stats, nil
}

// RecentActivity merges the latest rows of every kind into one feed,
// newest first.
func (s *DashboardService) RecentActivity(ctx context.Context) ([]models.ActivityItem, error) {
	var (
		events        []models.Event
		results       []models.Result
		timetables    []models.Timetable
		announcements []models.Announcement
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = s.events.Recent(gctx, searchResultLimit)
		return err
	})
	g.Go(func() error {
		var err error
		results, err = s.results.Recent(gctx, searchResultLimit)
		return err
	})
	g.Go(func() error {
		var err error
		timetables, err = s.timetables.Recent(gctx, searchResultLimit)
		return err
	})
	g.Go(func() error {
		var err error
		announcements, err = s.announcements.Recent(gctx, searchResultLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch recent activity: %s", err.Error()))
	}

	items := make([]models.ActivityItem, 0, 4*searchResultLimit)
	for _, e := range events {
		items = append(items, activityItem(e.ID, models.KindEvent, e.Title, e.CreatedAt, e.UpdatedAt, e.IsPublished))
	}
	for _, r := range results {
		items = append(items, activityItem(r.ID, models.KindResult, r.Title, r.CreatedAt, r.UpdatedAt, r.IsPublished))
	}
	for _, t := range timetables {
		items = append(items, activityItem(t.ID, models.KindTimetable, t.Title, t.CreatedAt, t.UpdatedAt, t.IsPublished))
	}
	for _, a := range announcements {
		items = append(items, activityItem(a.ID, models.KindAnnouncement, a.Title, a.CreatedAt, a.UpdatedAt, a.IsPublished))
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Timestamp.After(items[j].Timestamp) })
	if len(items) > recentActivityLimit {
		items = items[:recentActivityLimit]
	}
	return items, nil
}

func activityItem(id string, kind models.EntityKind, title string, created, updated time.Time, published bool) models.ActivityItem {
	action := "updated"
	if updated.Equal(created) {
		action = "created"
	}
	status := "draft"
	if published {
		status = "published"
	}
	return models.ActivityItem{
		ID:        id,
		Type:      string(kind),
		Title:     title,
		Action:    action,
		Timestamp: updated,
		Status:    status,
	}
}

// Analytics builds the per-month creation chart for the trailing six months
// plus the published-results level distribution.
func (s *DashboardService) Analytics(ctx context.Context) (*models.AnalyticsData, error) {
	nowUTC := s.now().UTC()
	monthStart := time.Date(nowUTC.Year(), nowUTC.Month(), 1, 0, 0, 0, 0, time.UTC)

	chart := make([]models.MonthlyCount, analyticsMonths)
	windows := make([][2]time.Time, analyticsMonths)
	for i := 0; i < analyticsMonths; i++ {
		from := monthStart.AddDate(0, i-analyticsMonths+1, 0)
		windows[i] = [2]time.Time{from, from.AddDate(0, 1, 0)}
		chart[i].Name = from.Format("Jan")
	}

	var distribution map[string]int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for i, w := range windows {
			n, err := s.events.CountCreatedBetween(gctx, w[0], w[1])
			if err != nil {
				return err
			}
			chart[i].Events = n
		}
		return nil
	})
	g.Go(func() error {
		for i, w := range windows {
			n, err := s.results.CountCreatedBetween(gctx, w[0], w[1])
			if err != nil {
				return err
			}
			chart[i].Results = n
		}
		return nil
	})
	g.Go(func() error {
		for i, w := range windows {
			n, err := s.timetables.CountCreatedBetween(gctx, w[0], w[1])
			if err != nil {
				return err
			}
			chart[i].Timetables = n
		}
		return nil
	})
	g.Go(func() error {
		for i, w := range windows {
			n, err := s.announcements.CountCreatedBetween(gctx, w[0], w[1])
			if err != nil {
				return err
			}
			chart[i].Announcements = n
		}
		return nil
	})
	g.Go(func() error {
		var err error
		distribution, err = s.results.LevelDistribution(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch analytics: %s", err.Error()))
	}

	return &models.AnalyticsData{
		ChartData:         chart,
		LevelDistribution: levelShares(distribution),
	}, nil
}

func levelShares(distribution map[string]int) []models.LevelShare {
	total := 0
	for _, n := range distribution {
		total += n
	}

	shares := make([]models.LevelShare, 0, len(models.Levels))
	for _, level := range models.Levels {
		n, ok := distribution[level]
		if !ok {
			continue
		}
		pct := 0
		if total > 0 {
			pct = int(float64(n)/float64(total)*100 + 0.5)
		}
		shares = append(shares, models.LevelShare{
			Name:       level + " Level",
			Value:      n,
			Percentage: pct,
		})
	}
	return shares
}

// QuickMetrics compares this month's uploads against last month's.
func (s *DashboardService) QuickMetrics(ctx context.Context) ([]models.QuickMetric, error) {
	nowUTC := s.now().UTC()
	thisMonth := time.Date(nowUTC.Year(), nowUTC.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	var resultsNow, resultsPrev, eventsNow, eventsPrev int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		resultsNow, err = s.results.CountCreatedBetween(gctx, thisMonth, nowUTC)
		return err
	})
	g.Go(func() error {
		var err error
		resultsPrev, err = s.results.CountCreatedBetween(gctx, lastMonth, thisMonth)
		return err
	})
	g.Go(func() error {
		var err error
		eventsNow, err = s.events.CountCreatedBetween(gctx, thisMonth, nowUTC)
		return err
	})
	g.Go(func() error {
		var err error
		eventsPrev, err = s.events.CountCreatedBetween(gctx, lastMonth, thisMonth)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch quick metrics: %s", err.Error()))
	}

	return []models.QuickMetric{
		quickMetric("Results This Month", resultsNow, resultsPrev),
		quickMetric("Events This Month", eventsNow, eventsPrev),
	}, nil
}

func quickMetric(label string, current, previous int) models.QuickMetric {
	change := 0
	switch {
	case previous > 0:
		change = int(float64(current-previous)/float64(previous)*100 + 0.5)
	case current > 0:
		change = 100
	}
	trend := "flat"
	if change > 0 {
		trend = "up"
	} else if change < 0 {
		trend = "down"
	}
	return models.QuickMetric{
		Label:  label,
		Value:  strconv.Itoa(current),
		Change: change,
		Trend:  trend,
	}
}

// Search runs a title search across every content kind.
func (s *DashboardService) Search(ctx context.Context, term string) (*models.SearchResults, error) {
	term = strings.TrimSpace(term)
	if len(term) < 2 {
		return nil, appErrors.ErrValidation.Clone("Search term must be at least 2 characters")
	}

	out := &models.SearchResults{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Events, err = s.events.SearchTitle(gctx, term, searchResultLimit)
		return err
	})
	g.Go(func() error {
		var err error
		out.Results, err = s.results.SearchTitle(gctx, term, searchResultLimit)
		return err
	})
	g.Go(func() error {
		var err error
		out.Timetables, err = s.timetables.SearchTitle(gctx, term, searchResultLimit)
		return err
	})
	g.Go(func() error {
		var err error
		out.Announcements, err = s.announcements.SearchTitle(gctx, term, searchResultLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Search failed: %s", err.Error()))
	}
	return out, nil
}

// ContentBySession loads every upload of one academic session, drafts
// included.
func (s *DashboardService) ContentBySession(ctx context.Context, session string) (*models.SessionContent, error) {
	session = strings.TrimSpace(session)
	if verr := validateAcademicSession(session); verr != nil {
		return nil, verr
	}

	content := &models.SessionContent{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		content.Results, err = s.results.AllBySession(gctx, session)
		return err
	})
	g.Go(func() error {
		var err error
		content.Timetables, err = s.timetables.AllBySession(gctx, session)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch session content: %s", err.Error()))
	}
	return content, nil
}

// BulkPublish flips visibility for a batch of rows of one kind. The kind is
// dispatched over a closed set; unknown values are rejected up front.
func (s *DashboardService) BulkPublish(ctx context.Context, kind string, ids []string, published bool) error {
	parsed, err := models.ParseEntityKind(kind)
	if err != nil {
		return appErrors.ErrValidation.Clone(fmt.Sprintf("Unknown content type: %s", kind))
	}
	if len(ids) == 0 {
		return appErrors.ErrValidation.Clone("No items selected")
	}

	switch parsed {
	case models.KindEvent:
		err = s.events.BulkSetPublished(ctx, ids, published)
	case models.KindResult:
		err = s.results.BulkSetPublished(ctx, ids, published)
	case models.KindTimetable:
		err = s.timetables.BulkSetPublished(ctx, ids, published)
	case models.KindAnnouncement:
		err = s.announcements.BulkSetPublished(ctx, ids, published)
	}
	if err != nil {
		return appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to update publish status: %s", err.Error()))
	}

	s.cache.InvalidateKind(ctx, parsed)
	s.logger.Info("bulk publish applied",
		zap.String("kind", string(parsed)),
		zap.Int("count", len(ids)),
		zap.Bool("published", published))
	return nil
}
