package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/attendance-backend/internal/cache"
	"github.com/stemsi/attendance-backend/internal/config"
	"github.com/stemsi/attendance-backend/internal/model"
)

// ReportService computes summaries from the ledger. Everything except
// TodayStats reads the ledger directly; TodayStats goes through the stats
// cache.
type ReportService struct {
	ledger AttendanceStore
	cache  StatsCache
	ttl    time.Duration
	loc    *time.Location
	now    func() time.Time
	log    zerolog.Logger
}

// NewReportService creates a new ReportService. loc decides which calendar
// day is "today". A nil cache is allowed for report-only use; TodayStats then
// computes on every call.
func NewReportService(ledger AttendanceStore, cache StatsCache, ttl time.Duration, loc *time.Location, log zerolog.Logger) *ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{
		ledger: ledger,
		cache:  cache,
		ttl:    ttl,
		loc:    loc,
		now:    time.Now,
		log:    log.With().Str("component", "report_service").Logger(),
	}
}

// Today returns the current calendar day in the configured location.
func (s *ReportService) Today() model.Date {
	return model.DateOf(s.now().In(s.loc))
}

// CurrentMonth returns today's month as YYYY-MM.
func (s *ReportService) CurrentMonth() string {
	return s.now().In(s.loc).Format("2006-01")
}

// MonthlyReport summarizes every student with at least one record in month.
// An empty month means the current one. Students with no records in range
// do not appear.
func (s *ReportService) MonthlyReport(ctx context.Context, month, class, section string) (*model.MonthlyReport, error) {
	if month == "" {
		month = s.CurrentMonth()
	}
	first, last, err := model.MonthRange(month)
	if err != nil {
		return nil, newValidationError("month", "month must be in YYYY-MM format")
	}

	records, err := s.ledger.Find(ctx, model.AttendanceFilter{
		From:    &first,
		To:      &last,
		Class:   class,
		Section: section,
	})
	if err != nil {
		return nil, fmt.Errorf("find attendance: %w", err)
	}

	return &model.MonthlyReport{
		Month:       month,
		Class:       model.OptionalString(class),
		Section:     model.OptionalString(section),
		GeneratedAt: s.now().UTC(),
		Rows:        summarize(records),
	}, nil
}

// summarize groups records by student and tallies each group.
func summarize(records []model.Attendance) []model.StudentSummary {
	type group struct {
		student model.Student
		tally   model.StatusTally
	}
	groups := make(map[int64]*group)

	for _, r := range records {
		g, ok := groups[r.StudentID]
		if !ok {
			g = &group{student: model.Student{ID: r.StudentID}}
			if r.Student != nil {
				g.student = *r.Student
			}
			groups[r.StudentID] = g
		}
		g.tally.Add(r.Status)
	}

	rows := make([]model.StudentSummary, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, model.StudentSummary{
			Student:              g.student,
			Present:              g.tally.Present,
			Absent:               g.tally.Absent,
			Late:                 g.tally.Late,
			TotalDays:            g.tally.Total(),
			AttendancePercentage: g.tally.Percentage(),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Student.Name != rows[j].Student.Name {
			return rows[i].Student.Name < rows[j].Student.Name
		}
		return rows[i].Student.ID < rows[j].Student.ID
	})
	return rows
}

// DailySnapshot tallies the ledger for one day, optionally for one class.
func (s *ReportService) DailySnapshot(ctx context.Context, date model.Date, class string) (*model.Snapshot, error) {
	records, err := s.ledger.Find(ctx, model.AttendanceFilter{Date: &date, Class: class})
	if err != nil {
		return nil, fmt.Errorf("find attendance: %w", err)
	}

	tally := model.TallyStatuses(records)
	return &model.Snapshot{
		Date:                 date,
		Class:                model.OptionalString(class),
		Total:                tally.Total(),
		Present:              tally.Present,
		Absent:               tally.Absent,
		Late:                 tally.Late,
		AttendancePercentage: tally.Percentage(),
	}, nil
}

// TodayStats is DailySnapshot for today, memoized for the configured TTL.
// Cache errors fall back to computing from the ledger.
func (s *ReportService) TodayStats(ctx context.Context, class string) (*model.Snapshot, error) {
	today := s.Today()
	if s.cache == nil {
		return s.DailySnapshot(ctx, today, class)
	}
	key := config.CacheKey.AttendanceStatsKey(today.String(), class)

	var cached model.Snapshot
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn().Err(err).Str("key", key).Msg("Stats cache read failed, computing directly")
	}

	snapshot, err := s.DailySnapshot(ctx, today, class)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, snapshot, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Stats cache write failed")
	}
	return snapshot, nil
}
