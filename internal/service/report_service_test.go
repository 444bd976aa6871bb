package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/attendance-backend/internal/config"
	"github.com/stemsi/attendance-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyReportScenario(t *testing.T) {
	f := newFixture(t)
	a := f.addStudent(t, "Ayu", "S-1", "10", "A")
	idle := f.addStudent(t, "Dewi", "S-4", "10", "A")

	f.record(t, "2025-05-05", "", entry(a.ID, model.StatusPresent))
	f.record(t, "2025-05-06", "", entry(a.ID, model.StatusLate))
	f.record(t, "2025-05-07", "", entry(a.ID, model.StatusAbsent))
	// Outside the month.
	f.record(t, "2025-04-30", "", entry(idle.ID, model.StatusPresent))

	report, err := f.reports.MonthlyReport(context.Background(), "2025-05", "", "")
	require.NoError(t, err)

	require.Len(t, report.Rows, 1, "students without records in range are left out")
	row := report.Rows[0]
	assert.Equal(t, a.ID, row.Student.ID)
	assert.Equal(t, 1, row.Present)
	assert.Equal(t, 1, row.Absent)
	assert.Equal(t, 1, row.Late)
	assert.Equal(t, 3, row.TotalDays)
	assert.Equal(t, 33.3, row.AttendancePercentage)
	assert.Equal(t, "2025-05", report.Month)
	assert.Nil(t, report.Class)
}

func TestMonthlyReportFiltersByStudentClass(t *testing.T) {
	f := newFixture(t)
	a := f.addStudent(t, "Ayu", "S-1", "10", "A")
	b := f.addStudent(t, "Budi", "S-2", "10", "B")
	c := f.addStudent(t, "Citra", "S-3", "11", "A")

	f.record(t, "2025-05-05", "", entry(a.ID, model.StatusPresent), entry(b.ID, model.StatusPresent), entry(c.ID, model.StatusAbsent))

	report, err := f.reports.MonthlyReport(context.Background(), "2025-05", "10", "A")
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "Ayu", report.Rows[0].Student.Name)
	assert.Equal(t, 100.0, report.Rows[0].AttendancePercentage)
	assert.Equal(t, "10", *report.Class)
	assert.Equal(t, "A", *report.Section)
}

func TestMonthlyReportDefaultsAndValidation(t *testing.T) {
	f := newFixture(t)

	report, err := f.reports.MonthlyReport(context.Background(), "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-05", report.Month)
	assert.Empty(t, report.Rows)

	_, err = f.reports.MonthlyReport(context.Background(), "May 2025", "", "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "month")
}

func TestMonthlyReportIsIdempotent(t *testing.T) {
	f := newFixture(t)
	a := f.addStudent(t, "Ayu", "S-1", "10", "A")
	b := f.addStudent(t, "Budi", "S-2", "10", "A")
	f.record(t, "2025-05-05", "", entry(a.ID, model.StatusPresent), entry(b.ID, model.StatusLate))

	first, err := f.reports.MonthlyReport(context.Background(), "2025-05", "", "")
	require.NoError(t, err)
	second, err := f.reports.MonthlyReport(context.Background(), "2025-05", "", "")
	require.NoError(t, err)
	assert.Equal(t, first.Rows, second.Rows)
}

func TestTodayStatsEmptyClass(t *testing.T) {
	f := newFixture(t)

	snap, err := f.reports.TodayStats(context.Background(), "12")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Total)
	assert.Equal(t, 0.0, snap.AttendancePercentage)
	assert.Equal(t, "2025-05-05", snap.Date.String())
	assert.Equal(t, "12", *snap.Class)
}

func TestTodayStatsCacheInvalidatedByWrite(t *testing.T) {
	f := newFixture(t)
	a := f.addStudent(t, "Ayu", "S-1", "10", "A")
	b := f.addStudent(t, "Budi", "S-2", "10", "A")
	f.record(t, "2025-05-05", "10", entry(a.ID, model.StatusPresent))

	snap, err := f.reports.TodayStats(context.Background(), "10")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Total)

	key := config.CacheKey.AttendanceStatsKey("2025-05-05", "10")
	require.True(t, f.redis.Exists(key))
	assert.InDelta(t, 15*60, f.redis.TTL(key).Seconds(), 1)

	f.record(t, "2025-05-05", "10", entry(b.ID, model.StatusAbsent))
	assert.False(t, f.redis.Exists(key))

	snap, err = f.reports.TodayStats(context.Background(), "10")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 1, snap.Present)
	assert.Equal(t, 1, snap.Absent)
	assert.Equal(t, 50.0, snap.AttendancePercentage)
}

func TestTodayStatsServesCachedValue(t *testing.T) {
	f := newFixture(t)
	a := f.addStudent(t, "Ayu", "S-1", "10", "A")

	_, err := f.reports.TodayStats(context.Background(), "")
	require.NoError(t, err)

	// Bypass the service so nothing invalidates the entry.
	date, _ := model.ParseDate("2025-05-05")
	_, err = f.store.Attendances().UpsertBulk(context.Background(), date, "system",
		[]model.AttendanceEntry{{StudentID: a.ID, Status: model.StatusPresent}})
	require.NoError(t, err)

	snap, err := f.reports.TodayStats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Total)

	f.redis.FastForward(16 * time.Minute)
	snap, err = f.reports.TodayStats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Total)
}

func TestTodayStatsDegradesWithoutCache(t *testing.T) {
	f := buildFixture(t, nil, brokenCache{})
	a := f.addStudent(t, "Ayu", "S-1", "10", "A")
	f.record(t, "2025-05-05", "", entry(a.ID, model.StatusLate))

	snap, err := f.reports.TodayStats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Late)
	assert.Equal(t, 0.0, snap.AttendancePercentage)
}

func TestReportServiceWithoutCache(t *testing.T) {
	f := newFixture(t)
	a := f.addStudent(t, "Ayu", "S-1", "10", "A")
	f.record(t, "2025-05-05", "", entry(a.ID, model.StatusPresent))

	reports := NewReportService(f.store.Attendances(), nil, 15*time.Minute, time.UTC, zerolog.Nop())
	reports.now = func() time.Time { return fixedNow }

	report, err := reports.MonthlyReport(context.Background(), "2025-05", "", "")
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	snap, err := reports.TodayStats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Present)
	assert.Equal(t, 100.0, snap.AttendancePercentage)
}

func TestTodayStatsRoundsHalfTenthUp(t *testing.T) {
	f := newFixture(t)

	entries := make([]model.BulkAttendanceEntry, 0, 400)
	for i := 0; i < 400; i++ {
		s := f.addStudent(t, fmt.Sprintf("Student %03d", i), fmt.Sprintf("S-%03d", i), "10", "A")
		status := model.StatusAbsent
		if i < 201 {
			status = model.StatusPresent
		}
		entries = append(entries, entry(s.ID, status))
	}
	f.record(t, "2025-05-05", "10", entries...)

	snap, err := f.reports.TodayStats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 400, snap.Total)
	assert.Equal(t, 201, snap.Present)
	assert.Equal(t, 50.3, snap.AttendancePercentage)
}
