package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/attendance-backend/internal/cache"
	"github.com/stemsi/attendance-backend/internal/model"
	"github.com/stemsi/attendance-backend/internal/repository/memory"
	"github.com/stretchr/testify/require"
)

// fixedNow is Monday 2025-05-05, 09:00 UTC.
var fixedNow = time.Date(2025, time.May, 5, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu    sync.Mutex
	facts []model.RecordedFact
	err   error
}

func (p *recordingPublisher) PublishRecorded(_ context.Context, fact model.RecordedFact) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.facts = append(p.facts, fact)
	return nil
}

// brokenCache fails every call, like an unreachable Redis.
type brokenCache struct{}

var errCacheDown = errors.New("redis: connection refused")

func (brokenCache) Get(context.Context, string, interface{}) error { return errCacheDown }
func (brokenCache) Set(context.Context, string, interface{}, time.Duration) error {
	return errCacheDown
}
func (brokenCache) Delete(context.Context, ...string) error { return errCacheDown }

type fixture struct {
	store      *memory.Store
	redis      *miniredis.Miniredis
	cache      StatsCache
	publisher  *recordingPublisher
	students   *StudentService
	attendance *AttendanceService
	reports    *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return buildFixture(t, mr, cache.New(client))
}

func buildFixture(t *testing.T, mr *miniredis.Miniredis, c StatsCache) *fixture {
	t.Helper()

	log := zerolog.Nop()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	photos := NewLocalPhotoStorage(t.TempDir(), "/uploads", 1024)

	f := &fixture{
		store:      store,
		redis:      mr,
		cache:      c,
		publisher:  pub,
		students:   NewStudentService(store.Students(), photos, log),
		attendance: NewAttendanceService(store.Students(), store.Attendances(), c, pub, log),
		reports:    NewReportService(store.Attendances(), c, 15*time.Minute, time.UTC, log),
	}
	f.attendance.now = func() time.Time { return fixedNow }
	f.reports.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) addStudent(t *testing.T, name, code, class, section string) *model.Student {
	t.Helper()
	s, err := f.students.Create(context.Background(), model.CreateStudentRequest{
		Name:        name,
		StudentCode: code,
		Class:       class,
		Section:     section,
	}, nil)
	require.NoError(t, err)
	return s
}

func (f *fixture) record(t *testing.T, date, class string, entries ...model.BulkAttendanceEntry) []model.Attendance {
	t.Helper()
	saved, err := f.attendance.RecordBulk(context.Background(), model.BulkAttendanceRequest{
		Date:    date,
		Class:   class,
		Entries: entries,
	})
	require.NoError(t, err)
	return saved
}

func entry(id int64, status model.AttendanceStatus) model.BulkAttendanceEntry {
	return model.BulkAttendanceEntry{StudentID: id, Status: status}
}

func strPtr(s string) *string { return &s }
