package service

import (
	"context"
	"io"
	"time"

	"github.com/stemsi/attendance-backend/internal/model"
)

// StudentStore is the roster persistence used by the services. It is
// satisfied by repository.StudentRepository and by the in-memory store.
type StudentStore interface {
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	ListPaginated(ctx context.Context, filter model.StudentFilter, limit, offset int) ([]model.Student, int, error)
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)
	Create(ctx context.Context, s *model.Student) error
	Update(ctx context.Context, s *model.Student) error
	Delete(ctx context.Context, id int64) error
}

// AttendanceStore is the ledger persistence. UpsertBulk must apply every
// entry or none of them.
type AttendanceStore interface {
	UpsertBulk(ctx context.Context, date model.Date, recordedBy string, entries []model.AttendanceEntry) ([]model.Attendance, error)
	GetByID(ctx context.Context, id int64) (*model.Attendance, error)
	ListPaginated(ctx context.Context, filter model.AttendanceFilter, limit, offset int) ([]model.Attendance, int, error)
	Find(ctx context.Context, filter model.AttendanceFilter) ([]model.Attendance, error)
}

// StatsCache memoizes daily snapshots. Get returns cache.ErrCacheMiss for
// absent keys.
type StatsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RecordedPublisher hands a committed bulk write to the notification sink.
type RecordedPublisher interface {
	PublishRecorded(ctx context.Context, fact model.RecordedFact) error
}

// PhotoStorage persists student photos. Paths are relative to the storage
// root and are what gets stored on the student row.
type PhotoStorage interface {
	Save(upload *Upload) (string, error)
	Delete(path string) error
	URL(path string) string
}

// Upload is an incoming photo file.
type Upload struct {
	Reader      io.Reader
	ContentType string
	Size        int64
}
