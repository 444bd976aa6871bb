package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/attendance-backend/internal/config"
	"github.com/stemsi/attendance-backend/internal/model"
	"github.com/stemsi/attendance-backend/internal/repository"
	"github.com/stemsi/attendance-backend/internal/response"
)

// DefaultAttendancePerPage is the ledger page size when none is requested.
const DefaultAttendancePerPage = 25

// AttendanceService owns writes to the attendance ledger.
type AttendanceService struct {
	students  StudentStore
	ledger    AttendanceStore
	cache     StatsCache
	publisher RecordedPublisher
	now       func() time.Time
	log       zerolog.Logger
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(
	students StudentStore,
	ledger AttendanceStore,
	cache StatsCache,
	publisher RecordedPublisher,
	log zerolog.Logger,
) *AttendanceService {
	return &AttendanceService{
		students:  students,
		ledger:    ledger,
		cache:     cache,
		publisher: publisher,
		now:       time.Now,
		log:       log.With().Str("component", "attendance_service").Logger(),
	}
}

// RecordBulk upserts one status per entry for req.Date in a single
// transaction. Every entry is checked before the transaction opens; any
// problem rejects the whole batch with a ValidationError.
//
// After commit the day's stats for the class and for all classes are
// invalidated and a RecordedFact is queued. Neither step can fail the call.
func (s *AttendanceService) RecordBulk(ctx context.Context, req model.BulkAttendanceRequest) ([]model.Attendance, error) {
	date, entries, err := s.validateBulk(ctx, req)
	if err != nil {
		return nil, err
	}

	recordedBy := req.RecordedBy
	if recordedBy == "" {
		recordedBy = model.DefaultRecordedBy
	}

	saved, err := s.ledger.UpsertBulk(ctx, date, recordedBy, entries)
	if err != nil {
		// A student deleted between validation and commit.
		if errors.Is(err, repository.ErrStudentNotFound) {
			return nil, newValidationError("entries", "one or more students no longer exist")
		}
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}

	s.invalidateStats(ctx, date, req.Class)

	fact := model.RecordedFact{
		Date:        date,
		Class:       model.OptionalString(req.Class),
		Section:     model.OptionalString(req.Section),
		Attendances: saved,
		RecordedAt:  s.now().UTC(),
	}
	if err := s.publisher.PublishRecorded(ctx, fact); err != nil {
		s.log.Error().Err(err).Str("date", date.String()).Msg("Failed to publish attendance recorded")
	}

	return saved, nil
}

func (s *AttendanceService) validateBulk(ctx context.Context, req model.BulkAttendanceRequest) (model.Date, []model.AttendanceEntry, error) {
	fields := make(map[string]string)

	date, err := model.ParseDate(req.Date)
	if err != nil {
		fields["date"] = "date must be a valid date in YYYY-MM-DD format"
	}
	if len(req.Entries) == 0 {
		fields["entries"] = "entries must contain at least 1 item"
	}

	entries := make([]model.AttendanceEntry, 0, len(req.Entries))
	ids := make([]int64, 0, len(req.Entries))
	position := make(map[int64]int, len(req.Entries))

	for i, e := range req.Entries {
		if !e.Status.Valid() {
			fields[fmt.Sprintf("entries[%d].status", i)] = "status must be one of [present absent late]"
		}
		if e.StudentID <= 0 {
			fields[fmt.Sprintf("entries[%d].student_id", i)] = "student_id is required"
			continue
		}
		// A student named twice is applied in order; the later entry wins.
		if _, seen := position[e.StudentID]; !seen {
			position[e.StudentID] = i
			ids = append(ids, e.StudentID)
		}
		entries = append(entries, model.AttendanceEntry{StudentID: e.StudentID, Status: e.Status, Note: e.Note})
	}

	if len(ids) > 0 {
		missing, err := s.students.MissingIDs(ctx, ids)
		if err != nil {
			return model.Date{}, nil, fmt.Errorf("check students: %w", err)
		}
		for _, id := range missing {
			fields[fmt.Sprintf("entries[%d].student_id", position[id])] = "student does not exist"
		}
	}

	if len(fields) > 0 {
		return model.Date{}, nil, &ValidationError{Fields: fields}
	}
	return date, entries, nil
}

func (s *AttendanceService) invalidateStats(ctx context.Context, date model.Date, class string) {
	keys := []string{config.CacheKey.AttendanceStatsKey(date.String(), "")}
	if class != "" {
		keys = append(keys, config.CacheKey.AttendanceStatsKey(date.String(), class))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn().Err(err).Strs("keys", keys).Msg("Failed to invalidate attendance stats")
	}
}

// Query lists ledger rows newest first.
func (s *AttendanceService) Query(ctx context.Context, filter model.AttendanceFilter, page, perPage int) ([]model.Attendance, *response.Pagination, error) {
	page, perPage = clampPage(page, perPage, DefaultAttendancePerPage)

	records, total, err := s.ledger.ListPaginated(ctx, filter, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if records == nil {
		records = []model.Attendance{}
	}

	return records, newPagination(page, perPage, total), nil
}

// Get retrieves one ledger row by ID.
func (s *AttendanceService) Get(ctx context.Context, id int64) (*model.Attendance, error) {
	return s.ledger.GetByID(ctx, id)
}
