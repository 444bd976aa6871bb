// Package memory provides in-memory student and attendance stores with the
// same contracts as the PostgreSQL repositories. Services are wired against
// them in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stemsi/attendance-backend/internal/model"
	"github.com/stemsi/attendance-backend/internal/repository"
)

type ledgerKey struct {
	studentID int64
	date      model.Date
}

// Store holds both tables behind one lock so the attendance join always sees
// a consistent roster, and a student delete cascades like the SQL schema.
type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	nextStudent int64
	nextRecord  int64
	students    map[int64]model.Student
	records     map[int64]model.Attendance
	index       map[ledgerKey]int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:      time.Now,
		students: make(map[int64]model.Student),
		records:  make(map[int64]model.Attendance),
		index:    make(map[ledgerKey]int64),
	}
}

// Students returns the student-table view of the store.
func (s *Store) Students() *StudentStore { return &StudentStore{s} }

// Attendances returns the ledger view of the store.
func (s *Store) Attendances() *AttendanceStore { return &AttendanceStore{s} }

// StudentStore mirrors repository.StudentRepository.
type StudentStore struct{ s *Store }

func (st *StudentStore) GetByID(_ context.Context, id int64) (*model.Student, error) {
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()

	student, ok := st.s.students[id]
	if !ok {
		return nil, repository.ErrStudentNotFound
	}
	return &student, nil
}

func (st *StudentStore) ListPaginated(_ context.Context, filter model.StudentFilter, limit, offset int) ([]model.Student, int, error) {
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	var matched []model.Student
	for _, student := range st.s.students {
		if filter.Class != "" && student.Class != filter.Class {
			continue
		}
		if filter.Section != "" && student.Section != filter.Section {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(student.Name), search) &&
			!strings.Contains(strings.ToLower(student.StudentCode), search) {
			continue
		}
		matched = append(matched, student)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	return page(matched, limit, offset), len(matched), nil
}

func (st *StudentStore) MissingIDs(_ context.Context, ids []int64) ([]int64, error) {
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()

	var missing []int64
	for _, id := range ids {
		if _, ok := st.s.students[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (st *StudentStore) Create(_ context.Context, student *model.Student) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	if st.s.codeTaken(student.StudentCode, 0) {
		return repository.ErrDuplicateStudentCode
	}
	st.s.nextStudent++
	now := st.s.now()
	student.ID = st.s.nextStudent
	student.CreatedAt = now
	student.UpdatedAt = now
	st.s.students[student.ID] = *student
	return nil
}

func (st *StudentStore) Update(_ context.Context, student *model.Student) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	existing, ok := st.s.students[student.ID]
	if !ok {
		return repository.ErrStudentNotFound
	}
	if st.s.codeTaken(student.StudentCode, student.ID) {
		return repository.ErrDuplicateStudentCode
	}
	student.CreatedAt = existing.CreatedAt
	student.UpdatedAt = st.s.now()
	st.s.students[student.ID] = *student
	return nil
}

func (st *StudentStore) Delete(_ context.Context, id int64) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	if _, ok := st.s.students[id]; !ok {
		return repository.ErrStudentNotFound
	}
	delete(st.s.students, id)
	for recordID, rec := range st.s.records {
		if rec.StudentID == id {
			delete(st.s.records, recordID)
			delete(st.s.index, ledgerKey{rec.StudentID, rec.Date})
		}
	}
	return nil
}

func (s *Store) codeTaken(code string, exceptID int64) bool {
	for id, student := range s.students {
		if id != exceptID && student.StudentCode == code {
			return true
		}
	}
	return false
}

// AttendanceStore mirrors repository.AttendanceRepository.
type AttendanceStore struct{ s *Store }

// UpsertBulk applies all entries or none: unknown students abort the batch
// before anything is written.
func (at *AttendanceStore) UpsertBulk(_ context.Context, date model.Date, recordedBy string, entries []model.AttendanceEntry) ([]model.Attendance, error) {
	at.s.mu.Lock()
	defer at.s.mu.Unlock()

	for _, e := range entries {
		if _, ok := at.s.students[e.StudentID]; !ok {
			return nil, fmt.Errorf("student %d: %w", e.StudentID, repository.ErrStudentNotFound)
		}
	}

	now := at.s.now()
	ids := make([]int64, len(entries))
	for i, e := range entries {
		key := ledgerKey{e.StudentID, date}
		rec, exists := at.s.records[at.s.index[key]]
		if !exists {
			at.s.nextRecord++
			rec = model.Attendance{
				ID:        at.s.nextRecord,
				StudentID: e.StudentID,
				Date:      date,
				CreatedAt: now,
			}
			at.s.index[key] = rec.ID
		}
		rec.Status = e.Status
		rec.Note = e.Note
		rec.RecordedBy = recordedBy
		rec.UpdatedAt = now
		at.s.records[rec.ID] = rec
		ids[i] = rec.ID
	}

	saved := make([]model.Attendance, len(ids))
	for i, id := range ids {
		saved[i] = at.s.joined(at.s.records[id])
	}
	return saved, nil
}

func (at *AttendanceStore) GetByID(_ context.Context, id int64) (*model.Attendance, error) {
	at.s.mu.RLock()
	defer at.s.mu.RUnlock()

	rec, ok := at.s.records[id]
	if !ok {
		return nil, repository.ErrAttendanceNotFound
	}
	joined := at.s.joined(rec)
	return &joined, nil
}

func (at *AttendanceStore) ListPaginated(_ context.Context, filter model.AttendanceFilter, limit, offset int) ([]model.Attendance, int, error) {
	at.s.mu.RLock()
	defer at.s.mu.RUnlock()

	matched := at.s.match(filter)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date != matched[j].Date {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].ID > matched[j].ID
	})
	return page(matched, limit, offset), len(matched), nil
}

func (at *AttendanceStore) Find(_ context.Context, filter model.AttendanceFilter) ([]model.Attendance, error) {
	at.s.mu.RLock()
	defer at.s.mu.RUnlock()

	matched := at.s.match(filter)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date != matched[j].Date {
			return matched[i].Date.Before(matched[j].Date)
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

// Len reports the number of ledger rows.
func (at *AttendanceStore) Len() int {
	at.s.mu.RLock()
	defer at.s.mu.RUnlock()
	return len(at.s.records)
}

func (s *Store) match(filter model.AttendanceFilter) []model.Attendance {
	var out []model.Attendance
	for _, rec := range s.records {
		student := s.students[rec.StudentID]
		switch {
		case filter.Date != nil && rec.Date != *filter.Date,
			filter.From != nil && rec.Date.Before(*filter.From),
			filter.To != nil && rec.Date.After(*filter.To),
			filter.Class != "" && student.Class != filter.Class,
			filter.Section != "" && student.Section != filter.Section:
			continue
		}
		out = append(out, s.joined(rec))
	}
	return out
}

func (s *Store) joined(rec model.Attendance) model.Attendance {
	student := s.students[rec.StudentID]
	rec.Student = &student
	return rec
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
