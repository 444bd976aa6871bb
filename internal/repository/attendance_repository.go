package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/attendance-backend/internal/model"
)

const attendanceSelect = `SELECT a.id, a.student_id, a.date, a.status, a.note, a.recorded_by, a.created_at, a.updated_at, ` +
	studentColumns + `
	FROM attendances a
	JOIN students s ON s.id = a.student_id`

const upsertAttendanceSQL = `
	INSERT INTO attendances (student_id, date, status, note, recorded_by)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (student_id, date) DO UPDATE
	SET status      = EXCLUDED.status,
	    note        = EXCLUDED.note,
	    recorded_by = EXCLUDED.recorded_by,
	    updated_at  = CURRENT_TIMESTAMP
	RETURNING id`

// AttendanceRepository is the attendance ledger: one row per (student, date).
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

func scanAttendance(row pgx.Row, a *model.Attendance) error {
	var (
		day     time.Time
		student model.Student
	)
	err := row.Scan(
		&a.ID, &a.StudentID, &day, &a.Status, &a.Note, &a.RecordedBy, &a.CreatedAt, &a.UpdatedAt,
		&student.ID, &student.Name, &student.StudentCode, &student.Class, &student.Section,
		&student.PhotoPath, &student.CreatedAt, &student.UpdatedAt,
	)
	if err != nil {
		return err
	}
	a.Date = model.DateOf(day)
	a.Student = &student
	return nil
}

func attendanceWhere(filter model.AttendanceFilter) *whereClause {
	w := &whereClause{}
	if filter.Date != nil {
		w.add(`a.date = ?`, filter.Date.Time())
	}
	if filter.From != nil {
		w.add(`a.date >= ?`, filter.From.Time())
	}
	if filter.To != nil {
		w.add(`a.date <= ?`, filter.To.Time())
	}
	if filter.Class != "" {
		w.add(`s.class = ?`, filter.Class)
	}
	if filter.Section != "" {
		w.add(`s.section = ?`, filter.Section)
	}
	return w
}

// UpsertBulk writes every entry for the given day in one transaction. An
// existing (student, date) row has its status, note and recorder overwritten.
// The returned rows are joined with their students, in entry order.
func (r *AttendanceRepository) UpsertBulk(ctx context.Context, date model.Date, recordedBy string, entries []model.AttendanceEntry) ([]model.Attendance, error) {
	ids := make([]int64, len(entries))

	var saved []model.Attendance
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for i, e := range entries {
			err := tx.QueryRow(ctx, upsertAttendanceSQL,
				e.StudentID, date.Time(), string(e.Status), e.Note, recordedBy,
			).Scan(&ids[i])
			if err != nil {
				if hasPgCode(err, pgForeignKeyViolation) {
					return fmt.Errorf("student %d: %w", e.StudentID, ErrStudentNotFound)
				}
				return fmt.Errorf("upsert student %d: %w", e.StudentID, err)
			}
		}

		rows, err := tx.Query(ctx, attendanceSelect+` WHERE a.id = ANY($1)`, ids)
		if err != nil {
			return err
		}
		defer rows.Close()

		byID := make(map[int64]model.Attendance, len(ids))
		for rows.Next() {
			var a model.Attendance
			if err := scanAttendance(rows, &a); err != nil {
				return err
			}
			byID[a.ID] = a
		}
		if err := rows.Err(); err != nil {
			return err
		}

		saved = make([]model.Attendance, 0, len(ids))
		for _, id := range ids {
			saved = append(saved, byID[id])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// GetByID retrieves one attendance row joined with its student.
func (r *AttendanceRepository) GetByID(ctx context.Context, id int64) (*model.Attendance, error) {
	a := &model.Attendance{}
	if err := scanAttendance(r.pool.QueryRow(ctx, attendanceSelect+` WHERE a.id = $1`, id), a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttendanceNotFound
		}
		return nil, err
	}
	return a, nil
}

// ListPaginated returns filtered rows, newest date first.
func (r *AttendanceRepository) ListPaginated(ctx context.Context, filter model.AttendanceFilter, limit, offset int) ([]model.Attendance, int, error) {
	w := attendanceWhere(filter)

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendances a JOIN students s ON s.id = a.student_id`+w.String(),
		w.args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count attendances: %w", err)
	}

	query := attendanceSelect + w.String() +
		` ORDER BY a.date DESC, a.id DESC LIMIT ` + w.next(1) + ` OFFSET ` + w.next(2)
	records, err := r.query(ctx, query, append(w.args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Find returns every row matching the filter, oldest date first. Reports use it.
func (r *AttendanceRepository) Find(ctx context.Context, filter model.AttendanceFilter) ([]model.Attendance, error) {
	w := attendanceWhere(filter)
	return r.query(ctx, attendanceSelect+w.String()+` ORDER BY a.date, s.name, a.id`, w.args...)
}

func (r *AttendanceRepository) query(ctx context.Context, sql string, args ...interface{}) ([]model.Attendance, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.Attendance
	for rows.Next() {
		var a model.Attendance
		if err := scanAttendance(rows, &a); err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}
