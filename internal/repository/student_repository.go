package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/attendance-backend/internal/model"
)

const studentColumns = `s.id, s.name, s.student_code, s.class, s.section, s.photo_path, s.created_at, s.updated_at`

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func scanStudent(row pgx.Row, s *model.Student) error {
	return row.Scan(&s.ID, &s.Name, &s.StudentCode, &s.Class, &s.Section, &s.PhotoPath, &s.CreatedAt, &s.UpdatedAt)
}

func studentWhere(filter model.StudentFilter) *whereClause {
	w := &whereClause{}
	if filter.Search != "" {
		w.add(`(s.name ILIKE ? OR s.student_code ILIKE ?)`, likePattern(filter.Search))
	}
	if filter.Class != "" {
		w.add(`s.class = ?`, filter.Class)
	}
	if filter.Section != "" {
		w.add(`s.section = ?`, filter.Section)
	}
	return w
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	s := &model.Student{}
	err := scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students s WHERE s.id = $1`, id,
	), s)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListPaginated retrieves students ordered by name, filtered by free-text
// search over name and student code, class and section.
func (r *StudentRepository) ListPaginated(ctx context.Context, filter model.StudentFilter, limit, offset int) ([]model.Student, int, error) {
	w := studentWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students s`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	query := `SELECT ` + studentColumns + ` FROM students s` + w.String() +
		` ORDER BY s.name, s.id LIMIT ` + w.next(1) + ` OFFSET ` + w.next(2)
	args := append(w.args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := scanStudent(rows, &s); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}

// MissingIDs returns the subset of ids that reference no student.
func (r *StudentRepository) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id FROM UNNEST($1::bigint[]) AS u(id)
		 WHERE NOT EXISTS (SELECT 1 FROM students s WHERE s.id = u.id)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missing []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		missing = append(missing, id)
	}
	return missing, rows.Err()
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (name, student_code, class, section, photo_path)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		s.Name, s.StudentCode, s.Class, s.Section, s.PhotoPath,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if hasPgCode(err, pgUniqueViolation) {
			return ErrDuplicateStudentCode
		}
		return err
	}
	return nil
}

// Update overwrites a student's columns.
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE students
		 SET name = $1, student_code = $2, class = $3, section = $4, photo_path = $5, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $6
		 RETURNING updated_at`,
		s.Name, s.StudentCode, s.Class, s.Section, s.PhotoPath, s.ID,
	).Scan(&s.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return ErrStudentNotFound
		case hasPgCode(err, pgUniqueViolation):
			return ErrDuplicateStudentCode
		}
		return err
	}
	return nil
}

// Delete removes a student by ID. Attendance rows go with it via ON DELETE CASCADE.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStudentNotFound
	}
	return nil
}
