package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/attendance-backend/internal/model"
	"github.com/stemsi/attendance-backend/internal/response"
)

// DefaultStudentsPerPage is the roster page size when none is requested.
const DefaultStudentsPerPage = 15

// StudentService handles the student directory.
type StudentService struct {
	students StudentStore
	photos   PhotoStorage
	log      zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(students StudentStore, photos PhotoStorage, log zerolog.Logger) *StudentService {
	return &StudentService{
		students: students,
		photos:   photos,
		log:      log.With().Str("component", "student_service").Logger(),
	}
}

// List returns students matching filter, ordered by name.
func (s *StudentService) List(ctx context.Context, filter model.StudentFilter, page, perPage int) ([]model.Student, *response.Pagination, error) {
	page, perPage = clampPage(page, perPage, DefaultStudentsPerPage)

	students, total, err := s.students.ListPaginated(ctx, filter, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}

	if students == nil {
		students = []model.Student{}
	}
	for i := range students {
		s.decorate(&students[i])
	}

	return students, newPagination(page, perPage, total), nil
}

// Get retrieves a student by ID.
func (s *StudentService) Get(ctx context.Context, id int64) (*model.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(student)
	return student, nil
}

// Create inserts a student, storing photo first when one is given.
func (s *StudentService) Create(ctx context.Context, req model.CreateStudentRequest, photo *Upload) (*model.Student, error) {
	student := &model.Student{
		Name:        req.Name,
		StudentCode: req.StudentCode,
		Class:       req.Class,
		Section:     req.Section,
	}

	if photo != nil {
		path, err := s.photos.Save(photo)
		if err != nil {
			return nil, err
		}
		student.PhotoPath = &path
	}

	if err := s.students.Create(ctx, student); err != nil {
		s.discardPhoto(student.PhotoPath)
		return nil, err
	}

	s.decorate(student)
	return student, nil
}

// Update applies a partial update. A new photo replaces the stored one and
// the old file is removed once the row is saved.
func (s *StudentService) Update(ctx context.Context, id int64, req model.UpdateStudentRequest, photo *Upload) (*model.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldPhoto := student.PhotoPath

	req.Apply(student)

	var newPhoto *string
	if photo != nil {
		path, err := s.photos.Save(photo)
		if err != nil {
			return nil, err
		}
		newPhoto = &path
		student.PhotoPath = newPhoto
	}

	if err := s.students.Update(ctx, student); err != nil {
		s.discardPhoto(newPhoto)
		return nil, err
	}

	if oldPhoto != nil && (student.PhotoPath == nil || *student.PhotoPath != *oldPhoto) {
		s.discardPhoto(oldPhoto)
	}

	s.decorate(student)
	return student, nil
}

// Delete removes the student row, whose attendance cascades, then its photo.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.students.Delete(ctx, id); err != nil {
		return err
	}

	s.discardPhoto(student.PhotoPath)
	return nil
}

func (s *StudentService) decorate(student *model.Student) {
	if student.PhotoPath == nil || *student.PhotoPath == "" {
		student.PhotoURL = nil
		return
	}
	url := s.photos.URL(*student.PhotoPath)
	student.PhotoURL = &url
}

// discardPhoto deletes a file that is no longer referenced. Failures leave an
// orphan on disk and are only logged.
func (s *StudentService) discardPhoto(path *string) {
	if path == nil || *path == "" {
		return
	}
	if err := s.photos.Delete(*path); err != nil {
		s.log.Warn().Err(err).Str("path", *path).Msg("Failed to delete student photo")
	}
}
