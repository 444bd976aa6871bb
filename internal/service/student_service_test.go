package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stemsi/attendance-backend/internal/model"
	"github.com/stemsi/attendance-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngUpload(body string) *Upload {
	return &Upload{Reader: strings.NewReader(body), ContentType: "image/png", Size: int64(len(body))}
}

func TestStudentListDefaults(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, "Citra", "S-3", "10", "A")
	f.addStudent(t, "Ayu", "S-1", "10", "A")

	students, pagination, err := f.students.List(context.Background(), model.StudentFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultStudentsPerPage, pagination.PerPage)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 1, pagination.TotalPages)
	assert.Equal(t, "Ayu", students[0].Name)

	_, pagination, err = f.students.List(context.Background(), model.StudentFilter{}, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, 100, pagination.PerPage)
}

func TestStudentListSearchEmpty(t *testing.T) {
	f := newFixture(t)

	students, pagination, err := f.students.List(context.Background(), model.StudentFilter{Search: "nobody"}, 1, 15)
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
	assert.Equal(t, 0, pagination.TotalPages)
}

func TestStudentCreateWithPhoto(t *testing.T) {
	f := newFixture(t)
	photos := f.students.photos.(*LocalPhotoStorage)

	s, err := f.students.Create(context.Background(), model.CreateStudentRequest{
		Name: "Ayu", StudentCode: "S-1", Class: "10",
	}, pngUpload("png-bytes"))
	require.NoError(t, err)

	require.NotNil(t, s.PhotoPath)
	assert.True(t, strings.HasPrefix(*s.PhotoPath, "students/"))
	assert.True(t, strings.HasSuffix(*s.PhotoPath, ".png"))
	require.NotNil(t, s.PhotoURL)
	assert.Equal(t, "/uploads/"+*s.PhotoPath, *s.PhotoURL)
	assert.FileExists(t, filepath.Join(photos.root, *s.PhotoPath))
}

func TestStudentCreateDuplicateDiscardsPhoto(t *testing.T) {
	f := newFixture(t)
	photos := f.students.photos.(*LocalPhotoStorage)
	f.addStudent(t, "Ayu", "S-1", "10", "A")

	_, err := f.students.Create(context.Background(), model.CreateStudentRequest{
		Name: "Budi", StudentCode: "S-1", Class: "10",
	}, pngUpload("png-bytes"))
	assert.ErrorIs(t, err, repository.ErrDuplicateStudentCode)

	entries, _ := os.ReadDir(filepath.Join(photos.root, photoDir))
	assert.Empty(t, entries)
}

func TestStudentUpdateReplacesPhoto(t *testing.T) {
	f := newFixture(t)
	photos := f.students.photos.(*LocalPhotoStorage)

	s, err := f.students.Create(context.Background(), model.CreateStudentRequest{
		Name: "Ayu", StudentCode: "S-1", Class: "10",
	}, pngUpload("old"))
	require.NoError(t, err)
	oldPath := filepath.Join(photos.root, *s.PhotoPath)

	updated, err := f.students.Update(context.Background(), s.ID, model.UpdateStudentRequest{
		Class: strPtr("11"),
	}, pngUpload("new"))
	require.NoError(t, err)

	assert.Equal(t, "11", updated.Class)
	assert.Equal(t, "Ayu", updated.Name)
	assert.NoFileExists(t, oldPath)
	assert.FileExists(t, filepath.Join(photos.root, *updated.PhotoPath))
}

func TestStudentUpdateUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.students.Update(context.Background(), 42, model.UpdateStudentRequest{Name: strPtr("X")}, nil)
	assert.ErrorIs(t, err, repository.ErrStudentNotFound)
}

func TestStudentDeleteKeepsOtherRecords(t *testing.T) {
	f := newFixture(t)
	photos := f.students.photos.(*LocalPhotoStorage)

	a, err := f.students.Create(context.Background(), model.CreateStudentRequest{
		Name: "Ayu", StudentCode: "S-1", Class: "10",
	}, pngUpload("photo"))
	require.NoError(t, err)
	b := f.addStudent(t, "Budi", "S-2", "10", "A")
	f.record(t, "2025-05-05", "", entry(a.ID, model.StatusPresent), entry(b.ID, model.StatusLate))

	require.NoError(t, f.students.Delete(context.Background(), a.ID))

	assert.NoFileExists(t, filepath.Join(photos.root, *a.PhotoPath))
	_, err = f.students.Get(context.Background(), a.ID)
	assert.ErrorIs(t, err, repository.ErrStudentNotFound)

	rows, _, err := f.attendance.Query(context.Background(), model.AttendanceFilter{}, 1, 25)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, b.ID, rows[0].StudentID)
	assert.Equal(t, model.StatusLate, rows[0].Status)
}

func TestPhotoStorageRejects(t *testing.T) {
	photos := NewLocalPhotoStorage(t.TempDir(), "/uploads", 4)

	_, err := photos.Save(&Upload{Reader: strings.NewReader("x"), ContentType: "application/pdf", Size: 1})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	_, err = photos.Save(&Upload{Reader: strings.NewReader("12345"), ContentType: "image/jpeg", Size: 5})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	// Declared size lies; the copy is still capped.
	_, err = photos.Save(&Upload{Reader: strings.NewReader("123456"), ContentType: "image/jpeg", Size: 1})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestPhotoStorageDeleteStaysInRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "uploads")
	require.NoError(t, os.MkdirAll(root, 0o755))
	outside := filepath.Join(parent, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))

	photos := NewLocalPhotoStorage(root, "/uploads", 1024)
	assert.NoError(t, photos.Delete("../secret.txt"))
	assert.NoError(t, photos.Delete("students/missing.png"))
	assert.FileExists(t, outside)

	assert.Equal(t, "https://cdn.example.com/a.png", photos.URL("https://cdn.example.com/a.png"))
}
