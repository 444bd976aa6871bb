package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/attendance-backend/internal/model"
	"github.com/stemsi/attendance-backend/internal/response"
	"github.com/stemsi/attendance-backend/internal/service"
	"github.com/stemsi/attendance-backend/internal/validator"
)

// StudentHandler serves the student directory.
type StudentHandler struct {
	studentService *service.StudentService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

// ListStudents godoc
// GET /api/students?search=&class=&section=&page=&per_page=
func (h *StudentHandler) ListStudents(c *gin.Context) {
	filter := model.StudentFilter{
		Search:  strings.TrimSpace(c.Query("search")),
		Class:   c.Query("class"),
		Section: c.Query("section"),
	}

	students, pagination, err := h.studentService.List(c.Request.Context(), filter,
		queryInt(c, "page", 1), queryInt(c, "per_page", service.DefaultStudentsPerPage))
	if err != nil {
		fail(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": students}, pagination)
}

// GetStudent godoc
// GET /api/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	student, err := h.studentService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// CreateStudent godoc
// POST /api/students
// Accepts JSON, or multipart/form-data with an optional "photo" file.
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req model.CreateStudentRequest
	if !validator.Bind(c, &req) {
		return
	}

	photo, closePhoto, ok := formPhoto(c)
	if !ok {
		return
	}
	defer closePhoto()

	student, err := h.studentService.Create(c.Request.Context(), req, photo)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"student": student})
}

// UpdateStudent godoc
// PUT /api/students/:id
// Only fields present in the body are changed.
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req model.UpdateStudentRequest
	if !validator.Bind(c, &req) {
		return
	}

	photo, closePhoto, ok := formPhoto(c)
	if !ok {
		return
	}
	defer closePhoto()

	student, err := h.studentService.Update(c.Request.Context(), id, req, photo)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// DeleteStudent godoc
// DELETE /api/students/:id
// Removes the student, their attendance history and their photo.
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "student deleted successfully"})
}

// formPhoto opens the optional "photo" part of a multipart request. The
// returned func closes it and is always safe to call.
func formPhoto(c *gin.Context) (*service.Upload, func(), bool) {
	noop := func() {}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, noop, true
	}

	header, err := c.FormFile("photo")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, noop, true
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload,
			map[string]string{"photo": err.Error()})
		return nil, noop, false
	}

	file, err := header.Open()
	if err != nil {
		fail(c, err)
		return nil, noop, false
	}

	upload := &service.Upload{
		Reader:      file,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	return upload, func() { _ = file.Close() }, true
}
