package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/attendance-backend/internal/model"
	"github.com/stemsi/attendance-backend/internal/repository"
	"github.com/stemsi/attendance-backend/internal/response"
	"github.com/stemsi/attendance-backend/internal/service"
)

// fail maps a service or repository error onto the response envelope.
// Unrecognized errors become 500 and are attached to the context for the
// request logger.
func fail(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, ve.Fields)
	case errors.Is(err, repository.ErrStudentNotFound),
		errors.Is(err, repository.ErrAttendanceNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, repository.ErrDuplicateStudentCode):
		response.FailWithFields(c, http.StatusConflict, response.ErrConflict,
			map[string]string{"student_id": "student_id has already been taken"})
	case errors.Is(err, service.ErrUnsupportedFileType):
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrUnsupportedFile,
			map[string]string{"photo": err.Error()})
	case errors.Is(err, service.ErrFileTooLarge):
		response.FailWithFields(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge,
			map[string]string{"photo": err.Error()})
	default:
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// paramID parses the :id path parameter, writing a 400 on failure.
func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return n
}

// queryDate parses an optional YYYY-MM-DD query parameter into fields on
// failure.
func queryDate(c *gin.Context, key string, fields map[string]string) *model.Date {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		fields[key] = key + " must be a valid date in YYYY-MM-DD format"
		return nil
	}
	return &d
}
