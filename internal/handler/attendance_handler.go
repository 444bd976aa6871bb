package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/attendance-backend/internal/middleware"
	"github.com/stemsi/attendance-backend/internal/model"
	"github.com/stemsi/attendance-backend/internal/response"
	"github.com/stemsi/attendance-backend/internal/service"
	"github.com/stemsi/attendance-backend/internal/validator"
)

// AttendanceHandler serves the attendance ledger.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// ListAttendance godoc
// GET /api/attendance?date=&from=&to=&class=&section=&page=&per_page=
// Lists ledger rows joined with their student, newest date first.
func (h *AttendanceHandler) ListAttendance(c *gin.Context) {
	fields := make(map[string]string)
	filter := model.AttendanceFilter{
		Date:    queryDate(c, "date", fields),
		From:    queryDate(c, "from", fields),
		To:      queryDate(c, "to", fields),
		Class:   c.Query("class"),
		Section: c.Query("section"),
	}
	if len(fields) > 0 {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	records, pagination, err := h.attendanceService.Query(c.Request.Context(), filter,
		queryInt(c, "page", 1), queryInt(c, "per_page", service.DefaultAttendancePerPage))
	if err != nil {
		fail(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"attendances": records}, pagination)
}

// GetAttendance godoc
// GET /api/attendance/:id
func (h *AttendanceHandler) GetAttendance(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	record, err := h.attendanceService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attendance": record})
}

// RecordBulk godoc
// POST /api/attendance/bulk
// Upserts one status per student for a day. The whole batch is rejected if
// any entry is invalid. Without recorded_by the row is attributed to the
// token holder's name.
func (h *AttendanceHandler) RecordBulk(c *gin.Context) {
	var req model.BulkAttendanceRequest
	if !validator.Bind(c, &req) {
		return
	}
	if req.RecordedBy == "" {
		if claims := middleware.GetClaims(c); claims != nil {
			req.RecordedBy = claims.Name
		}
	}

	records, err := h.attendanceService.RecordBulk(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attendances": records})
}
