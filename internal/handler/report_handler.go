package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/attendance-backend/internal/report"
	"github.com/stemsi/attendance-backend/internal/response"
	"github.com/stemsi/attendance-backend/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves monthly reports and today's stats.
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// MonthlyReport godoc
// GET /api/attendance/reports/monthly?month=YYYY-MM&class=&section=
// One row per student with at least one record in the month.
func (h *ReportHandler) MonthlyReport(c *gin.Context) {
	r, err := h.reportService.MonthlyReport(c.Request.Context(), c.Query("month"), c.Query("class"), c.Query("section"))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"rows": r.Rows})
}

// ExportMonthlyReport godoc
// GET /api/attendance/reports/monthly/export?month=YYYY-MM&class=&section=
// Same rows as MonthlyReport, as an XLSX download.
func (h *ReportHandler) ExportMonthlyReport(c *gin.Context) {
	r, err := h.reportService.MonthlyReport(c.Request.Context(), c.Query("month"), c.Query("class"), c.Query("section"))
	if err != nil {
		fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, r); err != nil {
		fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.FileName(r, "xlsx")))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// TodayStats godoc
// GET /api/attendance/stats/today?class=
// Present/absent/late totals for today, served from cache when fresh.
func (h *ReportHandler) TodayStats(c *gin.Context) {
	snapshot, err := h.reportService.TodayStats(c.Request.Context(), c.Query("class"))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, snapshot)
}
