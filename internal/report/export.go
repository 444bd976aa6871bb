// Package report writes monthly attendance reports to files and schedules the
// recurring export.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/stemsi/attendance-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Attendance"

// createFile opens report files for writing.
var createFile = func(path string) (io.WriteCloser, error) { return os.Create(path) }

var xlsxHeaders = []string{
	"No", "Student ID", "Name", "Class", "Section",
	"Present", "Absent", "Late", "Total Days", "Attendance %",
}

// FileName is attendance_<class|all>_<YYYY-MM>.<ext>.
func FileName(r *model.MonthlyReport, ext string) string {
	class := "all"
	if r.Class != nil && *r.Class != "" {
		class = sanitize(*r.Class)
	}
	return fmt.Sprintf("attendance_%s_%s.%s", class, r.Month, ext)
}

// sanitize keeps a class label usable as a path segment.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, s)
}

// WriteJSON stores r under dir and returns the written path. An existing file
// for the same class and month is replaced.
func WriteJSON(dir string, r *model.MonthlyReport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(dir, FileName(r, "json"))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// WriteXLSX renders r as a single-sheet workbook.
func WriteXLSX(w io.Writer, r *model.MonthlyReport) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, header := range xlsxHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := file.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for index, row := range r.Rows {
		values := []interface{}{
			index + 1,
			row.Student.StudentCode,
			row.Student.Name,
			row.Student.Class,
			row.Student.Section,
			row.Present,
			row.Absent,
			row.Late,
			row.TotalDays,
			row.AttendancePercentage,
		}
		cell, _ := excelize.CoordinatesToCellName(1, index+2)
		if err := file.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", index+1, err)
		}
	}

	if err := file.SetColWidth(sheetName, "C", "C", 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteXLSXFile stores the workbook under dir and returns the written path.
func WriteXLSXFile(dir string, r *model.MonthlyReport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, FileName(r, "xlsx"))
	f, err := createFile(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}

	if err := WriteXLSX(f, r); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	return path, nil
}
