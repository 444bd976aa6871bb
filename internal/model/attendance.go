package model

import "time"

// AttendanceStatus is the recorded state of a student on a given day.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLate    AttendanceStatus = "late"
)

// DefaultRecordedBy is used when a bulk payload names no recorder.
const DefaultRecordedBy = "system"

// Valid reports whether s is one of the known statuses.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

// Attendance is a single ledger row: one status per student per day.
type Attendance struct {
	ID         int64            `json:"id"`
	StudentID  int64            `json:"student_id"`
	Date       Date             `json:"date"`
	Status     AttendanceStatus `json:"status"`
	Note       *string          `json:"note"`
	RecordedBy string           `json:"recorded_by"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Student    *Student         `json:"student,omitempty"`
}

// AttendanceEntry is one validated line of a bulk write.
type AttendanceEntry struct {
	StudentID int64
	Status    AttendanceStatus
	Note      *string
}

// AttendanceFilter narrows ledger reads. Class and section are matched on the
// owning student, not stored on the row.
type AttendanceFilter struct {
	Date    *Date
	From    *Date
	To      *Date
	Class   string
	Section string
}

// BulkAttendanceRequest is the body of POST /attendance/bulk.
type BulkAttendanceRequest struct {
	Date       string                `json:"date" binding:"required,datetime=2006-01-02"`
	Class      string                `json:"class" binding:"omitempty,max=50"`
	Section    string                `json:"section" binding:"omitempty,max=50"`
	RecordedBy string                `json:"recorded_by" binding:"omitempty,max=255"`
	Entries    []BulkAttendanceEntry `json:"entries" binding:"required,min=1,dive"`
}

// BulkAttendanceEntry is one line of BulkAttendanceRequest.
type BulkAttendanceEntry struct {
	StudentID int64            `json:"student_id" binding:"required,gt=0"`
	Status    AttendanceStatus `json:"status" binding:"required,oneof=present absent late"`
	Note      *string          `json:"note"`
}

// RecordedFact is emitted once per committed bulk write.
type RecordedFact struct {
	Date        Date         `json:"date"`
	Class       *string      `json:"class"`
	Section     *string      `json:"section"`
	Attendances []Attendance `json:"attendances"`
	RecordedAt  time.Time    `json:"recorded_at"`
}
