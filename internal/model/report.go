package model

import (
	"math"
	"time"
)

// StatusTally counts attendance rows by status.
type StatusTally struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
}

// TallyStatuses groups records by status and counts each group. Unknown
// statuses are ignored.
func TallyStatuses(records []Attendance) StatusTally {
	var t StatusTally
	for _, r := range records {
		t.Add(r.Status)
	}
	return t
}

// Add counts one record with the given status.
func (t *StatusTally) Add(status AttendanceStatus) {
	switch status {
	case StatusPresent:
		t.Present++
	case StatusAbsent:
		t.Absent++
	case StatusLate:
		t.Late++
	}
}

// Total is the number of recorded days; days without a record never count.
func (t StatusTally) Total() int {
	return t.Present + t.Absent + t.Late
}

// Percentage is present/total*100 rounded to one decimal, or 0 with no records.
func (t StatusTally) Percentage() float64 {
	total := t.Total()
	if total == 0 {
		return 0
	}
	// Scale before dividing so exact half-tenths such as 201/400 round up.
	return math.Round(float64(t.Present*1000)/float64(total)) / 10
}

// StudentSummary is one row of the monthly report.
type StudentSummary struct {
	Student              Student `json:"student"`
	Present              int     `json:"present"`
	Absent               int     `json:"absent"`
	Late                 int     `json:"late"`
	TotalDays            int     `json:"total_days"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// Snapshot is the present/absent/late tuple for one day.
type Snapshot struct {
	Date                 Date    `json:"date"`
	Class                *string `json:"class"`
	Total                int     `json:"total"`
	Present              int     `json:"present"`
	Absent               int     `json:"absent"`
	Late                 int     `json:"late"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// MonthlyReport is the exportable form of a month's summaries.
type MonthlyReport struct {
	Month       string           `json:"month"`
	Class       *string          `json:"class"`
	Section     *string          `json:"section"`
	GeneratedAt time.Time        `json:"generated_at"`
	Rows        []StudentSummary `json:"rows"`
}

// OptionalString maps "" to nil so JSON renders null for absent filters.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
