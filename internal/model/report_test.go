package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func records(statuses ...AttendanceStatus) []Attendance {
	out := make([]Attendance, len(statuses))
	for i, s := range statuses {
		out[i] = Attendance{Status: s}
	}
	return out
}

func TestTallyStatuses(t *testing.T) {
	tally := TallyStatuses(records(StatusPresent, StatusLate, StatusAbsent, StatusPresent, "excused"))

	assert.Equal(t, StatusTally{Present: 2, Absent: 1, Late: 1}, tally)
	assert.Equal(t, 4, tally.Total())
	assert.Equal(t, 50.0, tally.Percentage())
}

func TestStatusTallyPercentage(t *testing.T) {
	tests := []struct {
		name  string
		tally StatusTally
		want  float64
	}{
		{"no records", StatusTally{}, 0},
		{"one of three", StatusTally{Present: 1, Absent: 1, Late: 1}, 33.3},
		{"two of three", StatusTally{Present: 2, Late: 1}, 66.7},
		{"all present", StatusTally{Present: 5}, 100},
		{"none present", StatusTally{Absent: 2, Late: 2}, 0},
		{"half tenth rounds up", StatusTally{Present: 201, Absent: 199}, 50.3},
		{"half tenth at scale", StatusTally{Present: 1005, Absent: 995}, 50.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tally.Percentage())
		})
	}
}

func TestOptionalString(t *testing.T) {
	assert.Nil(t, OptionalString(""))
	assert.Equal(t, "10", *OptionalString("10"))
}
