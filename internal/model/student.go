package model

import "time"

// Student is a roster entry. StudentCode is the school-issued identifier and
// is unique; ID is the surrogate key referenced by attendance rows.
type Student struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	StudentCode string    `json:"student_id"`
	Class       string    `json:"class"`
	Section     string    `json:"section"`
	PhotoPath   *string   `json:"photo_path"`
	PhotoURL    *string   `json:"photo_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StudentFilter narrows a roster listing. Empty fields do not filter.
type StudentFilter struct {
	Search  string
	Class   string
	Section string
}

// CreateStudentRequest is the payload for creating a student. It binds from
// JSON or from a multipart form carrying an optional "photo" file.
type CreateStudentRequest struct {
	Name        string `json:"name" form:"name" binding:"required,max=255"`
	StudentCode string `json:"student_id" form:"student_id" binding:"required,max=50"`
	Class       string `json:"class" form:"class" binding:"required,max=50"`
	Section     string `json:"section" form:"section" binding:"omitempty,max=50"`
}

// UpdateStudentRequest is a partial update; nil fields are left unchanged.
type UpdateStudentRequest struct {
	Name        *string `json:"name" form:"name" binding:"omitempty,min=1,max=255"`
	StudentCode *string `json:"student_id" form:"student_id" binding:"omitempty,min=1,max=50"`
	Class       *string `json:"class" form:"class" binding:"omitempty,min=1,max=50"`
	Section     *string `json:"section" form:"section" binding:"omitempty,max=50"`
	PhotoPath   *string `json:"photo_path" form:"photo_path" binding:"omitempty,max=2048"`
}

// Apply copies the non-nil fields of the request onto s.
func (r UpdateStudentRequest) Apply(s *Student) {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.StudentCode != nil {
		s.StudentCode = *r.StudentCode
	}
	if r.Class != nil {
		s.Class = *r.Class
	}
	if r.Section != nil {
		s.Section = *r.Section
	}
	if r.PhotoPath != nil {
		s.PhotoPath = r.PhotoPath
	}
}
