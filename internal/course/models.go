package course

import "time"

type Course struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ProfessorID string `json:"professor_id"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   int64  `json:"created_at,omitempty"`
}

type Assignment struct {
	ID                   string    `json:"id"`
	CourseID             string    `json:"course_id"`
	Title                string    `json:"title"`
	Description          string    `json:"description,omitempty"`
	DueDate              time.Time `json:"due_date"`
	IsPublished          bool      `json:"is_published"`
	AllowLateSubmissions bool      `json:"allow_late_submissions"`
	MaxSubmissions       int       `json:"max_submissions"`
	RubricID             string    `json:"rubric_id,omitempty"`
	CreatedAt            int64     `json:"created_at,omitempty"`
}

// IsPastDue reports whether the deadline has already passed at the
// reference time.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// Enrollment is the (student, course) membership fact. Its existence is
// all the eligibility gate needs.
type Enrollment struct {
	StudentID  string `json:"student_id"`
	CourseID   string `json:"course_id"`
	EnrolledAt int64  `json:"enrolled_at,omitempty"`
}
