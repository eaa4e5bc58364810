// Package stats computes dashboard statistics from flat, pre-joined
// rows: one row per submission or assignment with the course fields
// denormalized in, so every aggregation is a single linear pass.
package stats

import (
	"math"
	"time"

	"github.com/repograder/repograder/internal/submission"
)

type CourseRow struct {
	CourseID     string `json:"course_id"`
	Name         string `json:"name"`
	IsActive     bool   `json:"is_active"`
	StudentCount int    `json:"student_count"`
}

type AssignmentRow struct {
	AssignmentID         string    `json:"assignment_id"`
	CourseID             string    `json:"course_id"`
	Title                string    `json:"title"`
	DueDate              time.Time `json:"due_date"`
	IsPublished          bool      `json:"is_published"`
	AllowLateSubmissions bool      `json:"allow_late_submissions"`
}

type SubmissionRow struct {
	SubmissionID string            `json:"submission_id"`
	CourseID     string            `json:"course_id"`
	AssignmentID string            `json:"assignment_id"`
	StudentID    string            `json:"student_id"`
	Status       submission.Status `json:"status"`
	Percentage   *float64          `json:"percentage,omitempty"`
	SubmittedAt  time.Time         `json:"submitted_at"`
}

// round1 rounds to one decimal place, half up: value*10, standard
// half-up rounding, /10. User-visible, so reproduced exactly.
func round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// averageGrade is the mean of non-nil percentages rounded to one
// decimal, or nil when no graded submission is in scope.
func averageGrade(rows []SubmissionRow) *float64 {
	sum, n := 0.0, 0
	for _, r := range rows {
		if r.Percentage == nil {
			continue
		}
		sum += *r.Percentage
		n++
	}
	if n == 0 {
		return nil
	}
	avg := round1(sum / float64(n))
	return &avg
}
