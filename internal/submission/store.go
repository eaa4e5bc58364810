package submission

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateAttempt is returned by Insert when the store's
// (student_id, assignment_id, attempt_number) uniqueness constraint
// fires. The service treats it as a lost race and re-runs the gate.
var ErrDuplicateAttempt = errors.New("duplicate attempt number")

// ScoreFields is everything grading attaches to a submission in one
// write, together with the terminal status.
type ScoreFields struct {
	TotalScore   float64
	MaxScore     float64
	Percentage   float64
	LetterGrade  string
	BuildSuccess *bool
	GradedAt     time.Time
}

type Store interface {
	Insert(ctx context.Context, sub Submission) error
	Get(ctx context.Context, id string) (Submission, error)
	CountAttempts(ctx context.Context, studentID, assignmentID string) (int, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]Submission, error)
	ListByStudent(ctx context.Context, studentID string) ([]Submission, error)
	UpdateStatus(ctx context.Context, id string, status Status, errorMessage *string) error
	AttachScore(ctx context.Context, id string, fields ScoreFields) error
}
