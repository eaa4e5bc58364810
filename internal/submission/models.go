package submission

import "time"

// Status is the submission lifecycle. This service creates submissions
// in StatusPending only; the grading pipeline drives them forward and
// reports back through the grading callback.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCloning   Status = "CLONING"
	StatusTesting   Status = "TESTING"
	StatusAnalyzing Status = "ANALYZING"
	StatusGrading   Status = "GRADING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

var statusOrder = map[Status]int{
	StatusPending:   0,
	StatusCloning:   1,
	StatusTesting:   2,
	StatusAnalyzing: 3,
	StatusGrading:   4,
	StatusCompleted: 5,
	StatusFailed:    5,
}

func (s Status) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// Terminal reports whether the submission has finished grading, one way
// or the other. Everything non-terminal counts as "pending" in
// dashboard statistics.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether the grading pipeline may move a
// submission from one status to the other: strictly forward, FAILED
// reachable from any non-terminal state.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() || from.Terminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	return statusOrder[to] == statusOrder[from]+1
}

type Submission struct {
	ID            string `json:"id"`
	AssignmentID  string `json:"assignment_id"`
	StudentID     string `json:"student_id"`
	GitHubRepoURL string `json:"github_repo_url"`
	Status        Status `json:"status"`
	AttemptNumber int    `json:"attempt_number"`

	SubmittedAt      time.Time  `json:"submitted_at"`
	GradingStartedAt *time.Time `json:"grading_started_at,omitempty"`
	GradedAt         *time.Time `json:"graded_at,omitempty"`

	// Score fields stay nil until grading completes.
	TotalScore   *float64 `json:"total_score,omitempty"`
	MaxScore     *float64 `json:"max_score,omitempty"`
	Percentage   *float64 `json:"percentage,omitempty"`
	LetterGrade  *string  `json:"letter_grade,omitempty"`
	BuildSuccess *bool    `json:"build_success,omitempty"`
	ErrorMessage *string  `json:"error_message,omitempty"`
}
