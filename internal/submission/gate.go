package submission

import (
	"time"

	"github.com/repograder/repograder/internal/apperr"
	"github.com/repograder/repograder/internal/course"
)

// Admit is the eligibility gate: given the assignment (nil when it does
// not exist), the student's enrollment fact, the number of prior
// attempts, and the current time, it decides whether a new submission
// is admissible and, if so, returns its 1-based attempt number.
//
// Checks run in a fixed order and stop at the first failure, each with
// its own reason. The deadline check only blocks when late submissions
// are disabled; with the late flag set, a past-due attempt is admitted.
// Attempt numbers are count+1 and never recycled: the gate reads the
// current count only, regardless of deleted earlier attempts.
func Admit(a *course.Assignment, enrolled bool, priorAttempts int, now time.Time) (int, error) {
	if a == nil {
		return 0, apperr.NotFound("assignment not found")
	}
	if !a.IsPublished {
		return 0, apperr.Rejected("assignment is not yet published")
	}
	if a.IsPastDue(now) && !a.AllowLateSubmissions {
		return 0, apperr.Rejected("assignment is past due and late submissions are disabled")
	}
	if !enrolled {
		return 0, apperr.Rejected("student is not enrolled in this course")
	}
	if priorAttempts >= a.MaxSubmissions {
		return 0, apperr.Rejected("submission limit reached (%d attempts)", a.MaxSubmissions)
	}
	return priorAttempts + 1, nil
}
