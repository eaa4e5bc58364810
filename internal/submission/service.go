package submission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/repograder/repograder/internal/apperr"
	"github.com/repograder/repograder/internal/course"
)

// CourseFacts is the read-only slice of the course side the gate needs.
type CourseFacts interface {
	GetAssignment(ctx context.Context, id string) (course.Assignment, error)
	IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
}

type Service struct {
	store   Store
	courses CourseFacts
	now     func() time.Time
}

func NewService(store Store, courses CourseFacts) *Service {
	return &Service{store: store, courses: courses, now: time.Now}
}

// attemptRetries bounds the count-and-insert loop. Two concurrent
// attempts by the same student can both read the same prior count; the
// uniqueness constraint on (student, assignment, attempt_number) makes
// the loser retry against the fresh count instead of trusting its
// pre-read.
const attemptRetries = 3

// Submit runs the eligibility gate and, on acceptance, creates the
// PENDING submission record. All rejection paths leave no trace.
func (s *Service) Submit(ctx context.Context, assignmentID, studentID, repoURL string) (Submission, error) {
	a, err := s.courses.GetAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Submission{}, apperr.NotFound("assignment not found")
		}
		return Submission{}, err
	}
	enrolled, err := s.courses.IsEnrolled(ctx, studentID, a.CourseID)
	if err != nil {
		return Submission{}, err
	}

	var lastErr error
	for try := 0; try < attemptRetries; try++ {
		count, err := s.store.CountAttempts(ctx, studentID, assignmentID)
		if err != nil {
			return Submission{}, err
		}
		attempt, err := Admit(&a, enrolled, count, s.now())
		if err != nil {
			return Submission{}, err
		}
		sub := Submission{
			ID:            uuid.NewString(),
			AssignmentID:  assignmentID,
			StudentID:     studentID,
			GitHubRepoURL: repoURL,
			Status:        StatusPending,
			AttemptNumber: attempt,
			SubmittedAt:   s.now().UTC(),
		}
		err = s.store.Insert(ctx, sub)
		if err == nil {
			return sub, nil
		}
		if !errors.Is(err, ErrDuplicateAttempt) {
			return Submission{}, err
		}
		lastErr = err
	}
	return Submission{}, apperr.Internal("could not assign attempt number", lastErr)
}

// Get returns a submission, restricted to its own student unless the
// caller is a professor or admin; assignment/course ownership for
// professors is enforced at the API layer where the course is known.
func (s *Service) Get(ctx context.Context, id, actorID, role string) (Submission, error) {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if role == "student" && sub.StudentID != actorID {
		return Submission{}, apperr.Forbidden("submission %s: not owned by caller", id)
	}
	return sub, nil
}

func (s *Service) ListOwn(ctx context.Context, studentID string) ([]Submission, error) {
	return s.store.ListByStudent(ctx, studentID)
}

// ListForAssignment is the grading-side view used by professors.
func (s *Service) ListForAssignment(ctx context.Context, assignmentID string) ([]Submission, error) {
	if _, err := s.courses.GetAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}
	return s.store.ListByAssignment(ctx, assignmentID)
}

// Progress records a lifecycle transition reported by the grading
// pipeline. Terminal states are reached through Complete/Fail.
func (s *Service) Progress(ctx context.Context, id string, to Status) (Submission, error) {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if !CanTransition(sub.Status, to) {
		return Submission{}, apperr.Conflict("submission %s cannot move from %s to %s", id, sub.Status, to)
	}
	if err := s.store.UpdateStatus(ctx, id, to, nil); err != nil {
		return Submission{}, err
	}
	sub.Status = to
	return sub, nil
}

// Complete attaches the aggregated score fields and moves the
// submission to COMPLETED. This is the only mutation the core ever
// applies to an existing submission.
func (s *Service) Complete(ctx context.Context, id string, fields ScoreFields) (Submission, error) {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if sub.Status.Terminal() {
		return Submission{}, apperr.Conflict("submission %s is already %s", id, sub.Status)
	}
	if err := s.store.AttachScore(ctx, id, fields); err != nil {
		return Submission{}, err
	}
	return s.store.Get(ctx, id)
}

// Fail marks a submission FAILED with the pipeline's error message.
func (s *Service) Fail(ctx context.Context, id, reason string) (Submission, error) {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if sub.Status.Terminal() {
		return Submission{}, apperr.Conflict("submission %s is already %s", id, sub.Status)
	}
	if err := s.store.UpdateStatus(ctx, id, StatusFailed, &reason); err != nil {
		return Submission{}, err
	}
	return s.store.Get(ctx, id)
}
