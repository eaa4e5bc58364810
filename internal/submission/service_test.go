package submission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repograder/repograder/internal/apperr"
	"github.com/repograder/repograder/internal/course"
)

type fakeCourses struct {
	assignments map[string]course.Assignment
	enrolled    map[string]bool // studentID|courseID
}

func (f *fakeCourses) GetAssignment(_ context.Context, id string) (course.Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return course.Assignment{}, apperr.NotFound("assignment %s not found", id)
	}
	return a, nil
}

func (f *fakeCourses) IsEnrolled(_ context.Context, studentID, courseID string) (bool, error) {
	return f.enrolled[studentID+"|"+courseID], nil
}

func seedCourses(due time.Time) *fakeCourses {
	return &fakeCourses{
		assignments: map[string]course.Assignment{
			"a1": {
				ID:             "a1",
				CourseID:       "c1",
				DueDate:        due,
				IsPublished:    true,
				MaxSubmissions: 3,
			},
		},
		enrolled: map[string]bool{"s1|c1": true},
	}
}

func TestService_Submit_CreatesPendingWithAttemptNumber(t *testing.T) {
	store := NewInMemoryStore()
	svc := NewService(store, seedCourses(time.Now().Add(24*time.Hour)))

	sub, err := svc.Submit(context.Background(), "a1", "s1", "https://github.com/s1/proj")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, sub.Status)
	assert.Equal(t, 1, sub.AttemptNumber)
	assert.NotEmpty(t, sub.ID)

	sub2, err := svc.Submit(context.Background(), "a1", "s1", "https://github.com/s1/proj")
	require.NoError(t, err)
	assert.Equal(t, 2, sub2.AttemptNumber)
}

func TestService_Submit_RejectionsLeaveNoRecord(t *testing.T) {
	store := NewInMemoryStore()
	svc := NewService(store, seedCourses(time.Now().Add(24*time.Hour)))

	_, err := svc.Submit(context.Background(), "a1", "s2", "https://github.com/s2/proj")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrRejected))

	n, err := store.CountAttempts(context.Background(), "s2", "a1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_Submit_LimitEnforced(t *testing.T) {
	store := NewInMemoryStore()
	svc := NewService(store, seedCourses(time.Now().Add(24*time.Hour)))

	for i := 1; i <= 3; i++ {
		sub, err := svc.Submit(context.Background(), "a1", "s1", "url")
		require.NoError(t, err)
		assert.Equal(t, i, sub.AttemptNumber)
	}
	_, err := svc.Submit(context.Background(), "a1", "s1", "url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "submission limit reached (3 attempts)")
}

// racingStore makes the first insert lose the attempt-number race, the
// way a concurrent submission would.
type racingStore struct {
	Store
	conflicts int
	inserted  []Submission
}

func (r *racingStore) Insert(ctx context.Context, sub Submission) error {
	if r.conflicts > 0 {
		r.conflicts--
		// Another writer claimed this attempt number first.
		taken := sub
		taken.ID = "other-" + sub.ID
		if err := r.Store.Insert(ctx, taken); err != nil {
			return err
		}
		return ErrDuplicateAttempt
	}
	if err := r.Store.Insert(ctx, sub); err != nil {
		return err
	}
	r.inserted = append(r.inserted, sub)
	return nil
}

func TestService_Submit_RetriesOnAttemptConflict(t *testing.T) {
	store := &racingStore{Store: NewInMemoryStore(), conflicts: 1}
	svc := NewService(store, seedCourses(time.Now().Add(24*time.Hour)))

	sub, err := svc.Submit(context.Background(), "a1", "s1", "url")
	require.NoError(t, err)
	// The rival took attempt 1; the retry re-read the count and got 2.
	assert.Equal(t, 2, sub.AttemptNumber)
	require.Len(t, store.inserted, 1)
}

func TestService_CompleteAttachesScoreOnce(t *testing.T) {
	store := NewInMemoryStore()
	svc := NewService(store, seedCourses(time.Now().Add(24*time.Hour)))

	sub, err := svc.Submit(context.Background(), "a1", "s1", "url")
	require.NoError(t, err)

	ok := true
	graded, err := svc.Complete(context.Background(), sub.ID, ScoreFields{
		TotalScore:   85,
		MaxScore:     100,
		Percentage:   85,
		LetterGrade:  "B",
		BuildSuccess: &ok,
		GradedAt:     time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, graded.Status)
	require.NotNil(t, graded.Percentage)
	assert.Equal(t, 85.0, *graded.Percentage)

	_, err = svc.Complete(context.Background(), sub.ID, ScoreFields{})
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestService_ProgressValidatesTransitions(t *testing.T) {
	store := NewInMemoryStore()
	svc := NewService(store, seedCourses(time.Now().Add(24*time.Hour)))

	sub, err := svc.Submit(context.Background(), "a1", "s1", "url")
	require.NoError(t, err)

	_, err = svc.Progress(context.Background(), sub.ID, StatusTesting)
	assert.True(t, errors.Is(err, apperr.ErrConflict), "skipping CLONING must be refused")

	got, err := svc.Progress(context.Background(), sub.ID, StatusCloning)
	require.NoError(t, err)
	assert.Equal(t, StatusCloning, got.Status)
}

func TestService_Get_StudentSeesOwnOnly(t *testing.T) {
	store := NewInMemoryStore()
	svc := NewService(store, seedCourses(time.Now().Add(24*time.Hour)))

	sub, err := svc.Submit(context.Background(), "a1", "s1", "url")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), sub.ID, "s1", "student")
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), sub.ID, "s9", "student")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	_, err = svc.Get(context.Background(), "missing", "s9", "student")
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "not-found wins over forbidden")
}
