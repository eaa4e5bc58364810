package submission

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repograder/repograder/internal/apperr"
	"github.com/repograder/repograder/internal/course"
)

func openAssignment(due time.Time) course.Assignment {
	return course.Assignment{
		ID:             "a1",
		CourseID:       "c1",
		Title:          "Project 1",
		DueDate:        due,
		IsPublished:    true,
		MaxSubmissions: 3,
	}
}

func TestAdmit_AssignmentMissing(t *testing.T) {
	_, err := Admit(nil, true, 0, time.Now())
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestAdmit_Unpublished(t *testing.T) {
	now := time.Now()
	a := openAssignment(now.Add(24 * time.Hour))
	a.IsPublished = false

	// Rejected regardless of enrollment or deadline state.
	_, err := Admit(&a, true, 0, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrRejected))
	assert.Contains(t, err.Error(), "not yet published")
}

func TestAdmit_DeadlineAndLatePolicy(t *testing.T) {
	now := time.Now()

	t.Run("past due, late disabled", func(t *testing.T) {
		a := openAssignment(now.Add(-time.Hour))
		_, err := Admit(&a, true, 0, now)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrRejected))
		assert.Contains(t, err.Error(), "past due")
	})

	t.Run("past due, late allowed", func(t *testing.T) {
		a := openAssignment(now.Add(-time.Hour))
		a.AllowLateSubmissions = true
		attempt, err := Admit(&a, true, 0, now)
		require.NoError(t, err)
		assert.Equal(t, 1, attempt)
	})

	t.Run("before deadline", func(t *testing.T) {
		a := openAssignment(now.Add(time.Hour))
		attempt, err := Admit(&a, true, 0, now)
		require.NoError(t, err)
		assert.Equal(t, 1, attempt)
	})
}

func TestAdmit_NotEnrolled(t *testing.T) {
	now := time.Now()
	a := openAssignment(now.Add(24 * time.Hour))
	_, err := Admit(&a, false, 0, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrRejected))
	assert.Contains(t, err.Error(), "not enrolled")
}

func TestAdmit_SubmissionLimit(t *testing.T) {
	now := time.Now()
	a := openAssignment(now.Add(24 * time.Hour)) // MaxSubmissions: 3

	// 2 prior attempts: third is admitted with attempt number 3.
	attempt, err := Admit(&a, true, 2, now)
	require.NoError(t, err)
	assert.Equal(t, 3, attempt)

	// 3 prior attempts: fourth is rejected, limit named in the message.
	_, err = Admit(&a, true, 3, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrRejected))
	assert.Contains(t, err.Error(), "submission limit reached (3 attempts)")
}

func TestAdmit_CheckOrder(t *testing.T) {
	now := time.Now()
	// All later checks would fail too; the publish check wins.
	a := openAssignment(now.Add(-time.Hour))
	a.IsPublished = false
	_, err := Admit(&a, false, 5, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not yet published")
}

func TestStatus_Lifecycle(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusGrading.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())

	assert.True(t, CanTransition(StatusPending, StatusCloning))
	assert.True(t, CanTransition(StatusGrading, StatusCompleted))
	assert.True(t, CanTransition(StatusCloning, StatusFailed))
	assert.False(t, CanTransition(StatusPending, StatusTesting), "no skipping")
	assert.False(t, CanTransition(StatusCompleted, StatusFailed), "terminal is final")
	assert.False(t, CanTransition(StatusFailed, StatusPending))
}
