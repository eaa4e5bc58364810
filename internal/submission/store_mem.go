package submission

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/repograder/repograder/internal/apperr"
)

type attemptKey struct {
	studentID    string
	assignmentID string
	attempt      int
}

type memoryStore struct {
	mu       sync.Mutex
	subs     map[string]Submission
	attempts map[attemptKey]string // -> submission id, mirrors the SQL uniqueness constraint
}

func NewInMemoryStore() *memoryStore {
	return &memoryStore{
		subs:     map[string]Submission{},
		attempts: map[attemptKey]string{},
	}
}

func (m *memoryStore) Insert(_ context.Context, sub Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := attemptKey{sub.StudentID, sub.AssignmentID, sub.AttemptNumber}
	if _, taken := m.attempts[k]; taken {
		return ErrDuplicateAttempt
	}
	m.attempts[k] = sub.ID
	m.subs[sub.ID] = sub
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[id]
	if !ok {
		return Submission{}, apperr.NotFound("submission %s not found", id)
	}
	return sub, nil
}

func (m *memoryStore) CountAttempts(_ context.Context, studentID, assignmentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, sub := range m.subs {
		if sub.StudentID == studentID && sub.AssignmentID == assignmentID {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) ListByAssignment(_ context.Context, assignmentID string) ([]Submission, error) {
	return m.filter(func(s Submission) bool { return s.AssignmentID == assignmentID }), nil
}

func (m *memoryStore) ListByStudent(_ context.Context, studentID string) ([]Submission, error) {
	return m.filter(func(s Submission) bool { return s.StudentID == studentID }), nil
}

func (m *memoryStore) filter(keep func(Submission) bool) []Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Submission
	for _, sub := range m.subs {
		if keep(sub) {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out
}

func (m *memoryStore) UpdateStatus(_ context.Context, id string, status Status, errorMessage *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[id]
	if !ok {
		return apperr.NotFound("submission %s not found", id)
	}
	sub.Status = status
	if errorMessage != nil {
		sub.ErrorMessage = errorMessage
	}
	if status == StatusGrading && sub.GradingStartedAt == nil {
		t := time.Now().UTC()
		sub.GradingStartedAt = &t
	}
	m.subs[id] = sub
	return nil
}

func (m *memoryStore) AttachScore(_ context.Context, id string, f ScoreFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[id]
	if !ok {
		return apperr.NotFound("submission %s not found", id)
	}
	sub.Status = StatusCompleted
	sub.TotalScore = &f.TotalScore
	sub.MaxScore = &f.MaxScore
	sub.Percentage = &f.Percentage
	sub.LetterGrade = &f.LetterGrade
	sub.BuildSuccess = f.BuildSuccess
	t := f.GradedAt.UTC()
	sub.GradedAt = &t
	m.subs[id] = sub
	return nil
}
