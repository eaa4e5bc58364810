package course

import (
	"context"
	"sort"
	"sync"

	"github.com/repograder/repograder/internal/apperr"
)

type memoryStore struct {
	mu          sync.RWMutex
	courses     map[string]Course
	assignments map[string]Assignment
	enrollments map[string]map[string]Enrollment // courseID -> studentID
}

func NewInMemoryStore() *memoryStore {
	return &memoryStore{
		courses:     map[string]Course{},
		assignments: map[string]Assignment{},
		enrollments: map[string]map[string]Enrollment{},
	}
}

func (m *memoryStore) CreateCourse(_ context.Context, c Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = c
	return nil
}

func (m *memoryStore) GetCourse(_ context.Context, id string) (Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[id]
	if !ok {
		return Course{}, apperr.NotFound("course %s not found", id)
	}
	return c, nil
}

func (m *memoryStore) UpdateCourse(_ context.Context, c Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[c.ID]; !ok {
		return apperr.NotFound("course %s not found", c.ID)
	}
	m.courses[c.ID] = c
	return nil
}

func (m *memoryStore) ListCoursesByProfessor(_ context.Context, professorID string) ([]Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Course
	for _, c := range m.courses {
		if c.ProfessorID == professorID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (m *memoryStore) ListEnrolledCourses(_ context.Context, studentID string) ([]Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Course
	for courseID, students := range m.enrollments {
		if _, ok := students[studentID]; !ok {
			continue
		}
		if c, ok := m.courses[courseID]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (m *memoryStore) Enroll(_ context.Context, e Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	students, ok := m.enrollments[e.CourseID]
	if !ok {
		students = map[string]Enrollment{}
		m.enrollments[e.CourseID] = students
	}
	if _, exists := students[e.StudentID]; !exists {
		students[e.StudentID] = e
	}
	return nil
}

func (m *memoryStore) IsEnrolled(_ context.Context, studentID, courseID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.enrollments[courseID][studentID]
	return ok, nil
}

func (m *memoryStore) CreateAssignment(_ context.Context, a Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.ID] = a
	return nil
}

func (m *memoryStore) GetAssignment(_ context.Context, id string) (Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[id]
	if !ok {
		return Assignment{}, apperr.NotFound("assignment %s not found", id)
	}
	return a, nil
}

func (m *memoryStore) UpdateAssignment(_ context.Context, a Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[a.ID]; !ok {
		return apperr.NotFound("assignment %s not found", a.ID)
	}
	m.assignments[a.ID] = a
	return nil
}

func (m *memoryStore) ListAssignments(_ context.Context, courseID string, publishedOnly bool) ([]Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Assignment
	for _, a := range m.assignments {
		if a.CourseID != courseID {
			continue
		}
		if publishedOnly && !a.IsPublished {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}
