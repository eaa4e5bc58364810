package course

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/repograder/repograder/internal/apperr"
)

// RubricChecker is the one question the course side asks the rubric
// side before attaching: does this rubric exist. The attachment fact
// itself lives on the assignment row; the rubric side reads it back
// through its own store, so there is no mutual reference.
type RubricChecker interface {
	Exists(ctx context.Context, rubricID string) (bool, error)
}

type Service struct {
	store   Store
	rubrics RubricChecker
}

func NewService(store Store, rubrics RubricChecker) *Service {
	return &Service{store: store, rubrics: rubrics}
}

func (s *Service) CreateCourse(ctx context.Context, name, description, professorID string) (Course, error) {
	c := Course{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		ProfessorID: professorID,
		IsActive:    true,
		CreatedAt:   time.Now().Unix(),
	}
	if err := s.store.CreateCourse(ctx, c); err != nil {
		return Course{}, err
	}
	return c, nil
}

// ownedCourse resolves a course and enforces ownership. Not-found is
// reported before forbidden so an unauthorized caller learns nothing
// more than existence.
func (s *Service) ownedCourse(ctx context.Context, courseID, professorID, role string) (Course, error) {
	c, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	if role != "admin" && c.ProfessorID != professorID {
		return Course{}, apperr.Forbidden("course %s: not owned by caller", courseID)
	}
	return c, nil
}

func (s *Service) GetCourse(ctx context.Context, courseID string) (Course, error) {
	return s.store.GetCourse(ctx, courseID)
}

func (s *Service) ListOwned(ctx context.Context, professorID string) ([]Course, error) {
	return s.store.ListCoursesByProfessor(ctx, professorID)
}

func (s *Service) ListEnrolled(ctx context.Context, studentID string) ([]Course, error) {
	return s.store.ListEnrolledCourses(ctx, studentID)
}

func (s *Service) EnrollStudent(ctx context.Context, courseID, studentID, actorID, role string) error {
	if _, err := s.ownedCourse(ctx, courseID, actorID, role); err != nil {
		return err
	}
	return s.store.Enroll(ctx, Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		EnrolledAt: time.Now().Unix(),
	})
}

type AssignmentInput struct {
	Title                string
	Description          string
	DueDate              time.Time
	AllowLateSubmissions bool
	MaxSubmissions       int
}

func (s *Service) CreateAssignment(ctx context.Context, courseID string, in AssignmentInput, actorID, role string) (Assignment, error) {
	if _, err := s.ownedCourse(ctx, courseID, actorID, role); err != nil {
		return Assignment{}, err
	}
	if in.MaxSubmissions < 1 {
		return Assignment{}, apperr.Invalid("max_submissions must be at least 1")
	}
	a := Assignment{
		ID:                   uuid.NewString(),
		CourseID:             courseID,
		Title:                in.Title,
		Description:          in.Description,
		DueDate:              in.DueDate,
		AllowLateSubmissions: in.AllowLateSubmissions,
		MaxSubmissions:       in.MaxSubmissions,
		CreatedAt:            time.Now().Unix(),
	}
	if err := s.store.CreateAssignment(ctx, a); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (s *Service) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	return s.store.GetAssignment(ctx, id)
}

// PublishAssignment makes the assignment visible to students and open
// for submissions. Publishing requires a rubric in place: the grading
// side relies on it unchecked.
func (s *Service) PublishAssignment(ctx context.Context, assignmentID, actorID, role string) (Assignment, error) {
	a, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Assignment{}, err
	}
	if _, err := s.ownedCourse(ctx, a.CourseID, actorID, role); err != nil {
		return Assignment{}, err
	}
	if a.RubricID == "" {
		return Assignment{}, apperr.Rejected("assignment has no rubric attached and cannot be published")
	}
	a.IsPublished = true
	if err := s.store.UpdateAssignment(ctx, a); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// AttachRubric links a rubric to an assignment. From this point the
// rubric side reads the link back and refuses structural edits.
func (s *Service) AttachRubric(ctx context.Context, assignmentID, rubricID, actorID, role string) (Assignment, error) {
	a, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Assignment{}, err
	}
	if _, err := s.ownedCourse(ctx, a.CourseID, actorID, role); err != nil {
		return Assignment{}, err
	}
	ok, err := s.rubrics.Exists(ctx, rubricID)
	if err != nil {
		return Assignment{}, err
	}
	if !ok {
		return Assignment{}, apperr.NotFound("rubric %s not found", rubricID)
	}
	a.RubricID = rubricID
	if err := s.store.UpdateAssignment(ctx, a); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (s *Service) ListAssignments(ctx context.Context, courseID, actorID, role string) ([]Assignment, error) {
	c, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	// Owners see everything; students see published assignments of
	// courses they are enrolled in.
	if role == "admin" || c.ProfessorID == actorID {
		return s.store.ListAssignments(ctx, courseID, false)
	}
	enrolled, err := s.store.IsEnrolled(ctx, actorID, courseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, apperr.Forbidden("course %s: caller is not enrolled", courseID)
	}
	return s.store.ListAssignments(ctx, courseID, true)
}
