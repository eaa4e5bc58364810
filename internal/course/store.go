package course

import "context"

type Store interface {
	CreateCourse(ctx context.Context, c Course) error
	GetCourse(ctx context.Context, id string) (Course, error)
	UpdateCourse(ctx context.Context, c Course) error
	ListCoursesByProfessor(ctx context.Context, professorID string) ([]Course, error)
	ListEnrolledCourses(ctx context.Context, studentID string) ([]Course, error)

	Enroll(ctx context.Context, e Enrollment) error
	IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)

	CreateAssignment(ctx context.Context, a Assignment) error
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	UpdateAssignment(ctx context.Context, a Assignment) error
	ListAssignments(ctx context.Context, courseID string, publishedOnly bool) ([]Assignment, error)
}
