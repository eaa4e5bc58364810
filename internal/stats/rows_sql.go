package stats

import (
	"context"
	"database/sql"
	"time"

	"github.com/repograder/repograder/internal/submission"
)

// SQLRows loads the flat, pre-joined row slices the aggregations run
// over. Each query denormalizes the course id onto the row so the pure
// functions never walk nested objects.
type SQLRows struct {
	db *sql.DB
}

func NewSQLRows(db *sql.DB) *SQLRows { return &SQLRows{db: db} }

func (s *SQLRows) ProfessorCourses(ctx context.Context, professorID string) ([]CourseRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.id, c.name, c.is_active,
			(SELECT COUNT(*) FROM enrollments e WHERE e.course_id=c.id)
		FROM courses c WHERE c.professor_id=$1`, professorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCourseRows(rows)
}

func (s *SQLRows) StudentCourses(ctx context.Context, studentID string) ([]CourseRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.id, c.name, c.is_active,
			(SELECT COUNT(*) FROM enrollments e2 WHERE e2.course_id=c.id)
		FROM courses c JOIN enrollments e ON e.course_id=c.id
		WHERE e.student_id=$1`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCourseRows(rows)
}

func scanCourseRows(rows *sql.Rows) ([]CourseRow, error) {
	var out []CourseRow
	for rows.Next() {
		var r CourseRow
		if err := rows.Scan(&r.CourseID, &r.Name, &r.IsActive, &r.StudentCount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLRows) ProfessorAssignments(ctx context.Context, professorID string) ([]AssignmentRow, error) {
	return s.assignmentRows(ctx, `SELECT a.id, a.course_id, a.title, a.due_date, a.is_published, a.allow_late
		FROM assignments a JOIN courses c ON c.id=a.course_id
		WHERE c.professor_id=$1`, professorID)
}

// StudentAssignments returns only published assignments in the
// student's enrolled courses; unpublished work is invisible to
// students everywhere.
func (s *SQLRows) StudentAssignments(ctx context.Context, studentID string) ([]AssignmentRow, error) {
	return s.assignmentRows(ctx, `SELECT a.id, a.course_id, a.title, a.due_date, a.is_published, a.allow_late
		FROM assignments a JOIN enrollments e ON e.course_id=a.course_id
		WHERE e.student_id=$1 AND a.is_published=TRUE`, studentID)
}

func (s *SQLRows) assignmentRows(ctx context.Context, q string, args ...any) ([]AssignmentRow, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AssignmentRow
	for rows.Next() {
		var (
			r   AssignmentRow
			due int64
		)
		if err := rows.Scan(&r.AssignmentID, &r.CourseID, &r.Title, &due, &r.IsPublished, &r.AllowLateSubmissions); err != nil {
			return nil, err
		}
		r.DueDate = time.Unix(due, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLRows) ProfessorSubmissions(ctx context.Context, professorID string) ([]SubmissionRow, error) {
	return s.submissionRows(ctx, `SELECT s.id, a.course_id, s.assignment_id, s.student_id, s.status, s.percentage, s.submitted_at
		FROM submissions s
		JOIN assignments a ON a.id=s.assignment_id
		JOIN courses c ON c.id=a.course_id
		WHERE c.professor_id=$1`, professorID)
}

func (s *SQLRows) StudentSubmissions(ctx context.Context, studentID string) ([]SubmissionRow, error) {
	return s.submissionRows(ctx, `SELECT s.id, a.course_id, s.assignment_id, s.student_id, s.status, s.percentage, s.submitted_at
		FROM submissions s
		JOIN assignments a ON a.id=s.assignment_id
		WHERE s.student_id=$1`, studentID)
}

func (s *SQLRows) submissionRows(ctx context.Context, q string, args ...any) ([]SubmissionRow, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SubmissionRow
	for rows.Next() {
		var (
			r           SubmissionRow
			status      string
			pct         sql.NullFloat64
			submittedAt int64
		)
		if err := rows.Scan(&r.SubmissionID, &r.CourseID, &r.AssignmentID, &r.StudentID, &status, &pct, &submittedAt); err != nil {
			return nil, err
		}
		r.Status = submission.Status(status)
		if pct.Valid {
			r.Percentage = &pct.Float64
		}
		r.SubmittedAt = time.Unix(submittedAt, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
