package course

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/repograder/repograder/internal/apperr"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CreateCourse(ctx context.Context, c Course) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO courses (id,name,description,professor_id,is_active,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.Name, c.Description, c.ProfessorID, c.IsActive, c.CreatedAt)
	return err
}

func (s *SQLStore) GetCourse(ctx context.Context, id string) (Course, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,description,professor_id,is_active,created_at FROM courses WHERE id=$1`, id)
	var c Course
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.ProfessorID, &c.IsActive, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, apperr.NotFound("course %s not found", id)
		}
		return Course{}, err
	}
	return c, nil
}

func (s *SQLStore) UpdateCourse(ctx context.Context, c Course) error {
	res, err := s.db.ExecContext(ctx, `UPDATE courses SET name=$1,description=$2,is_active=$3 WHERE id=$4`,
		c.Name, c.Description, c.IsActive, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("course %s not found", c.ID)
	}
	return nil
}

func (s *SQLStore) ListCoursesByProfessor(ctx context.Context, professorID string) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,description,professor_id,is_active,created_at
		FROM courses WHERE professor_id=$1 ORDER BY created_at DESC`, professorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCourses(rows)
}

func (s *SQLStore) ListEnrolledCourses(ctx context.Context, studentID string) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.id,c.name,c.description,c.professor_id,c.is_active,c.created_at
		FROM courses c JOIN enrollments e ON e.course_id=c.id
		WHERE e.student_id=$1 ORDER BY c.created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCourses(rows)
}

func scanCourses(rows *sql.Rows) ([]Course, error) {
	var out []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ProfessorID, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) Enroll(ctx context.Context, e Enrollment) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO enrollments (student_id,course_id,enrolled_at)
		VALUES ($1,$2,$3) ON CONFLICT (student_id,course_id) DO NOTHING`,
		e.StudentID, e.CourseID, e.EnrolledAt)
	return err
}

func (s *SQLStore) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM enrollments WHERE student_id=$1 AND course_id=$2`, studentID, courseID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) CreateAssignment(ctx context.Context, a Assignment) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO assignments (id,course_id,title,description,due_date,is_published,allow_late,max_submissions,rubric_id,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.CourseID, a.Title, a.Description, a.DueDate.Unix(), a.IsPublished,
		a.AllowLateSubmissions, a.MaxSubmissions, nullableString(a.RubricID), a.CreatedAt)
	return err
}

func (s *SQLStore) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,course_id,title,description,due_date,is_published,allow_late,max_submissions,rubric_id,created_at
		FROM assignments WHERE id=$1`, id)
	a, err := scanAssignment(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assignment{}, apperr.NotFound("assignment %s not found", id)
		}
		return Assignment{}, err
	}
	return a, nil
}

func (s *SQLStore) UpdateAssignment(ctx context.Context, a Assignment) error {
	res, err := s.db.ExecContext(ctx, `UPDATE assignments SET title=$1,description=$2,due_date=$3,is_published=$4,allow_late=$5,max_submissions=$6,rubric_id=$7 WHERE id=$8`,
		a.Title, a.Description, a.DueDate.Unix(), a.IsPublished, a.AllowLateSubmissions,
		a.MaxSubmissions, nullableString(a.RubricID), a.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("assignment %s not found", a.ID)
	}
	return nil
}

func (s *SQLStore) ListAssignments(ctx context.Context, courseID string, publishedOnly bool) ([]Assignment, error) {
	q := `SELECT id,course_id,title,description,due_date,is_published,allow_late,max_submissions,rubric_id,created_at
		FROM assignments WHERE course_id=$1`
	if publishedOnly {
		q += ` AND is_published=TRUE`
	}
	q += ` ORDER BY due_date ASC`
	rows, err := s.db.QueryContext(ctx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAssignment(scan func(...any) error) (Assignment, error) {
	var (
		a      Assignment
		due    int64
		rubric sql.NullString
	)
	if err := scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &due, &a.IsPublished,
		&a.AllowLateSubmissions, &a.MaxSubmissions, &rubric, &a.CreatedAt); err != nil {
		return Assignment{}, err
	}
	a.DueDate = time.Unix(due, 0).UTC()
	a.RubricID = rubric.String
	return a, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
