package submission

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/repograder/repograder/internal/apperr"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Insert(ctx context.Context, sub Submission) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO submissions (id,assignment_id,student_id,repo_url,status,attempt_number,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		sub.ID, sub.AssignmentID, sub.StudentID, sub.GitHubRepoURL, string(sub.Status),
		sub.AttemptNumber, sub.SubmittedAt.Unix())
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateAttempt
	}
	return err
}

// isUniqueViolation recognizes the (student, assignment, attempt)
// constraint firing on either backend: SQLSTATE 23505 on postgres,
// the UNIQUE constraint message on sqlite.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const submissionCols = `id,assignment_id,student_id,repo_url,status,attempt_number,submitted_at,grading_started_at,graded_at,total_score,max_score,percentage,letter_grade,build_success,error_message`

func (s *SQLStore) Get(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionCols+` FROM submissions WHERE id=$1`, id)
	sub, err := scanSubmission(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, apperr.NotFound("submission %s not found", id)
		}
		return Submission{}, err
	}
	return sub, nil
}

func (s *SQLStore) CountAttempts(ctx context.Context, studentID, assignmentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions WHERE student_id=$1 AND assignment_id=$2`,
		studentID, assignmentID).Scan(&n)
	return n, err
}

func (s *SQLStore) ListByAssignment(ctx context.Context, assignmentID string) ([]Submission, error) {
	return s.list(ctx, `SELECT `+submissionCols+` FROM submissions WHERE assignment_id=$1 ORDER BY submitted_at DESC`, assignmentID)
}

func (s *SQLStore) ListByStudent(ctx context.Context, studentID string) ([]Submission, error) {
	return s.list(ctx, `SELECT `+submissionCols+` FROM submissions WHERE student_id=$1 ORDER BY submitted_at DESC`, studentID)
}

func (s *SQLStore) list(ctx context.Context, q string, args ...any) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateStatus(ctx context.Context, id string, status Status, errorMessage *string) error {
	var started any
	if status == StatusGrading {
		started = time.Now().Unix()
	}
	res, err := s.db.ExecContext(ctx, `UPDATE submissions SET status=$1, error_message=COALESCE($2,error_message), grading_started_at=COALESCE($3,grading_started_at) WHERE id=$4`,
		string(status), errorMessage, started, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("submission %s not found", id)
	}
	return nil
}

func (s *SQLStore) AttachScore(ctx context.Context, id string, f ScoreFields) error {
	res, err := s.db.ExecContext(ctx, `UPDATE submissions
		SET status=$1, total_score=$2, max_score=$3, percentage=$4, letter_grade=$5, build_success=$6, graded_at=$7
		WHERE id=$8`,
		string(StatusCompleted), f.TotalScore, f.MaxScore, f.Percentage, f.LetterGrade,
		f.BuildSuccess, f.GradedAt.Unix(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("submission %s not found", id)
	}
	return nil
}

func scanSubmission(scan func(...any) error) (Submission, error) {
	var (
		sub                  Submission
		status               string
		submittedAt          int64
		gradingStartedAt     sql.NullInt64
		gradedAt             sql.NullInt64
		totalScore, maxScore sql.NullFloat64
		percentage           sql.NullFloat64
		letterGrade          sql.NullString
		buildSuccess         sql.NullBool
		errorMessage         sql.NullString
	)
	if err := scan(&sub.ID, &sub.AssignmentID, &sub.StudentID, &sub.GitHubRepoURL, &status,
		&sub.AttemptNumber, &submittedAt, &gradingStartedAt, &gradedAt, &totalScore, &maxScore,
		&percentage, &letterGrade, &buildSuccess, &errorMessage); err != nil {
		return Submission{}, err
	}
	sub.Status = Status(status)
	sub.SubmittedAt = time.Unix(submittedAt, 0).UTC()
	if gradingStartedAt.Valid {
		t := time.Unix(gradingStartedAt.Int64, 0).UTC()
		sub.GradingStartedAt = &t
	}
	if gradedAt.Valid {
		t := time.Unix(gradedAt.Int64, 0).UTC()
		sub.GradedAt = &t
	}
	if totalScore.Valid {
		sub.TotalScore = &totalScore.Float64
	}
	if maxScore.Valid {
		sub.MaxScore = &maxScore.Float64
	}
	if percentage.Valid {
		sub.Percentage = &percentage.Float64
	}
	if letterGrade.Valid {
		sub.LetterGrade = &letterGrade.String
	}
	if buildSuccess.Valid {
		sub.BuildSuccess = &buildSuccess.Bool
	}
	if errorMessage.Valid {
		sub.ErrorMessage = &errorMessage.String
	}
	return sub, nil
}
