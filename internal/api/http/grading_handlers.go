package http

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/repograder/repograder/internal/apperr"
	"github.com/repograder/repograder/internal/course"
	"github.com/repograder/repograder/internal/grading"
	"github.com/repograder/repograder/internal/rubric"
	"github.com/repograder/repograder/internal/submission"
)

// GraderAuth guards the pipeline callback routes with the shared
// token from configuration. An empty configured token closes the
// routes entirely.
func GraderAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Grader-Token")
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type progressReq struct {
	Status submission.Status `json:"status" validate:"required"`
}

// POST /grader/submissions/{submissionID}/status
// The pipeline reports lifecycle transitions; terminal states go
// through the grade and fail callbacks instead.
func ProgressHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req progressReq
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		if !req.Status.Valid() || req.Status.Terminal() {
			writeErr(w, apperr.Invalid("status %q is not a reportable transition", req.Status))
			return
		}
		sub, err := svc.Progress(r.Context(), chi.URLParam(r, "submissionID"), req.Status)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

type gradeReq struct {
	Outcomes     []grading.Outcome `json:"outcomes" validate:"required"`
	BuildSuccess *bool             `json:"build_success"`
}

// POST /grader/submissions/{submissionID}/grade
// Aggregates the pipeline's per-criterion outcomes against the rubric
// attached to the submission's assignment and records the terminal
// score in one write.
func GradeHandler(subs *submission.Service, courses *course.Service, rubrics *rubric.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gradeReq
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		ctx := r.Context()
		id := chi.URLParam(r, "submissionID")

		sub, err := subs.Get(ctx, id, "", "admin")
		if err != nil {
			writeErr(w, err)
			return
		}
		a, err := courses.GetAssignment(ctx, sub.AssignmentID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if a.RubricID == "" {
			writeErr(w, apperr.Internal("assignment has no rubric", nil))
			return
		}
		doc, err := rubrics.Load(ctx, a.RubricID)
		if err != nil {
			writeErr(w, err)
			return
		}
		result, err := grading.ScoreSubmission(doc, req.Outcomes)
		if err != nil {
			writeErr(w, err)
			return
		}
		graded, err := subs.Complete(ctx, id, submission.ScoreFields{
			TotalScore:   result.TotalScore,
			MaxScore:     result.MaxScore,
			Percentage:   result.Percentage,
			LetterGrade:  result.LetterGrade,
			BuildSuccess: req.BuildSuccess,
			GradedAt:     time.Now().UTC(),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"submission": graded,
			"result":     result,
		})
	}
}

type failReq struct {
	Error string `json:"error" validate:"required"`
}

// POST /grader/submissions/{submissionID}/fail
func FailHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req failReq
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		sub, err := svc.Fail(r.Context(), chi.URLParam(r, "submissionID"), req.Error)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}
