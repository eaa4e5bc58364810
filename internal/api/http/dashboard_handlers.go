package http

import (
	"net/http"
	"time"

	"github.com/repograder/repograder/internal/rbac"
	"github.com/repograder/repograder/internal/stats"
)

// GET /dashboard/professor
func ProfessorDashboardHandler(rows *stats.SQLRows) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sub := rbac.SubjectFromContext(ctx)
		courses, err := rows.ProfessorCourses(ctx, sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		assignments, err := rows.ProfessorAssignments(ctx, sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		submissions, err := rows.ProfessorSubmissions(ctx, sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats.BuildProfessorOverview(courses, assignments, submissions))
	}
}

// GET /dashboard/student
func StudentDashboardHandler(rows *stats.SQLRows) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sub := rbac.SubjectFromContext(ctx)
		courses, err := rows.StudentCourses(ctx, sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		assignments, err := rows.StudentAssignments(ctx, sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		submissions, err := rows.StudentSubmissions(ctx, sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats.BuildStudentOverview(courses, assignments, submissions, time.Now()))
	}
}

// GET /dashboard/deadlines?limit=
// The student's upcoming work: published assignments that are either
// not yet due or still open to late submissions.
func DeadlinesHandler(rows *stats.SQLRows) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sub := rbac.SubjectFromContext(ctx)
		limit := queryInt(r, "limit", 10, 50)
		assignments, err := rows.StudentAssignments(ctx, sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		submissions, err := rows.StudentSubmissions(ctx, sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats.UpcomingDeadlines(assignments, submissions, time.Now(), limit))
	}
}

// GET /dashboard/recent?limit=
// Recent submission activity; professors see their courses, students
// see their own.
func RecentSubmissionsHandler(rows *stats.SQLRows) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sub := rbac.SubjectFromContext(ctx)
		limit := queryInt(r, "limit", 10, 50)
		var (
			rws []stats.SubmissionRow
			err error
		)
		if rbac.RoleFromContext(ctx) == "student" {
			rws, err = rows.StudentSubmissions(ctx, sub)
		} else {
			rws, err = rows.ProfessorSubmissions(ctx, sub)
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats.RecentSubmissions(rws, limit))
	}
}
