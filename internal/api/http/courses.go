package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/repograder/repograder/internal/course"
	"github.com/repograder/repograder/internal/rbac"
)

type createCourseReq struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// POST /courses
func CreateCourseHandler(svc *course.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCourseReq
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		c, err := svc.CreateCourse(r.Context(), req.Name, req.Description, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

// GET /courses
// Professors see the courses they own; students see their enrollments.
func ListCoursesHandler(svc *course.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sub := rbac.SubjectFromContext(ctx)
		var (
			out []course.Course
			err error
		)
		if rbac.RoleFromContext(ctx) == "student" {
			out, err = svc.ListEnrolled(ctx, sub)
		} else {
			out, err = svc.ListOwned(ctx, sub)
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		if out == nil {
			out = []course.Course{}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /courses/{courseID}
func GetCourseHandler(svc *course.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

type enrollReq struct {
	StudentID string `json:"student_id" validate:"required"`
}

// POST /courses/{courseID}/enroll
func EnrollStudentHandler(svc *course.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enrollReq
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		ctx := r.Context()
		if err := svc.EnrollStudent(ctx, chi.URLParam(r, "courseID"), req.StudentID,
			rbac.SubjectFromContext(ctx), rbac.RoleFromContext(ctx)); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "enrolled"})
	}
}

type createAssignmentReq struct {
	Title                string    `json:"title" validate:"required"`
	Description          string    `json:"description"`
	DueDate              time.Time `json:"due_date" validate:"required"`
	AllowLateSubmissions bool      `json:"allow_late_submissions"`
	MaxSubmissions       int       `json:"max_submissions" validate:"gte=1"`
}

// POST /courses/{courseID}/assignments
func CreateAssignmentHandler(svc *course.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAssignmentReq
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		ctx := r.Context()
		a, err := svc.CreateAssignment(ctx, chi.URLParam(r, "courseID"), course.AssignmentInput{
			Title:                req.Title,
			Description:          req.Description,
			DueDate:              req.DueDate,
			AllowLateSubmissions: req.AllowLateSubmissions,
			MaxSubmissions:       req.MaxSubmissions,
		}, rbac.SubjectFromContext(ctx), rbac.RoleFromContext(ctx))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// GET /courses/{courseID}/assignments
func ListAssignmentsHandler(svc *course.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		as, err := svc.ListAssignments(ctx, chi.URLParam(r, "courseID"),
			rbac.SubjectFromContext(ctx), rbac.RoleFromContext(ctx))
		if err != nil {
			writeErr(w, err)
			return
		}
		if as == nil {
			as = []course.Assignment{}
		}
		writeJSON(w, http.StatusOK, as)
	}
}

// GET /assignments/{assignmentID}
func GetAssignmentHandler(svc *course.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetAssignment(r.Context(), chi.URLParam(r, "assignmentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// POST /assignments/{assignmentID}/publish
func PublishAssignmentHandler(svc *course.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		a, err := svc.PublishAssignment(ctx, chi.URLParam(r, "assignmentID"),
			rbac.SubjectFromContext(ctx), rbac.RoleFromContext(ctx))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

type attachRubricReq struct {
	RubricID string `json:"rubric_id" validate:"required"`
}

// POST /assignments/{assignmentID}/rubric
func AttachRubricHandler(svc *course.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attachRubricReq
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		ctx := r.Context()
		a, err := svc.AttachRubric(ctx, chi.URLParam(r, "assignmentID"), req.RubricID,
			rbac.SubjectFromContext(ctx), rbac.RoleFromContext(ctx))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
