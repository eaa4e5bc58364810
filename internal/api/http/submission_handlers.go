package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/repograder/repograder/internal/rbac"
	"github.com/repograder/repograder/internal/submission"
)

type submitReq struct {
	GitHubRepoURL string `json:"github_repo_url" validate:"required,url"`
}

// POST /assignments/{assignmentID}/submissions
// Runs the eligibility gate; a rejection carries its reason and leaves
// no record behind.
func SubmitHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitReq
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		sub, err := svc.Submit(r.Context(), chi.URLParam(r, "assignmentID"),
			rbac.SubjectFromContext(r.Context()), req.GitHubRepoURL)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	}
}

// GET /submissions/{submissionID}
func GetSubmissionHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sub, err := svc.Get(ctx, chi.URLParam(r, "submissionID"),
			rbac.SubjectFromContext(ctx), rbac.RoleFromContext(ctx))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

// GET /submissions
// A student's own submission history, newest first comes from the store.
func ListOwnSubmissionsHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := svc.ListOwn(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		if subs == nil {
			subs = []submission.Submission{}
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

// GET /assignments/{assignmentID}/submissions
func ListAssignmentSubmissionsHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := svc.ListForAssignment(r.Context(), chi.URLParam(r, "assignmentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if subs == nil {
			subs = []submission.Submission{}
		}
		writeJSON(w, http.StatusOK, subs)
	}
}
