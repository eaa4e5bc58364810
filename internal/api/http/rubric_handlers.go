package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/repograder/repograder/internal/apperr"
	"github.com/repograder/repograder/internal/rbac"
	"github.com/repograder/repograder/internal/rubric"
)

// POST /rubrics
// Accepts either a multipart file= upload holding a rubric document as
// JSON, or the document directly as the request body.
func CreateRubricHandler(svc *rubric.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doc rubric.Document
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				writeErr(w, apperr.Invalid("file required"))
				return
			}
			defer f.Close()
			if err := json.NewDecoder(f).Decode(&doc); err != nil {
				writeErr(w, apperr.Invalid("bad json: %v", err))
				return
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
				writeErr(w, apperr.Invalid("bad json: %v", err))
				return
			}
		}
		out, err := svc.Create(r.Context(), doc, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

type createRubricDirectReq struct {
	Name         string             `json:"name" validate:"required"`
	Description  string             `json:"description"`
	TotalPoints  int                `json:"total_points" validate:"gt=0"`
	PassingGrade int                `json:"passing_grade" validate:"gte=0"`
	Metadata     map[string]string  `json:"metadata"`
	Criteria     []rubric.Criterion `json:"criteria" validate:"required"`
}

// POST /rubrics/direct
// The non-upload creation path. The service runs the same validation
// as the upload path, so the two cannot diverge.
func CreateRubricDirectHandler(svc *rubric.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRubricDirectReq
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		out, err := svc.CreateDirect(r.Context(), rubric.Rubric{
			Name:         req.Name,
			Description:  req.Description,
			TotalPoints:  req.TotalPoints,
			PassingGrade: req.PassingGrade,
			Metadata:     req.Metadata,
		}, req.Criteria, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// POST /rubrics/validate
// Dry run: reports the first violation without persisting anything.
func ValidateRubricHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doc rubric.Document
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			writeErr(w, apperr.Invalid("bad json: %v", err))
			return
		}
		doc.Normalize()
		if err := rubric.Validate(&doc); err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"valid": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"valid": true})
	}
}

// GET /rubrics/{rubricID}
func GetRubricHandler(svc *rubric.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		doc, err := svc.Get(ctx, chi.URLParam(r, "rubricID"),
			rbac.SubjectFromContext(ctx), rbac.RoleFromContext(ctx))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

// GET /rubrics?limit=&offset=
func ListRubricsHandler(svc *rubric.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		limit := queryInt(r, "limit", 50, 200)
		offset := queryInt(r, "offset", 0, 0)
		rubrics, err := svc.List(ctx, rbac.SubjectFromContext(ctx), rbac.RoleFromContext(ctx), limit, offset)
		if err != nil {
			writeErr(w, err)
			return
		}
		if rubrics == nil {
			rubrics = []rubric.Rubric{}
		}
		writeJSON(w, http.StatusOK, rubrics)
	}
}

type updateRubricReq struct {
	Name         *string            `json:"name"`
	Description  *string            `json:"description"`
	TotalPoints  *int               `json:"total_points"`
	PassingGrade *int               `json:"passing_grade"`
	Metadata     map[string]string  `json:"metadata"`
	Criteria     []rubric.Criterion `json:"criteria"`
}

// PATCH /rubrics/{rubricID}
func UpdateRubricHandler(svc *rubric.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateRubricReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, apperr.Invalid("bad json: %v", err))
			return
		}
		ctx := r.Context()
		doc, err := svc.Update(ctx, chi.URLParam(r, "rubricID"), rubric.UpdatePatch{
			Name:         req.Name,
			Description:  req.Description,
			TotalPoints:  req.TotalPoints,
			PassingGrade: req.PassingGrade,
			Metadata:     req.Metadata,
			Criteria:     req.Criteria,
		}, rbac.SubjectFromContext(ctx), rbac.RoleFromContext(ctx))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

// DELETE /rubrics/{rubricID}
func DeleteRubricHandler(svc *rubric.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := svc.Delete(ctx, chi.URLParam(r, "rubricID"),
			rbac.SubjectFromContext(ctx), rbac.RoleFromContext(ctx)); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
