package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repograder/repograder/internal/course"
	"github.com/repograder/repograder/internal/rbac"
	"github.com/repograder/repograder/internal/rubric"
	"github.com/repograder/repograder/internal/submission"
)

const graderToken = "test-grader-token"

// asUser injects subject and role the way the JWT middleware would.
func asUser(sub, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := rbac.WithSubject(r.Context(), sub)
			ctx = rbac.WithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type testApp struct {
	router      *chi.Mux
	rubrics     *rubric.Service
	courses     *course.Service
	submissions *submission.Service
}

func newTestApp() *testApp {
	rubricSvc := rubric.NewService(rubric.NewInMemoryStore())
	courseStore := course.NewInMemoryStore()
	courseSvc := course.NewService(courseStore, rubricSvc)
	submissionSvc := submission.NewService(submission.NewInMemoryStore(), courseStore)

	r := chi.NewRouter()
	r.Post("/rubrics", CreateRubricHandler(rubricSvc))
	r.Post("/rubrics/direct", CreateRubricDirectHandler(rubricSvc))
	r.Post("/rubrics/validate", ValidateRubricHandler())
	r.Get("/rubrics", ListRubricsHandler(rubricSvc))
	r.Get("/rubrics/{rubricID}", GetRubricHandler(rubricSvc))
	r.Patch("/rubrics/{rubricID}", UpdateRubricHandler(rubricSvc))
	r.Delete("/rubrics/{rubricID}", DeleteRubricHandler(rubricSvc))

	r.Post("/courses", CreateCourseHandler(courseSvc))
	r.Post("/courses/{courseID}/enroll", EnrollStudentHandler(courseSvc))
	r.Post("/courses/{courseID}/assignments", CreateAssignmentHandler(courseSvc))
	r.Post("/assignments/{assignmentID}/publish", PublishAssignmentHandler(courseSvc))
	r.Post("/assignments/{assignmentID}/rubric", AttachRubricHandler(courseSvc))

	r.Post("/assignments/{assignmentID}/submissions", SubmitHandler(submissionSvc))
	r.Get("/submissions/{submissionID}", GetSubmissionHandler(submissionSvc))

	r.Group(func(gr chi.Router) {
		gr.Use(GraderAuth(graderToken))
		gr.Post("/grader/submissions/{submissionID}/status", ProgressHandler(submissionSvc))
		gr.Post("/grader/submissions/{submissionID}/grade", GradeHandler(submissionSvc, courseSvc, rubricSvc))
		gr.Post("/grader/submissions/{submissionID}/fail", FailHandler(submissionSvc))
	})

	return &testApp{router: r, rubrics: rubricSvc, courses: courseSvc, submissions: submissionSvc}
}

func (a *testApp) do(t *testing.T, sub, role, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h := a.router
	if role != "" {
		asUser(sub, role)(h).ServeHTTP(rec, req)
		return rec
	}
	h.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) graderDo(t *testing.T, token, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("X-Grader-Token", token)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func rubricDocBody() map[string]any {
	return map[string]any{
		"rubric": map[string]any{
			"name":          "CS101 Lab Rubric",
			"total_points":  100,
			"passing_grade": 60,
		},
		"criteria": []map[string]any{
			{
				"title": "Correctness", "max_points": 60, "evaluation_method": "unit_test",
				"gpt_instructions": "Check test output.",
				"levels":           map[string]string{"full": "all tests pass", "none": "tests fail"},
			},
			{
				"title": "Style", "max_points": 40, "evaluation_method": "gpt_semantic",
				"gpt_instructions": "Judge readability.",
				"levels":           map[string]string{"full": "idiomatic", "none": "unreadable"},
			},
		},
	}
}

func TestCreateRubric_InvalidTotalIs400WithReason(t *testing.T) {
	app := newTestApp()

	body := rubricDocBody()
	body["rubric"].(map[string]any)["total_points"] = 90
	rec := app.do(t, "prof-1", "professor", http.MethodPost, "/rubrics", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[map[string]string](t, rec)
	assert.Contains(t, resp["error"], "sum to 100")
}

func TestValidateRubric_DryRunReportsWithoutPersisting(t *testing.T) {
	app := newTestApp()

	body := rubricDocBody()
	body["rubric"].(map[string]any)["total_points"] = 90
	rec := app.do(t, "prof-1", "professor", http.MethodPost, "/rubrics/validate", body)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[map[string]any](t, rec)
	assert.Equal(t, false, resp["valid"])

	list := app.do(t, "prof-1", "professor", http.MethodGet, "/rubrics", nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Empty(t, decodeBody[[]rubric.Rubric](t, list))
}

func TestRubric_OwnershipOverHTTP(t *testing.T) {
	app := newTestApp()

	created := app.do(t, "prof-1", "professor", http.MethodPost, "/rubrics", rubricDocBody())
	require.Equal(t, http.StatusCreated, created.Code)
	doc := decodeBody[rubric.Document](t, created)

	assert.Equal(t, http.StatusNotFound,
		app.do(t, "prof-2", "professor", http.MethodGet, "/rubrics/absent", nil).Code)
	assert.Equal(t, http.StatusForbidden,
		app.do(t, "prof-2", "professor", http.MethodGet, "/rubrics/"+doc.Rubric.ID, nil).Code)
	assert.Equal(t, http.StatusOK,
		app.do(t, "root", "admin", http.MethodGet, "/rubrics/"+doc.Rubric.ID, nil).Code)
}

// setupAssignment walks the professor flow up to a published
// assignment with an enrolled student, returning the assignment ID.
func setupAssignment(t *testing.T, app *testApp, maxSubmissions int) string {
	t.Helper()
	created := app.do(t, "prof-1", "professor", http.MethodPost, "/rubrics", rubricDocBody())
	require.Equal(t, http.StatusCreated, created.Code)
	doc := decodeBody[rubric.Document](t, created)

	c := decodeBody[course.Course](t, app.do(t, "prof-1", "professor", http.MethodPost, "/courses",
		map[string]string{"name": "CS101"}))

	a := decodeBody[course.Assignment](t, app.do(t, "prof-1", "professor", http.MethodPost,
		"/courses/"+c.ID+"/assignments", map[string]any{
			"title":           "Lab 1",
			"due_date":        time.Now().Add(48 * time.Hour).Format(time.RFC3339),
			"max_submissions": maxSubmissions,
		}))
	require.NotEmpty(t, a.ID)

	require.Equal(t, http.StatusOK, app.do(t, "prof-1", "professor", http.MethodPost,
		"/assignments/"+a.ID+"/rubric", map[string]string{"rubric_id": doc.Rubric.ID}).Code)
	require.Equal(t, http.StatusOK, app.do(t, "prof-1", "professor", http.MethodPost,
		"/assignments/"+a.ID+"/publish", nil).Code)
	require.Equal(t, http.StatusOK, app.do(t, "prof-1", "professor", http.MethodPost,
		"/courses/"+c.ID+"/enroll", map[string]string{"student_id": "stu-1"}).Code)
	return a.ID
}

func TestSubmitAndGradeFlow(t *testing.T) {
	app := newTestApp()
	assignmentID := setupAssignment(t, app, 2)

	submitted := app.do(t, "stu-1", "student", http.MethodPost,
		"/assignments/"+assignmentID+"/submissions",
		map[string]string{"github_repo_url": "https://github.com/stu-1/lab1"})
	require.Equal(t, http.StatusCreated, submitted.Code)
	sub := decodeBody[submission.Submission](t, submitted)
	assert.Equal(t, submission.StatusPending, sub.Status)
	assert.Equal(t, 1, sub.AttemptNumber)

	// Pipeline walks the lifecycle, then posts the grade.
	for _, st := range []submission.Status{
		submission.StatusCloning, submission.StatusTesting,
		submission.StatusAnalyzing, submission.StatusGrading,
	} {
		rec := app.graderDo(t, graderToken, "/grader/submissions/"+sub.ID+"/status",
			map[string]string{"status": string(st)})
		require.Equal(t, http.StatusOK, rec.Code, "transition to %s", st)
	}

	doc, err := app.rubrics.Load(context.Background(), mustRubricID(t, app))
	require.NoError(t, err)
	graded := app.graderDo(t, graderToken, "/grader/submissions/"+sub.ID+"/grade", map[string]any{
		"outcomes": []map[string]any{
			{"criterion_id": doc.Criteria[0].ID, "points_awarded": 55},
			{"criterion_id": doc.Criteria[1].ID, "points_awarded": 30},
		},
		"build_success": true,
	})
	require.Equal(t, http.StatusOK, graded.Code)
	resp := decodeBody[struct {
		Submission submission.Submission `json:"submission"`
		Result     struct {
			TotalScore  float64 `json:"total_score"`
			Percentage  float64 `json:"percentage"`
			Passed      bool    `json:"passed"`
			LetterGrade string  `json:"letter_grade"`
		} `json:"result"`
	}](t, graded)
	assert.Equal(t, submission.StatusCompleted, resp.Submission.Status)
	assert.Equal(t, 85.0, resp.Result.TotalScore)
	assert.Equal(t, 85.0, resp.Result.Percentage)
	assert.True(t, resp.Result.Passed)
	assert.Equal(t, "B", resp.Result.LetterGrade)

	// A completed submission refuses a second grade.
	again := app.graderDo(t, graderToken, "/grader/submissions/"+sub.ID+"/grade", map[string]any{
		"outcomes": []map[string]any{{"criterion_id": doc.Criteria[0].ID, "points_awarded": 10}},
	})
	assert.Equal(t, http.StatusConflict, again.Code)
}

func TestSubmit_LimitIs422WithReason(t *testing.T) {
	app := newTestApp()
	assignmentID := setupAssignment(t, app, 1)

	body := map[string]string{"github_repo_url": "https://github.com/stu-1/lab1"}
	require.Equal(t, http.StatusCreated, app.do(t, "stu-1", "student", http.MethodPost,
		"/assignments/"+assignmentID+"/submissions", body).Code)

	rec := app.do(t, "stu-1", "student", http.MethodPost,
		"/assignments/"+assignmentID+"/submissions", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "submission limit reached (1 attempts)", resp["error"])
}

func TestSubmit_NotEnrolledIs422(t *testing.T) {
	app := newTestApp()
	assignmentID := setupAssignment(t, app, 1)

	rec := app.do(t, "stu-2", "student", http.MethodPost,
		"/assignments/"+assignmentID+"/submissions",
		map[string]string{"github_repo_url": "https://github.com/stu-2/lab1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "student is not enrolled in this course", resp["error"])
}

func TestGetSubmission_StudentSeesOwnOnly(t *testing.T) {
	app := newTestApp()
	assignmentID := setupAssignment(t, app, 1)

	sub := decodeBody[submission.Submission](t, app.do(t, "stu-1", "student", http.MethodPost,
		"/assignments/"+assignmentID+"/submissions",
		map[string]string{"github_repo_url": "https://github.com/stu-1/lab1"}))

	assert.Equal(t, http.StatusOK,
		app.do(t, "stu-1", "student", http.MethodGet, "/submissions/"+sub.ID, nil).Code)
	assert.Equal(t, http.StatusForbidden,
		app.do(t, "stu-2", "student", http.MethodGet, "/submissions/"+sub.ID, nil).Code)
	assert.Equal(t, http.StatusOK,
		app.do(t, "prof-1", "professor", http.MethodGet, "/submissions/"+sub.ID, nil).Code)
}

func TestGraderAuth_RejectsBadToken(t *testing.T) {
	app := newTestApp()
	rec := app.graderDo(t, "wrong", "/grader/submissions/x/status",
		map[string]string{"status": "CLONING"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProgress_TerminalStatusNotReportable(t *testing.T) {
	app := newTestApp()
	assignmentID := setupAssignment(t, app, 1)
	sub := decodeBody[submission.Submission](t, app.do(t, "stu-1", "student", http.MethodPost,
		"/assignments/"+assignmentID+"/submissions",
		map[string]string{"github_repo_url": "https://github.com/stu-1/lab1"}))

	rec := app.graderDo(t, graderToken, "/grader/submissions/"+sub.ID+"/status",
		map[string]string{"status": "COMPLETED"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func mustRubricID(t *testing.T, app *testApp) string {
	t.Helper()
	list, err := app.rubrics.List(context.Background(), "prof-1", "professor", 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	return list[0].ID
}
