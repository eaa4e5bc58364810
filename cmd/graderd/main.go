package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/repograder/repograder/internal/api/http"
	auth "github.com/repograder/repograder/internal/auth/middleware"
	"github.com/repograder/repograder/internal/config"
	"github.com/repograder/repograder/internal/course"
	"github.com/repograder/repograder/internal/db"
	"github.com/repograder/repograder/internal/rbac"
	"github.com/repograder/repograder/internal/rubric"
	"github.com/repograder/repograder/internal/stats"
	"github.com/repograder/repograder/internal/submission"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		logger.Error("db open failed", "err", err)
		os.Exit(1)
	}
	if err := seedAdmin(ctx, dbh, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		logger.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	// --- Services ---
	rubricSvc := rubric.NewService(rubric.NewSQLStore(dbh))
	courseStore := course.NewSQLStore(dbh)
	courseSvc := course.NewService(courseStore, rubricSvc)
	submissionSvc := submission.NewService(submission.NewSQLStore(dbh), courseStore)
	statsRows := stats.NewSQLRows(dbh)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → subject+role in context → DB role → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.Mode == config.ModeDev))

		// Rubrics (professor/admin)
		pr.With(rbac.Require("rubric:create")).
			Post("/rubrics", api.CreateRubricHandler(rubricSvc))
		pr.With(rbac.Require("rubric:create")).
			Post("/rubrics/direct", api.CreateRubricDirectHandler(rubricSvc))
		pr.With(rbac.Require("rubric:validate")).
			Post("/rubrics/validate", api.ValidateRubricHandler())
		pr.With(rbac.Require("rubric:view")).
			Get("/rubrics", api.ListRubricsHandler(rubricSvc))
		pr.With(rbac.Require("rubric:view")).
			Get("/rubrics/{rubricID}", api.GetRubricHandler(rubricSvc))
		pr.With(rbac.Require("rubric:update")).
			Patch("/rubrics/{rubricID}", api.UpdateRubricHandler(rubricSvc))
		pr.With(rbac.Require("rubric:delete")).
			Delete("/rubrics/{rubricID}", api.DeleteRubricHandler(rubricSvc))

		// Courses and assignments
		pr.With(rbac.Require("course:create")).
			Post("/courses", api.CreateCourseHandler(courseSvc))
		pr.With(rbac.Require("course:view")).
			Get("/courses", api.ListCoursesHandler(courseSvc))
		pr.With(rbac.Require("course:view")).
			Get("/courses/{courseID}", api.GetCourseHandler(courseSvc))
		pr.With(rbac.Require("course:enroll")).
			Post("/courses/{courseID}/enroll", api.EnrollStudentHandler(courseSvc))
		pr.With(rbac.Require("assignment:create")).
			Post("/courses/{courseID}/assignments", api.CreateAssignmentHandler(courseSvc))
		pr.With(rbac.Require("assignment:view")).
			Get("/courses/{courseID}/assignments", api.ListAssignmentsHandler(courseSvc))
		pr.With(rbac.Require("assignment:view")).
			Get("/assignments/{assignmentID}", api.GetAssignmentHandler(courseSvc))
		pr.With(rbac.Require("assignment:publish")).
			Post("/assignments/{assignmentID}/publish", api.PublishAssignmentHandler(courseSvc))
		pr.With(rbac.Require("assignment:attach-rubric")).
			Post("/assignments/{assignmentID}/rubric", api.AttachRubricHandler(courseSvc))

		// Submissions
		pr.With(rbac.Require("submission:create")).
			Post("/assignments/{assignmentID}/submissions", api.SubmitHandler(submissionSvc))
		pr.With(rbac.Require("submission:view-all")).
			Get("/assignments/{assignmentID}/submissions", api.ListAssignmentSubmissionsHandler(submissionSvc))
		pr.With(rbac.Require("submission:view-own")).
			Get("/submissions", api.ListOwnSubmissionsHandler(submissionSvc))
		pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).
			Get("/submissions/{submissionID}", api.GetSubmissionHandler(submissionSvc))

		// Dashboards
		pr.With(rbac.Require("dashboard:professor")).
			Get("/dashboard/professor", api.ProfessorDashboardHandler(statsRows))
		pr.With(rbac.Require("dashboard:student")).
			Get("/dashboard/student", api.StudentDashboardHandler(statsRows))
		pr.With(rbac.Require("dashboard:student")).
			Get("/dashboard/deadlines", api.DeadlinesHandler(statsRows))
		pr.With(rbac.RequireAny("dashboard:student", "dashboard:professor")).
			Get("/dashboard/recent", api.RecentSubmissionsHandler(statsRows))

		// Users (admin)
		pr.With(rbac.Require("users:manage")).
			Post("/admin/users", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:manage")).
			Get("/admin/users", api.ListUsersHandler(dbh))
	})

	// Grading pipeline callbacks (shared-token auth, no user context)
	r.Group(func(gr chi.Router) {
		gr.Use(api.GraderAuth(cfg.GraderToken))
		gr.Post("/grader/submissions/{submissionID}/status", api.ProgressHandler(submissionSvc))
		gr.Post("/grader/submissions/{submissionID}/grade", api.GradeHandler(submissionSvc, courseSvc, rubricSvc))
		gr.Post("/grader/submissions/{submissionID}/fail", api.FailHandler(submissionSvc))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	logger.Info("graderd listening", "addr", cfg.HTTPAddr, "mode", string(cfg.Mode), "driver", cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

// seedAdmin inserts the bootstrap admin account when a password hash
// is configured and the username is not taken.
func seedAdmin(ctx context.Context, dbh *sql.DB, user, passHash string) error {
	if user == "" || passHash == "" {
		return nil
	}
	_, err := dbh.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at)
		 VALUES ($1, $1, $2, 'admin', $3)
		 ON CONFLICT DO NOTHING`,
		user, passHash, time.Now().Unix())
	return err
}
