package stats

// CourseStats is the per-course block of the professor dashboard.
type CourseStats struct {
	CourseID        string `json:"course_id"`
	Name            string `json:"name"`
	StudentCount    int    `json:"student_count"`
	AssignmentCount int    `json:"assignment_count"`
	SubmissionCount int    `json:"submission_count"`
	PendingCount    int    `json:"pending_count"`
}

type ProfessorOverview struct {
	TotalCourses  int           `json:"total_courses"`
	ActiveCourses int           `json:"active_courses"`
	Courses       []CourseStats `json:"courses"`
	AverageGrade  *float64      `json:"average_grade"` // nil when nothing is graded yet
}

// BuildProfessorOverview aggregates a professor's courses, assignments
// and submissions. "Pending" counts every submission whose status is
// not yet terminal.
func BuildProfessorOverview(courses []CourseRow, assignments []AssignmentRow, submissions []SubmissionRow) ProfessorOverview {
	out := ProfessorOverview{
		TotalCourses: len(courses),
		Courses:      make([]CourseStats, 0, len(courses)),
	}

	byCourse := make(map[string]*CourseStats, len(courses))
	for _, c := range courses {
		if c.IsActive {
			out.ActiveCourses++
		}
		out.Courses = append(out.Courses, CourseStats{
			CourseID:     c.CourseID,
			Name:         c.Name,
			StudentCount: c.StudentCount,
		})
		byCourse[c.CourseID] = &out.Courses[len(out.Courses)-1]
	}
	for _, a := range assignments {
		if cs := byCourse[a.CourseID]; cs != nil {
			cs.AssignmentCount++
		}
	}
	for _, s := range submissions {
		cs := byCourse[s.CourseID]
		if cs == nil {
			continue
		}
		cs.SubmissionCount++
		if !s.Status.Terminal() {
			cs.PendingCount++
		}
	}
	out.AverageGrade = averageGrade(submissions)
	return out
}
