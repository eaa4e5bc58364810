package stats

import (
	"math"
	"sort"
	"time"
)

type Deadline struct {
	AssignmentID         string    `json:"assignment_id"`
	CourseID             string    `json:"course_id"`
	Title                string    `json:"title"`
	DueDate              time.Time `json:"due_date"`
	DaysRemaining        int       `json:"days_remaining"` // negative for late-but-still-open
	AllowLateSubmissions bool      `json:"allow_late_submissions"`
	Submitted            bool      `json:"submitted"`
	AttemptCount         int       `json:"attempt_count"`
	BestPercentage       *float64  `json:"best_percentage"` // highest graded attempt, nil if none
}

// UpcomingDeadlines selects the student's still-open published
// assignments (due date not yet passed, or past due with late
// submissions allowed), ordered by due date ascending, capped at limit.
func UpcomingDeadlines(assignments []AssignmentRow, submissions []SubmissionRow, now time.Time, limit int) []Deadline {
	attempts := map[string]int{}
	best := map[string]*float64{}
	for _, s := range submissions {
		attempts[s.AssignmentID]++
		if s.Percentage == nil {
			continue
		}
		if cur := best[s.AssignmentID]; cur == nil || *s.Percentage > *cur {
			p := *s.Percentage
			best[s.AssignmentID] = &p
		}
	}

	out := make([]Deadline, 0, limit)
	for _, a := range assignments {
		if !a.IsPublished {
			continue
		}
		// Still open means the gate would admit: not yet strictly past
		// due, or late submissions allowed.
		if a.DueDate.Before(now) && !a.AllowLateSubmissions {
			continue
		}
		out = append(out, Deadline{
			AssignmentID:         a.AssignmentID,
			CourseID:             a.CourseID,
			Title:                a.Title,
			DueDate:              a.DueDate,
			DaysRemaining:        daysRemaining(a.DueDate, now),
			AllowLateSubmissions: a.AllowLateSubmissions,
			Submitted:            attempts[a.AssignmentID] > 0,
			AttemptCount:         attempts[a.AssignmentID],
			BestPercentage:       best[a.AssignmentID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// daysRemaining is ceil((due-now)/24h); negative once the deadline has
// passed.
func daysRemaining(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}
