// Package grading turns per-criterion evaluation outcomes, produced by
// the external grading pipeline, into a submission-level score. It
// never runs tests or calls a model itself.
package grading

import (
	"github.com/repograder/repograder/internal/apperr"
	"github.com/repograder/repograder/internal/rubric"
)

// Outcome is one criterion's awarded points as reported by the grading
// pipeline.
type Outcome struct {
	CriterionID   string  `json:"criterion_id"`
	PointsAwarded float64 `json:"points_awarded"`
}

// Result is the aggregated submission score.
type Result struct {
	TotalScore  float64 `json:"total_score"`
	MaxScore    float64 `json:"max_score"`
	Percentage  float64 `json:"percentage"`
	Passed      bool    `json:"passed"`
	LetterGrade string  `json:"letter_grade"`
}

// ScoreSubmission combines outcomes into a rubric-level score. The
// stored rubric is re-checked against its point-total invariant first:
// a mismatch at read time means the data was corrupted upstream, and
// the computation fails loudly rather than guessing a score. Awards
// are clamped to [0, criterion max]; criteria without an outcome score
// zero. Pass/fail compares earned points against the passing grade,
// and the letter grade is a pure banding of the percentage.
func ScoreSubmission(doc rubric.Document, outcomes []Outcome) (Result, error) {
	if sum := doc.PointSum(); sum != doc.Rubric.TotalPoints {
		return Result{}, apperr.Internal("rubric invariant violated", apperr.Invalid(
			"rubric %s: stored criteria sum to %d but total_points is %d",
			doc.Rubric.ID, sum, doc.Rubric.TotalPoints))
	}

	byID := make(map[string]rubric.Criterion, len(doc.Criteria))
	for _, c := range doc.Criteria {
		byID[c.ID] = c
	}

	total := 0.0
	for _, o := range outcomes {
		c, ok := byID[o.CriterionID]
		if !ok {
			return Result{}, apperr.Internal("rubric invariant violated", apperr.Invalid(
				"outcome references unknown criterion %s", o.CriterionID))
		}
		pts := o.PointsAwarded
		if pts < 0 {
			pts = 0
		}
		if max := float64(c.MaxPoints); pts > max {
			pts = max
		}
		total += pts
	}

	max := float64(doc.Rubric.TotalPoints)
	pct := 100 * total / max
	return Result{
		TotalScore:  total,
		MaxScore:    max,
		Percentage:  pct,
		Passed:      total >= float64(doc.Rubric.PassingGrade),
		LetterGrade: LetterGrade(pct),
	}, nil
}

// BlendHybrid combines the two halves of a hybrid criterion's
// evaluation into a single award using the criterion's declared
// weights. Validation guarantees the weights sum to 1.0.
func BlendHybrid(c rubric.Criterion, unitTestPoints, gptPoints float64) float64 {
	return unitTestPoints*c.UnitTestWeight + gptPoints*c.GPTWeight
}
