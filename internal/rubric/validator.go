package rubric

import (
	"fmt"
	"strings"

	"github.com/repograder/repograder/internal/apperr"
)

// Validate checks a candidate rubric document in three ordered phases:
// structural fields, evaluation methods, then the point total. Each
// phase scans every criterion and reports the first violation it finds;
// a later-phase violation is never reported while an earlier phase
// fails. Pure and idempotent: validating the same document twice gives
// the same answer and touches nothing.
func Validate(doc *Document) error {
	if err := validateStructure(doc); err != nil {
		return err
	}
	if err := validateMethods(doc); err != nil {
		return err
	}
	return validatePointTotal(doc)
}

func validateStructure(doc *Document) error {
	if doc == nil {
		return apperr.Invalid("invalid rubric: document is empty")
	}
	if len(doc.Criteria) == 0 {
		return apperr.Invalid("invalid rubric: criteria list is empty")
	}
	r := doc.Rubric
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Invalid("invalid rubric: name is required")
	}
	if r.TotalPoints <= 0 {
		return apperr.Invalid("invalid rubric: total_points must be greater than 0")
	}
	if r.PassingGrade < 0 || r.PassingGrade > r.TotalPoints {
		return apperr.Invalid("invalid rubric: passing_grade must be between 0 and total_points (%d)", r.TotalPoints)
	}
	for i, c := range doc.Criteria {
		if strings.TrimSpace(c.Title) == "" {
			return apperr.Invalid("invalid rubric: criterion %s: title is required", criterionRef(c, i))
		}
		if c.MaxPoints <= 0 {
			return apperr.Invalid("invalid rubric: criterion %s: max_points must be greater than 0", criterionRef(c, i))
		}
		if strings.TrimSpace(c.EvaluationMethod) == "" {
			return apperr.Invalid("invalid rubric: criterion %s: evaluation_method is required", criterionRef(c, i))
		}
		if strings.TrimSpace(c.GPTInstructions) == "" {
			return apperr.Invalid("invalid rubric: criterion %s: gpt_instructions is required", criterionRef(c, i))
		}
		if len(c.Levels) == 0 {
			return apperr.Invalid("invalid rubric: criterion %s: levels must not be empty", criterionRef(c, i))
		}
	}
	return nil
}

func validateMethods(doc *Document) error {
	for i, c := range doc.Criteria {
		switch c.EvaluationMethod {
		case MethodUnitTest, MethodGPTSemantic:
		case MethodHybrid:
			// Missing weights count as 0 before summing.
			if c.UnitTestWeight+c.GPTWeight != 1.0 {
				return apperr.Invalid("invalid rubric: criterion %s: unit_test_weight and gpt_weight must sum to 1.0", criterionRef(c, i))
			}
		default:
			return apperr.Invalid("invalid rubric: criterion %s: unknown evaluation_method %q", criterionRef(c, i), c.EvaluationMethod)
		}
	}
	return nil
}

func validatePointTotal(doc *Document) error {
	sum := doc.PointSum()
	if sum != doc.Rubric.TotalPoints {
		return apperr.Invalid("invalid rubric: criteria points sum to %d but total_points is %d", sum, doc.Rubric.TotalPoints)
	}
	return nil
}

// criterionRef names a criterion for error messages: by title when it
// has one, by zero-based index otherwise.
func criterionRef(c Criterion, idx int) string {
	if strings.TrimSpace(c.Title) != "" {
		return fmt.Sprintf("%q", c.Title)
	}
	return fmt.Sprintf("#%d", idx)
}
