package rubric

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repograder/repograder/internal/apperr"
)

func validDoc() Document {
	return Document{
		Rubric: Rubric{
			Name:         "Project 1",
			TotalPoints:  100,
			PassingGrade: 60,
		},
		Criteria: []Criterion{
			{
				Title:            "Correctness",
				MaxPoints:        60,
				EvaluationMethod: MethodUnitTest,
				GPTInstructions:  "Check that all tests pass.",
				Levels:           map[string]string{"full": "all tests pass"},
			},
			{
				Title:            "Code quality",
				MaxPoints:        40,
				EvaluationMethod: MethodGPTSemantic,
				GPTInstructions:  "Judge readability and structure.",
				Levels:           map[string]string{"full": "clean, idiomatic code"},
			},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	doc := validDoc()
	require.NoError(t, Validate(&doc))
	// Idempotent: same document, same answer, nothing mutated.
	require.NoError(t, Validate(&doc))
}

func TestValidate_Structural(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
		want   string
	}{
		{"no criteria", func(d *Document) { d.Criteria = nil }, "criteria list is empty"},
		{"empty name", func(d *Document) { d.Rubric.Name = " " }, "name is required"},
		{"zero total", func(d *Document) { d.Rubric.TotalPoints = 0 }, "total_points must be greater than 0"},
		{"negative passing grade", func(d *Document) { d.Rubric.PassingGrade = -1 }, "passing_grade must be between 0 and total_points"},
		{"passing grade above total", func(d *Document) { d.Rubric.PassingGrade = 101 }, "passing_grade must be between 0 and total_points"},
		{"missing title", func(d *Document) { d.Criteria[1].Title = "" }, `criterion #1: title is required`},
		{"zero max points", func(d *Document) { d.Criteria[0].MaxPoints = 0 }, `criterion "Correctness": max_points must be greater than 0`},
		{"missing method", func(d *Document) { d.Criteria[0].EvaluationMethod = "" }, `criterion "Correctness": evaluation_method is required`},
		{"missing instructions", func(d *Document) { d.Criteria[1].GPTInstructions = "" }, `criterion "Code quality": gpt_instructions is required`},
		{"empty levels", func(d *Document) { d.Criteria[0].Levels = nil }, `criterion "Correctness": levels must not be empty`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDoc()
			tt.mutate(&doc)
			err := Validate(&doc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrInvalid), "want invalid category, got %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_EvaluationMethod(t *testing.T) {
	t.Run("unknown method", func(t *testing.T) {
		doc := validDoc()
		doc.Criteria[0].EvaluationMethod = "manual"
		err := Validate(&doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown evaluation_method "manual"`)
	})

	t.Run("hybrid weights must sum to one", func(t *testing.T) {
		doc := validDoc()
		doc.Criteria[0].EvaluationMethod = MethodHybrid
		doc.Criteria[0].UnitTestWeight = 0.5
		doc.Criteria[0].GPTWeight = 0.4
		err := Validate(&doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must sum to 1.0")
	})

	t.Run("hybrid with missing weight treats it as zero", func(t *testing.T) {
		doc := validDoc()
		doc.Criteria[0].EvaluationMethod = MethodHybrid
		doc.Criteria[0].UnitTestWeight = 1.0
		require.NoError(t, Validate(&doc))

		doc.Criteria[0].UnitTestWeight = 0.7
		doc.Criteria[0].GPTWeight = 0.3
		require.NoError(t, Validate(&doc))
	})
}

func TestValidate_PointTotal(t *testing.T) {
	doc := validDoc()
	doc.Criteria[1].MaxPoints = 30 // 60 + 30 vs declared 100
	err := Validate(&doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 90")
	assert.Contains(t, err.Error(), "total_points is 100")
}

func TestValidate_PhaseOrder(t *testing.T) {
	// A phase-1 violation on a later criterion wins over a phase-2
	// violation on an earlier one, and both win over the point total.
	doc := validDoc()
	doc.Criteria[0].EvaluationMethod = "bogus" // phase 2
	doc.Criteria[1].Title = ""                 // phase 1
	doc.Criteria[1].MaxPoints = 1              // phase 3 would also fail

	err := Validate(&doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")

	doc.Criteria[1].Title = "Code quality"
	err = Validate(&doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown evaluation_method")

	doc.Criteria[0].EvaluationMethod = MethodUnitTest
	err = Validate(&doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 61")
}

func TestNormalize_Defaults(t *testing.T) {
	doc := validDoc()
	doc.Normalize()
	require.NotNil(t, doc.Criteria[0].Weight)
	assert.Equal(t, 1.0, *doc.Criteria[0].Weight)
	require.NotNil(t, doc.Criteria[0].Order)
	assert.Equal(t, 0, *doc.Criteria[0].Order)
	assert.Equal(t, 1, *doc.Criteria[1].Order)
}

func TestNormalize_KeepsExplicitZeros(t *testing.T) {
	doc := validDoc()
	zeroW := 0.0
	zeroOrd := 0
	// A zero weight and an order of 0 on the second criterion are
	// deliberate values, not absences.
	doc.Criteria[1].Weight = &zeroW
	doc.Criteria[1].Order = &zeroOrd

	doc.Normalize()
	require.NotNil(t, doc.Criteria[1].Weight)
	assert.Equal(t, 0.0, *doc.Criteria[1].Weight)
	require.NotNil(t, doc.Criteria[1].Order)
	assert.Equal(t, 0, *doc.Criteria[1].Order, "explicit order 0 must not be rewritten to the array index")

	// The first criterion supplied neither field and still gets defaults.
	assert.Equal(t, 1.0, *doc.Criteria[0].Weight)
	assert.Equal(t, 0, *doc.Criteria[0].Order)
}

func TestNormalize_DecodedAbsenceVsExplicitZero(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{
		"rubric": {"name": "P1", "total_points": 100, "passing_grade": 60},
		"criteria": [
			{"title": "A", "max_points": 60, "evaluation_method": "unit_test",
			 "gpt_instructions": "x", "levels": {"full": "y"}},
			{"title": "B", "max_points": 40, "evaluation_method": "unit_test",
			 "gpt_instructions": "x", "levels": {"full": "y"},
			 "weight": 0, "order": 0}
		]
	}`), &doc))

	doc.Normalize()
	assert.Equal(t, 1.0, *doc.Criteria[0].Weight)
	assert.Equal(t, 0, *doc.Criteria[0].Order)
	assert.Equal(t, 0.0, *doc.Criteria[1].Weight)
	assert.Equal(t, 0, *doc.Criteria[1].Order)
}
