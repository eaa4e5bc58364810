package rubric

// Evaluation methods a criterion may declare.
const (
	MethodUnitTest    = "unit_test"
	MethodGPTSemantic = "gpt_semantic"
	MethodHybrid      = "hybrid"
)

type Rubric struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	TotalPoints  int               `json:"total_points"`
	PassingGrade int               `json:"passing_grade"`
	Metadata     map[string]string `json:"metadata,omitempty"`

	CreatedBy string `json:"created_by,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

type Criterion struct {
	ID        string `json:"id"`
	RubricID  string `json:"rubric_id,omitempty"`
	Title     string `json:"title"`
	MaxPoints int    `json:"max_points"`
	// Weight and Order are pointers so an absent field is
	// distinguishable from an explicit zero: Normalize fills defaults
	// only when nil and leaves deliberate zeros alone.
	Weight           *float64          `json:"weight,omitempty"` // relative importance in external roll-ups; defaults to 1.0
	Order            *int              `json:"order,omitempty"`  // display/processing order; defaults to array index
	EvaluationMethod string            `json:"evaluation_method"`
	UnitTestWeight   float64           `json:"unit_test_weight,omitempty"` // hybrid only
	GPTWeight        float64           `json:"gpt_weight,omitempty"`       // hybrid only
	GPTInstructions  string            `json:"gpt_instructions"`
	FilesToAnalyze   []string          `json:"files_to_analyze,omitempty"`
	Levels           map[string]string `json:"levels"` // rubric bands, opaque here
}

// Document is a rubric plus its criteria as one unit, the shape the
// validator checks and the store persists atomically.
type Document struct {
	Rubric   Rubric      `json:"rubric"`
	Criteria []Criterion `json:"criteria"`
}

// Normalize fills per-criterion defaults: weight 1.0 and display order
// from array position when the field was not supplied at all. An
// explicit zero in either field is a value, not an absence, and stays.
func (d *Document) Normalize() {
	for i := range d.Criteria {
		if d.Criteria[i].Weight == nil {
			w := 1.0
			d.Criteria[i].Weight = &w
		}
		if d.Criteria[i].Order == nil {
			ord := i
			d.Criteria[i].Order = &ord
		}
	}
}

// PointSum is the computed total of criterion max points, compared
// against Rubric.TotalPoints by the validator and again at read time by
// the score aggregator.
func (d *Document) PointSum() int {
	sum := 0
	for _, c := range d.Criteria {
		sum += c.MaxPoints
	}
	return sum
}
