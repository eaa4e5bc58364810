package rubric

import "context"

type ListOpts struct {
	CreatedBy string
	Limit     int
	Offset    int
}

// Store persists rubric documents. PutDocument and ReplaceDocument are
// atomic: rubric row and criteria land together or not at all, so a
// stored rubric can never violate the point-total invariant through a
// half-applied write. IsAttached is the one-way back-reference read
// used to freeze rubrics that an assignment already relies on.
type Store interface {
	PutDocument(ctx context.Context, doc Document) error
	GetDocument(ctx context.Context, id string) (Document, error)
	ReplaceDocument(ctx context.Context, doc Document) error
	Delete(ctx context.Context, id string) error
	IsAttached(ctx context.Context, rubricID string) (bool, error)
	List(ctx context.Context, opts ListOpts) ([]Rubric, error)
}
