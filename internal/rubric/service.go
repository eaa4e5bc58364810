package rubric

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/repograder/repograder/internal/apperr"
)

// Service wraps the validator with the create/update/delete workflows.
// Every path that can change rubric structure re-checks the invariants
// before anything is persisted; the grading side relies on stored
// rubrics unchecked.
type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

// Create validates and persists an uploaded rubric document. The
// document is stored atomically or not at all.
func (s *Service) Create(ctx context.Context, doc Document, createdBy string) (Document, error) {
	doc.Normalize()
	if err := Validate(&doc); err != nil {
		return Document{}, err
	}
	doc.Rubric.ID = uuid.NewString()
	doc.Rubric.CreatedBy = createdBy
	doc.Rubric.CreatedAt = time.Now().Unix()
	for i := range doc.Criteria {
		doc.Criteria[i].ID = uuid.NewString()
		doc.Criteria[i].RubricID = doc.Rubric.ID
	}
	if err := s.store.PutDocument(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// CreateDirect is the non-upload path: rubric and criteria arrive as
// separate arguments instead of a decoded document. It runs the exact
// same validation, so the point-total invariant cannot be bypassed by
// choosing this entry point.
func (s *Service) CreateDirect(ctx context.Context, r Rubric, criteria []Criterion, createdBy string) (Document, error) {
	return s.Create(ctx, Document{Rubric: r, Criteria: criteria}, createdBy)
}

func (s *Service) Get(ctx context.Context, id, actorID, role string) (Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return Document{}, err
	}
	// Not-found above comes first; only an existing rubric can be forbidden.
	if role != "admin" && doc.Rubric.CreatedBy != actorID {
		return Document{}, apperr.Forbidden("rubric %s: not owned by caller", id)
	}
	return doc, nil
}

// Load fetches a document without the ownership check. The grading
// pipeline is not an actor; it reads whatever rubric the assignment
// references.
func (s *Service) Load(ctx context.Context, id string) (Document, error) {
	return s.store.GetDocument(ctx, id)
}

// Exists reports whether a rubric is stored at all, without the
// ownership check. The course side needs only the fact when linking.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.store.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) List(ctx context.Context, actorID, role string, limit, offset int) ([]Rubric, error) {
	opts := ListOpts{Limit: limit, Offset: offset}
	if role != "admin" {
		opts.CreatedBy = actorID
	}
	return s.store.List(ctx, opts)
}

// UpdatePatch carries field-by-field changes; nil means "leave as is".
type UpdatePatch struct {
	Name         *string
	Description  *string
	TotalPoints  *int
	PassingGrade *int
	Metadata     map[string]string
	Criteria     []Criterion // full replacement when non-nil
}

// Update applies a patch to an unattached rubric. A rubric that is
// linked to an assignment rejects every structural update. The patched
// document is validated as a whole before any of it is written, so a
// TotalPoints change and a criteria change can only land together when
// they agree.
func (s *Service) Update(ctx context.Context, id string, patch UpdatePatch, actorID, role string) (Document, error) {
	doc, err := s.Get(ctx, id, actorID, role)
	if err != nil {
		return Document{}, err
	}
	attached, err := s.store.IsAttached(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if attached {
		return Document{}, apperr.Conflict("rubric is in use by an assignment and cannot be modified")
	}

	if patch.Name != nil {
		doc.Rubric.Name = *patch.Name
	}
	if patch.Description != nil {
		doc.Rubric.Description = *patch.Description
	}
	if patch.TotalPoints != nil {
		doc.Rubric.TotalPoints = *patch.TotalPoints
	}
	if patch.PassingGrade != nil {
		doc.Rubric.PassingGrade = *patch.PassingGrade
	}
	if patch.Metadata != nil {
		doc.Rubric.Metadata = patch.Metadata
	}
	if patch.Criteria != nil {
		doc.Criteria = patch.Criteria
		for i := range doc.Criteria {
			if doc.Criteria[i].ID == "" {
				doc.Criteria[i].ID = uuid.NewString()
			}
			doc.Criteria[i].RubricID = id
		}
	}
	doc.Normalize()
	if err := Validate(&doc); err != nil {
		return Document{}, err
	}

	// One atomic write for the whole document: a rubric row and its
	// criteria can never be persisted half-updated.
	if err := s.store.ReplaceDocument(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Delete removes an unattached rubric; criteria cascade with it.
func (s *Service) Delete(ctx context.Context, id, actorID, role string) error {
	if _, err := s.Get(ctx, id, actorID, role); err != nil {
		return err
	}
	attached, err := s.store.IsAttached(ctx, id)
	if err != nil {
		return err
	}
	if attached {
		return apperr.Conflict("rubric is in use by an assignment and cannot be deleted")
	}
	return s.store.Delete(ctx, id)
}
