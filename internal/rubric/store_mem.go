package rubric

import (
	"context"
	"sort"
	"sync"

	"github.com/repograder/repograder/internal/apperr"
)

// memoryStore backs tests and offline runs without a database. The
// attached set is fed by the assignment side when it links a rubric.
type memoryStore struct {
	mu       sync.RWMutex
	docs     map[string]Document
	attached map[string]bool
}

func NewInMemoryStore() *memoryStore {
	return &memoryStore{
		docs:     map[string]Document{},
		attached: map[string]bool{},
	}
}

func (m *memoryStore) PutDocument(_ context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.Rubric.ID] = cloneDoc(doc)
	return nil
}

func (m *memoryStore) GetDocument(_ context.Context, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return Document{}, apperr.NotFound("rubric %s not found", id)
	}
	return cloneDoc(doc), nil
}

func (m *memoryStore) ReplaceDocument(_ context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.Rubric.ID]; !ok {
		return apperr.NotFound("rubric %s not found", doc.Rubric.ID)
	}
	m.docs[doc.Rubric.ID] = cloneDoc(doc)
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return apperr.NotFound("rubric %s not found", id)
	}
	delete(m.docs, id)
	return nil
}

func (m *memoryStore) IsAttached(_ context.Context, rubricID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attached[rubricID], nil
}

// SetAttached records the assignment-side link for tests and the
// in-memory wiring.
func (m *memoryStore) SetAttached(rubricID string, attached bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attached[rubricID] = attached
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Rubric, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Rubric, 0, len(m.docs))
	for _, doc := range m.docs {
		if opts.CreatedBy != "" && doc.Rubric.CreatedBy != opts.CreatedBy {
			continue
		}
		out = append(out, doc.Rubric)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func cloneDoc(doc Document) Document {
	out := doc
	out.Criteria = append([]Criterion(nil), doc.Criteria...)
	for i := range out.Criteria {
		if w := out.Criteria[i].Weight; w != nil {
			v := *w
			out.Criteria[i].Weight = &v
		}
		if o := out.Criteria[i].Order; o != nil {
			v := *o
			out.Criteria[i].Order = &v
		}
	}
	if doc.Rubric.Metadata != nil {
		out.Rubric.Metadata = make(map[string]string, len(doc.Rubric.Metadata))
		for k, v := range doc.Rubric.Metadata {
			out.Rubric.Metadata[k] = v
		}
	}
	return out
}
