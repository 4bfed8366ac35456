package middleware_test

import (
	"context"
	"sort"
	"time"

	"github.com/aretw0/circuitry/pkg/domain"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]*domain.Document
	err  error
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Document),
	}
}

func (s *MockStore) Save(ctx context.Context, key string, doc *domain.Document) error {
	if s.err != nil {
		return s.err
	}
	s.data[key] = doc.Clone()
	return nil
}

func (s *MockStore) Load(ctx context.Context, key string) (*domain.Document, error) {
	doc, ok := s.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *MockStore) Delete(ctx context.Context, key string) error {
	delete(s.data, key)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

type observed struct {
	op  string
	err error
}

type recorder struct {
	calls []observed
}

func (r *recorder) ObserveStore(op string, d time.Duration, err error) {
	r.calls = append(r.calls, observed{op: op, err: err})
}
