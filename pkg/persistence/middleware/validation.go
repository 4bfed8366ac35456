package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/circuitry/pkg/domain"
	"github.com/aretw0/circuitry/pkg/ports"
)

type validationMiddleware struct {
	next ports.DocumentStore
	reg  domain.Registry
}

// NewValidationMiddleware refuses to save documents that do not load against
// reg, so a store never holds a circuit that cannot be reopened.
func NewValidationMiddleware(reg domain.Registry) Middleware {
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &validationMiddleware{next: next, reg: reg}
	}
}

func (m *validationMiddleware) Save(ctx context.Context, key string, doc *domain.Document) error {
	if _, err := domain.FromDocument(doc, m.reg); err != nil {
		return fmt.Errorf("refusing to save %q: %w", key, err)
	}
	return m.next.Save(ctx, key, doc)
}

func (m *validationMiddleware) Load(ctx context.Context, key string) (*domain.Document, error) {
	return m.next.Load(ctx, key)
}

func (m *validationMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *validationMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
