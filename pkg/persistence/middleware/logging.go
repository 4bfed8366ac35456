package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/circuitry/pkg/domain"
	"github.com/aretw0/circuitry/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.DocumentStore
	logger *slog.Logger
}

// NewLoggingMiddleware logs writes at debug level and failures at warn level.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) Save(ctx context.Context, key string, doc *domain.Document) error {
	err := m.next.Save(ctx, key, doc)
	if err != nil {
		m.logger.Warn("Document save failed", "workspace", key, "err", err)
		return err
	}
	m.logger.Debug("Document saved", "workspace", key, "components", len(doc.Components))
	return nil
}

func (m *loggingMiddleware) Load(ctx context.Context, key string) (*domain.Document, error) {
	doc, err := m.next.Load(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		m.logger.Warn("Document load failed", "workspace", key, "err", err)
	}
	return doc, err
}

func (m *loggingMiddleware) Delete(ctx context.Context, key string) error {
	err := m.next.Delete(ctx, key)
	if err != nil {
		m.logger.Warn("Document delete failed", "workspace", key, "err", err)
		return err
	}
	m.logger.Debug("Document deleted", "workspace", key)
	return nil
}

func (m *loggingMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
