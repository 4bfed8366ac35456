package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/circuitry/pkg/domain"
	"github.com/aretw0/circuitry/pkg/ports"
)

// StoreObserver receives one call per store operation.
// observability.Metrics implements it.
type StoreObserver interface {
	ObserveStore(op string, d time.Duration, err error)
}

type metricsMiddleware struct {
	next ports.DocumentStore
	obs  StoreObserver
}

// NewMetricsMiddleware reports the outcome and latency of every operation.
// A not-found Load counts as a success.
func NewMetricsMiddleware(obs StoreObserver) Middleware {
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &metricsMiddleware{next: next, obs: obs}
	}
}

func (m *metricsMiddleware) observe(op string, start time.Time, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		err = nil
	}
	m.obs.ObserveStore(op, time.Since(start), err)
}

func (m *metricsMiddleware) Save(ctx context.Context, key string, doc *domain.Document) error {
	start := time.Now()
	err := m.next.Save(ctx, key, doc)
	m.observe("save", start, err)
	return err
}

func (m *metricsMiddleware) Load(ctx context.Context, key string) (*domain.Document, error) {
	start := time.Now()
	doc, err := m.next.Load(ctx, key)
	m.observe("load", start, err)
	return doc, err
}

func (m *metricsMiddleware) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := m.next.Delete(ctx, key)
	m.observe("delete", start, err)
	return err
}

func (m *metricsMiddleware) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := m.next.List(ctx)
	m.observe("list", start, err)
	return keys, err
}
