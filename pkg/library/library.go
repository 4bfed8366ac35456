// Package library persists named custom components and keeps a registry in
// sync with them.
//
// Each entry is the document of the circuit a custom component wraps, stored
// under the component name. Read-only sources (a loam directory, a fixture
// set) can contribute further definitions; the writable store wins when both
// define the same name.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/circuitry/internal/logging"
	"github.com/aretw0/circuitry/pkg/domain"
	"github.com/aretw0/circuitry/pkg/ports"
	"github.com/aretw0/circuitry/pkg/registry"
)

// Library manages custom component definitions.
type Library struct {
	store   ports.DocumentStore
	sources []ports.DocumentSource
	reg     *registry.Registry
	logger  *slog.Logger
}

// Option configures the Library.
type Option func(*Library)

// WithSource adds a read-only source of definitions.
func WithSource(src ports.DocumentSource) Option {
	return func(l *Library) {
		l.sources = append(l.sources, src)
	}
}

// WithLogger configures a logger for the Library.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// New creates a Library that stores definitions in store and registers them in reg.
func New(store ports.DocumentStore, reg *registry.Registry, opts ...Option) *Library {
	l := &Library{
		store:  store,
		reg:    reg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Registry returns the registry kept in sync by the Library.
func (l *Library) Registry() *registry.Registry {
	return l.reg
}

// Save snapshots circuit as the custom component name, registers it and persists it.
func (l *Library) Save(ctx context.Context, name string, circuit *domain.Circuit) (*domain.Component, error) {
	proto, err := domain.NewCustom(name, circuit)
	if err != nil {
		return nil, fmt.Errorf("library save %q: %w", name, err)
	}

	prev, hadPrev := l.reg.Prototype(name)
	if err := l.reg.Register(name, proto); err != nil {
		return nil, fmt.Errorf("library save: %w", err)
	}

	if err := l.store.Save(ctx, name, proto.Inner().Serialize()); err != nil {
		if hadPrev {
			_ = l.reg.Register(name, prev)
		} else {
			l.reg.Unregister(name)
		}
		return nil, fmt.Errorf("library save %q: %w", name, err)
	}

	l.logger.Info("Custom component saved", "component", name)
	return proto, nil
}

// Get returns the stored definition of name.
func (l *Library) Get(ctx context.Context, name string) (*domain.Document, error) {
	doc, err := l.store.Load(ctx, name)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return doc, err
	}
	for _, src := range l.sources {
		doc, err := src.Get(ctx, name)
		if err == nil || !errors.Is(err, domain.ErrNotFound) {
			return doc, err
		}
	}
	return nil, domain.ErrNotFound
}

// Delete removes name from the store and the registry.
func (l *Library) Delete(ctx context.Context, name string) error {
	if err := l.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("library delete %q: %w", name, err)
	}
	l.reg.Unregister(name)
	return nil
}

// Names lists the components currently registered.
func (l *Library) Names() []string {
	return l.reg.Custom()
}

// Sync loads every definition and registers it. Definitions may reference one
// another by name, so they are resolved in passes until no more progress is
// made. Definitions that never resolve are reported together and the rest
// stay registered.
func (l *Library) Sync(ctx context.Context) error {
	pending, err := l.collect(ctx)
	if err != nil {
		return err
	}

	failures := make(map[string]error)
	for len(pending) > 0 {
		progress := false
		for _, name := range sortedKeys(pending) {
			c, err := domain.FromDocument(pending[name], l.reg)
			if err != nil {
				failures[name] = err
				continue
			}
			if err := l.reg.RegisterCircuit(name, c); err != nil {
				failures[name] = err
				continue
			}
			delete(pending, name)
			delete(failures, name)
			progress = true
		}
		if !progress {
			break
		}
	}

	if len(failures) == 0 {
		l.logger.Debug("Library synchronized", "components", len(l.reg.Custom()))
		return nil
	}
	errs := make([]error, 0, len(failures))
	for _, name := range sortedKeys(failures) {
		errs = append(errs, fmt.Errorf("custom component %q: %w", name, failures[name]))
	}
	return errors.Join(errs...)
}

func (l *Library) collect(ctx context.Context) (map[string]*domain.Document, error) {
	docs := make(map[string]*domain.Document)
	for _, src := range l.sources {
		names, err := src.Names(ctx)
		if err != nil {
			return nil, fmt.Errorf("library sources: %w", err)
		}
		for _, name := range names {
			doc, err := src.Get(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("library source %q: %w", name, err)
			}
			docs[name] = doc
		}
	}

	keys, err := l.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("library list: %w", err)
	}
	for _, key := range keys {
		doc, err := l.store.Load(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("library load %q: %w", key, err)
		}
		docs[key] = doc
	}
	return docs, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
