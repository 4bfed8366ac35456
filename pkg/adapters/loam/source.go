package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/circuitry/pkg/codec"
	"github.com/aretw0/circuitry/pkg/domain"
)

// Source adapts a Loam repository to ports.DocumentSource.
// Each Markdown or JSON file defines one custom component.
type Source struct {
	Repo *loam.TypedRepository[ComponentMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[ComponentMetadata]) *Source {
	return &Source{
		Repo: repo,
	}
}

// Open initializes a read-only, strict Loam repository at dir.
func Open(dir string) (*Source, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode keeps numbers as json.Number across the Markdown and JSON adapters.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[ComponentMetadata](repo)), nil
}

// entry is a library file keyed by its normalized name.
type entry struct {
	path string
	meta ComponentMetadata
	body string
}

func (s *Source) index(ctx context.Context) (map[string]entry, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	entries := make(map[string]entry, len(docs))
	for _, doc := range docs {
		name := doc.Data.Name
		if name == "" {
			name = doc.Data.ID
		}
		if name == "" {
			name = doc.ID
		}
		name = trimExtension(name)

		if existing, ok := entries[name]; ok {
			return nil, fmt.Errorf("collision detected: component '%s' is defined in both '%s' and '%s'", name, existing.path, doc.ID)
		}
		entries[name] = entry{path: doc.ID, meta: doc.Data, body: doc.Content}
	}
	return entries, nil
}

// Get returns the circuit document for the named component.
func (s *Source) Get(ctx context.Context, name string) (*domain.Document, error) {
	entries, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	e, ok := entries[name]
	if !ok {
		return nil, domain.ErrNotFound
	}

	doc, err := codec.DecodeMap(map[string]any{
		"components":  e.meta.Components,
		"connections": e.meta.Connections,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.path, err)
	}
	if doc.Connections == nil {
		doc.Connections = []domain.ConnectionDoc{}
	}
	return doc, nil
}

// Names lists the component names, sorted.
func (s *Source) Names(ctx context.Context) ([]string, error) {
	entries, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Describe returns the free-text description of the named component: the
// front matter field, or the Markdown body when that is empty.
func (s *Source) Describe(ctx context.Context, name string) (string, error) {
	entries, err := s.index(ctx)
	if err != nil {
		return "", err
	}
	e, ok := entries[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	if e.meta.Description != "" {
		return e.meta.Description, nil
	}
	return strings.TrimSpace(e.body), nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
