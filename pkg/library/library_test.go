package library

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/circuitry/pkg/adapters/memory"
	"github.com/aretw0/circuitry/pkg/domain"
	"github.com/aretw0/circuitry/pkg/registry"
)

func invDoc() *domain.Document {
	return &domain.Document{
		Components: []domain.ComponentDoc{{Kind: "input"}, {Kind: "not"}, {Kind: "output"}},
		Connections: []domain.ConnectionDoc{
			{From: domain.Endpoint{Component: 0}, To: domain.Endpoint{Component: 1}},
			{From: domain.Endpoint{Component: 1}, To: domain.Endpoint{Component: 2}},
		},
	}
}

// bufDoc chains two "inv" components by name.
func bufDoc() *domain.Document {
	return &domain.Document{
		Components: []domain.ComponentDoc{{Kind: "input"}, {Kind: "inv"}, {Kind: "inv"}, {Kind: "output"}},
		Connections: []domain.ConnectionDoc{
			{From: domain.Endpoint{Component: 0}, To: domain.Endpoint{Component: 1}},
			{From: domain.Endpoint{Component: 1}, To: domain.Endpoint{Component: 2}},
			{From: domain.Endpoint{Component: 2}, To: domain.Endpoint{Component: 3}},
		},
	}
}

func eval(t *testing.T, reg *registry.Registry, kind string, in bool) bool {
	t.Helper()
	doc := &domain.Document{
		Components: []domain.ComponentDoc{{Kind: "input"}, {Kind: kind}, {Kind: "output"}},
		Connections: []domain.ConnectionDoc{
			{From: domain.Endpoint{Component: 0}, To: domain.Endpoint{Component: 1}},
			{From: domain.Endpoint{Component: 1}, To: domain.Endpoint{Component: 2}},
		},
	}
	c, err := domain.FromDocument(doc, reg)
	require.NoError(t, err)
	out, err := c.Process(in)
	require.NoError(t, err)
	return out[0]
}

func TestSaveRegistersAndPersists(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	reg := registry.NewRegistry()
	lib := New(store, reg)

	c, err := domain.FromDocument(invDoc(), nil)
	require.NoError(t, err)
	proto, err := lib.Save(ctx, "inv", c)
	require.NoError(t, err)
	assert.Equal(t, "inv", proto.Label())
	assert.Equal(t, []string{"inv"}, lib.Names())
	assert.False(t, eval(t, reg, "inv", true))

	doc, err := lib.Get(ctx, "inv")
	require.NoError(t, err)
	assert.Len(t, doc.Components, 3)
}

func TestSaveRejectsReservedName(t *testing.T) {
	lib := New(memory.NewStore(), registry.NewRegistry())
	c, err := domain.FromDocument(invDoc(), nil)
	require.NoError(t, err)
	_, err = lib.Save(context.Background(), "and", c)
	assert.ErrorIs(t, err, registry.ErrReserved)
}

type failingStore struct{ *memory.Store }

func (failingStore) Save(context.Context, string, *domain.Document) error {
	return errors.New("disk full")
}

func TestSaveFailureRollsBackRegistration(t *testing.T) {
	reg := registry.NewRegistry()
	lib := New(failingStore{memory.NewStore()}, reg)
	c, err := domain.FromDocument(invDoc(), nil)
	require.NoError(t, err)

	_, err = lib.Save(context.Background(), "inv", c)
	assert.Error(t, err)
	assert.Empty(t, reg.Custom())
}

func TestSyncResolvesReferencesInAnyOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewFromDocuments(map[string]*domain.Document{
		"buf": bufDoc(),
		"inv": invDoc(),
	})
	reg := registry.NewRegistry()
	require.NoError(t, New(store, reg).Sync(ctx))

	assert.Equal(t, []string{"buf", "inv"}, reg.Custom())
	assert.True(t, eval(t, reg, "buf", true))
	assert.False(t, eval(t, reg, "inv", true))
}

func TestSyncReportsUnresolvable(t *testing.T) {
	store := memory.NewFromDocuments(map[string]*domain.Document{
		"buf": bufDoc(),
	})
	reg := registry.NewRegistry()
	err := New(store, reg).Sync(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownKind)
	assert.Contains(t, err.Error(), `"buf"`)
	assert.Empty(t, reg.Custom())
}

func TestSourcesAreReadOnlyFallback(t *testing.T) {
	ctx := context.Background()
	src := memory.NewFromDocuments(map[string]*domain.Document{"inv": invDoc()})
	store := memory.NewFromDocuments(map[string]*domain.Document{"buf": bufDoc()})
	reg := registry.NewRegistry()
	lib := New(store, reg, WithSource(src))

	require.NoError(t, lib.Sync(ctx))
	assert.Equal(t, []string{"buf", "inv"}, lib.Names())

	doc, err := lib.Get(ctx, "inv")
	require.NoError(t, err)
	assert.Len(t, doc.Components, 3)

	_, err = lib.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, lib.Delete(ctx, "buf"))
	assert.Equal(t, []string{"inv"}, lib.Names())
	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
