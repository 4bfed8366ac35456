package ports

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/circuitry/pkg/domain"
)

// ContractDocument is the document written by RunDocumentStoreContract.
func ContractDocument() *domain.Document {
	return &domain.Document{
		Components: []domain.ComponentDoc{
			{Kind: "input", X: 10, Y: 20},
			{Kind: "not", X: 30, Y: 20},
			{Kind: "output", X: 50, Y: 20},
		},
		Connections: []domain.ConnectionDoc{
			{From: domain.Endpoint{Component: 0}, To: domain.Endpoint{Component: 1}, Path: []domain.Point{{X: 15, Y: 20}}},
			{From: domain.Endpoint{Component: 1}, To: domain.Endpoint{Component: 2}},
		},
	}
}

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore implementation
// adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := ContractDocument()
		require.NoError(t, store.Save(ctx, key, doc), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		if diff := cmp.Diff(doc, loaded); diff != "" {
			t.Errorf("loaded document mismatch (-want +got):\n%s", diff)
		}

		// The store must not alias the caller's document.
		doc.Components[0].X = 999
		again, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 10.0, again.Components[0].X)
	})

	t.Run("Overwrite", func(t *testing.T) {
		doc := ContractDocument()
		doc.Components = doc.Components[:1]
		doc.Connections = []domain.ConnectionDoc{}
		require.NoError(t, store.Save(ctx, key, doc))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Len(t, loaded.Components, 1)
		assert.Empty(t, loaded.Connections)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, ContractDocument()))
		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrNotFound, "Load after Delete should return ErrNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Deleting a missing key is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		require.NoError(t, store.Save(ctx, id1, ContractDocument()))
		require.NoError(t, store.Save(ctx, id2, ContractDocument()))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}
