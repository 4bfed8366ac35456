package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aretw0/circuitry/pkg/domain"
	"github.com/aretw0/circuitry/pkg/ports"
)

// DocumentSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.DocumentSource.
func DocumentSourceContractTest(t *testing.T, source ports.DocumentSource, setupData map[string]*domain.Document) {
	t.Helper()
	ctx := context.Background()

	// 1. Test Get (Success)
	t.Run("Get_Success", func(t *testing.T) {
		for name, want := range setupData {
			got, err := source.Get(ctx, name)
			if err != nil {
				t.Fatalf("unexpected error getting document %s: %v", name, err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("document mismatch for %s (-want +got):\n%s", name, diff)
			}
		}
	})

	// 2. Test Get (NotFound)
	t.Run("Get_NotFound", func(t *testing.T) {
		_, err := source.Get(ctx, "non-existent-document")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound for non-existent document, got %v", err)
		}
	})

	// 3. Test Names
	t.Run("Names", func(t *testing.T) {
		names, err := source.Names(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing documents: %v", err)
		}

		if len(names) != len(setupData) {
			t.Errorf("expected %d documents, got %d", len(setupData), len(names))
		}

		lookup := make(map[string]bool)
		for _, name := range names {
			lookup[name] = true
		}
		for name := range setupData {
			if !lookup[name] {
				t.Errorf("document %s missing from list", name)
			}
		}
	})
}
