package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/circuitry/pkg/domain"
	"github.com/aretw0/circuitry/pkg/ports"
)

type nopStore struct{}

func (nopStore) Save(ctx context.Context, key string, doc *domain.Document) error { return nil }
func (nopStore) Load(ctx context.Context, key string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}
func (nopStore) Delete(ctx context.Context, key string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)   { return nil, nil }

type recordingLocker struct {
	locked   []string
	ttl      time.Duration
	unlocked int
	fail     error
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.fail != nil {
		return nil, l.fail
	}
	l.locked = append(l.locked, key)
	l.ttl = ttl
	return func(ctx context.Context) error {
		l.unlocked++
		return nil
	}, nil
}

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		key := fmt.Sprintf("workspace-%d", i)
		_ = mgr.Save(ctx, key, &domain.Document{})
		_ = mgr.Delete(ctx, key)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &recordingLocker{}
	mgr := NewManager(nopStore{}, WithLocker(locker), WithLockTTL(5*time.Second))

	require.NoError(t, mgr.Save(context.Background(), "shared", &domain.Document{}))
	assert.Equal(t, []string{"shared"}, locker.locked)
	assert.Equal(t, 5*time.Second, locker.ttl)
	assert.Equal(t, 1, locker.unlocked)
}

func TestManager_DistributedLockFailure(t *testing.T) {
	boom := errors.New("boom")
	mgr := NewManager(nopStore{}, WithLocker(&recordingLocker{fail: boom}))

	called := false
	err := mgr.WithLock(context.Background(), "shared", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
	assert.Empty(t, mgr.locks)
}
