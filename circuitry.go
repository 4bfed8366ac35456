package circuitry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/circuitry/internal/logging"
	loamAdapter "github.com/aretw0/circuitry/pkg/adapters/loam"
	"github.com/aretw0/circuitry/pkg/adapters/memory"
	"github.com/aretw0/circuitry/pkg/domain"
	"github.com/aretw0/circuitry/pkg/history"
	"github.com/aretw0/circuitry/pkg/library"
	"github.com/aretw0/circuitry/pkg/ports"
	"github.com/aretw0/circuitry/pkg/registry"
	"github.com/aretw0/circuitry/pkg/session"
)

// Engine is the high-level entry point for the circuitry library.
// It owns the kind registry, the custom component library and the set of
// open workspaces, and persists workspaces through a ports.DocumentStore.
type Engine struct {
	store      ports.DocumentStore
	locker     ports.DistributedLocker
	sessions   *session.Manager
	registry   *registry.Registry
	library    *library.Library
	libStore   ports.DocumentStore
	libSources []ports.DocumentSource
	libDir     string

	hooks       domain.Hooks
	observer    history.Observer
	capacity    int
	settleLimit int
	logger      *slog.Logger

	mu   sync.Mutex
	open map[string]*Workspace
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets where workspaces are persisted. Defaults to an in-memory store.
func WithStore(store ports.DocumentStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker guards workspace persistence with a distributed lock.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithRegistry shares an existing kind registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithLibraryStore sets where custom components are persisted.
func WithLibraryStore(store ports.DocumentStore) Option {
	return func(e *Engine) {
		e.libStore = store
	}
}

// WithLibrarySource adds a read-only source of custom component definitions.
func WithLibrarySource(src ports.DocumentSource) Option {
	return func(e *Engine) {
		e.libSources = append(e.libSources, src)
	}
}

// WithLibraryDir reads custom component definitions from a Loam directory.
func WithLibraryDir(dir string) Option {
	return func(e *Engine) {
		e.libDir = dir
	}
}

// WithCircuitHooks registers observability hooks on every workspace circuit.
func WithCircuitHooks(hooks domain.Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithHistoryObserver is notified after every recorded edit, undo and redo.
func WithHistoryObserver(o history.Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithHistoryCapacity bounds the undo stack of each workspace.
func WithHistoryCapacity(n int) Option {
	return func(e *Engine) {
		e.capacity = n
	}
}

// WithSettleLimit caps evaluations per component while a circuit settles.
func WithSettleLimit(n int) Option {
	return func(e *Engine) {
		e.settleLimit = n
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine. Library definitions are not loaded until
// SyncLibrary is called.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{open: make(map[string]*Workspace)}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.libStore == nil {
		eng.libStore = memory.NewStore()
	}
	if eng.registry == nil {
		eng.registry = registry.NewRegistry()
	}

	if eng.libDir != "" {
		src, err := loamAdapter.Open(eng.libDir)
		if err != nil {
			return nil, fmt.Errorf("library dir: %w", err)
		}
		eng.libSources = append(eng.libSources, src)
	}

	libOpts := []library.Option{library.WithLogger(eng.logger)}
	for _, src := range eng.libSources {
		libOpts = append(libOpts, library.WithSource(src))
	}
	eng.library = library.New(eng.libStore, eng.registry, libOpts...)

	sessOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, sessOpts...)

	return eng, nil
}

// SyncLibrary loads every custom component definition into the registry.
func (e *Engine) SyncLibrary(ctx context.Context) error {
	return e.library.Sync(ctx)
}

// Registry returns the kind registry used to instantiate components.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Library returns the custom component library.
func (e *Engine) Library() *library.Library {
	return e.library
}

// Sessions returns the manager that serializes workspace persistence.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Build instantiates doc against the engine registry.
func (e *Engine) Build(doc *domain.Document) (*domain.Circuit, error) {
	return domain.FromDocument(doc, e.registry, e.circuitOptions()...)
}

// Evaluate builds doc and processes one stimulus through it.
func (e *Engine) Evaluate(doc *domain.Document, stimulus ...bool) ([]bool, error) {
	c, err := e.Build(doc)
	if err != nil {
		return nil, err
	}
	return c.Process(stimulus...)
}

func (e *Engine) circuitOptions() []domain.Option {
	return []domain.Option{
		domain.WithSettleLimit(e.settleLimit),
		domain.WithHooks(e.hooks),
	}
}

// Open returns the named workspace, loading it from the store (or creating
// it) on first use. Later calls return the same instance until Close.
func (e *Engine) Open(ctx context.Context, name string) (*Workspace, error) {
	if name == "" {
		return nil, fmt.Errorf("workspace name cannot be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if ws, ok := e.open[name]; ok {
		return ws, nil
	}

	doc, err := e.sessions.LoadOrCreate(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open workspace %q: %w", name, err)
	}
	c, err := e.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("open workspace %q: %w", name, err)
	}

	ws := newWorkspace(ctx, e, name, c)
	e.open[name] = ws
	e.logger.Info("Workspace opened", "workspace", name, "components", c.Len())
	return ws, nil
}

// Close forgets the open instance of name. Persisted state is kept.
func (e *Engine) Close(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.open, name)
}

// Delete closes the workspace and removes it from the store.
func (e *Engine) Delete(ctx context.Context, name string) error {
	e.Close(name)
	return e.sessions.Delete(ctx, name)
}

// Workspaces lists the persisted workspace names.
func (e *Engine) Workspaces(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}
