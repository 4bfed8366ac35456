package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/circuitry/pkg/domain"
)

// ErrReserved is returned when registering a prototype under a built-in kind name.
var ErrReserved = errors.New("name is reserved for a built-in kind")

// Registry resolves kind names to components: the built-in gates and ports,
// plus named custom-component prototypes. It implements domain.Registry and
// is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	protos map[string]*domain.Component
}

// NewRegistry creates a registry that only knows the built-in kinds.
func NewRegistry() *Registry {
	return &Registry{
		protos: make(map[string]*domain.Component),
	}
}

// Register adds a custom-component prototype under name.
// If a prototype with the same name exists, it is overwritten.
func (r *Registry) Register(name string, proto *domain.Component) error {
	if name == "" {
		return errors.New("register: empty name")
	}
	if _, err := domain.ParseKind(name); err == nil {
		return fmt.Errorf("register %q: %w", name, ErrReserved)
	}
	if proto == nil || proto.Kind() != domain.KindCustom {
		return fmt.Errorf("register %q: prototype must be a custom component", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.protos[name] = proto
	return nil
}

// RegisterCircuit snapshots circuit as a custom component named name.
func (r *Registry) RegisterCircuit(name string, circuit *domain.Circuit) error {
	proto, err := domain.NewCustom(name, circuit)
	if err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}
	return r.Register(name, proto)
}

// Unregister drops a prototype. It reports whether one was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.protos[name]
	delete(r.protos, name)
	return ok
}

// New returns a fresh component for kind. Registered prototypes are cloned;
// everything else is resolved as a built-in kind.
func (r *Registry) New(kind string, inputs, outputs int) (*domain.Component, error) {
	r.mu.RLock()
	proto, ok := r.protos[kind]
	r.mu.RUnlock()

	if ok {
		return proto.Clone()
	}
	return domain.Builtins.New(kind, inputs, outputs)
}

// Kinds lists the built-in kind names followed by registered names, sorted.
func (r *Registry) Kinds() []string {
	var names []string
	for _, k := range domain.Kinds() {
		if k != domain.KindCustom {
			names = append(names, k.String())
		}
	}
	return append(names, r.Custom()...)
}

// Custom lists the registered prototype names, sorted.
func (r *Registry) Custom() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.protos))
	for name := range r.protos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Prototype returns the registered prototype for name. Callers must Clone it
// before placing it in a circuit.
func (r *Registry) Prototype(name string) (*domain.Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	proto, ok := r.protos[name]
	return proto, ok
}
