package domain

// Registry resolves a persisted type tag into a fresh component. Inputs and
// outputs of zero select the kind's default arity.
type Registry interface {
	New(kind string, inputs, outputs int) (*Component, error)
}

// RegistryFunc adapts a function to the Registry interface.
type RegistryFunc func(kind string, inputs, outputs int) (*Component, error)

func (f RegistryFunc) New(kind string, inputs, outputs int) (*Component, error) {
	return f(kind, inputs, outputs)
}

// Builtins resolves the built-in gates and ports.
var Builtins Registry = RegistryFunc(func(name string, inputs, outputs int) (*Component, error) {
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	if kind == KindCustom {
		return nil, &UnknownKindError{Kind: name}
	}
	return NewComponent(kind, inputs, outputs)
})
