package domain

// Kind is the closed set of component variants. The string forms are the persisted
// "type" tags and must stay stable for documents to keep loading.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindIs
	KindAnd
	KindOr
	KindXor
	KindNot
	KindNand
	KindNor
	KindXnor
	KindInput  // external input port of the containing circuit
	KindOutput // external output port of the containing circuit
	KindCustom // a whole circuit wrapped as one component
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindIs:      "is",
	KindAnd:     "and",
	KindOr:      "or",
	KindXor:     "xor",
	KindNot:     "not",
	KindNand:    "nand",
	KindNor:     "nor",
	KindXnor:    "xnor",
	KindInput:   "input",
	KindOutput:  "output",
	KindCustom:  "custom",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindInvalid]
}

// ParseKind resolves a persisted type tag.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name && Kind(k) != KindInvalid {
			return Kind(k), nil
		}
	}
	return KindInvalid, &UnknownKindError{Kind: name}
}

// Kinds lists every valid kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames)-1)
	for k := KindIs; k <= KindCustom; k++ {
		out = append(out, k)
	}
	return out
}

// IsPort reports whether the kind is an input or output port.
func (k Kind) IsPort() bool {
	return k == KindInput || k == KindOutput
}

// IsGate reports whether the kind is one of the eight fixed gates.
func (k Kind) IsGate() bool {
	return k >= KindIs && k <= KindXnor
}

// DefaultArity returns the input and output counts a kind gets when none are given.
func (k Kind) DefaultArity() (inputs, outputs int) {
	switch k {
	case KindIs, KindNot, KindInput, KindOutput:
		return 1, 1
	case KindAnd, KindOr, KindXor, KindNand, KindNor, KindXnor:
		return 2, 1
	default:
		return 0, 0
	}
}

