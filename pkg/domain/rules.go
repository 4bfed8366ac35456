package domain

// rule computes output values from input values. It may return fewer values
// than the component has outputs; the remaining outputs keep their value.
type rule func(in []bool) []bool

var rules = map[Kind]rule{
	KindIs:     func(in []bool) []bool { return []bool{first(in)} },
	KindNot:    func(in []bool) []bool { return []bool{!first(in)} },
	KindAnd:    func(in []bool) []bool { return []bool{allTrue(in)} },
	KindOr:     func(in []bool) []bool { return []bool{anyTrue(in)} },
	KindXor:    func(in []bool) []bool { return []bool{exactlyOne(in)} },
	KindNand:   func(in []bool) []bool { return []bool{!allTrue(in)} },
	KindNor:    func(in []bool) []bool { return []bool{!anyTrue(in)} },
	KindXnor:   func(in []bool) []bool { return []bool{!exactlyOne(in)} },
	KindInput:  func(in []bool) []bool { return []bool{first(in)} },
	KindOutput: func(in []bool) []bool { return []bool{first(in)} },
}

// Evaluate applies a gate or port rule to the given inputs.
// Custom components are evaluated through their inner circuit instead.
func Evaluate(kind Kind, in []bool) ([]bool, error) {
	r, ok := rules[kind]
	if !ok {
		return nil, &UnknownKindError{Kind: kind.String()}
	}
	return r(in), nil
}

func first(in []bool) bool {
	return len(in) > 0 && in[0]
}

func allTrue(in []bool) bool {
	for _, v := range in {
		if !v {
			return false
		}
	}
	return true
}

func anyTrue(in []bool) bool {
	for _, v := range in {
		if v {
			return true
		}
	}
	return false
}

// exactlyOne is the XOR semantics used throughout: one and only one input set.
// For two inputs it matches parity; for three or more it does not.
func exactlyOne(in []bool) bool {
	n := 0
	for _, v := range in {
		if v {
			n++
		}
	}
	return n == 1
}
