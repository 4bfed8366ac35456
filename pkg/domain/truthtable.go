package domain

import "fmt"

// MaxTruthTableInputs bounds TruthTable to 2^16 rows.
const MaxTruthTableInputs = 16

// TruthRow is one line of a truth table.
type TruthRow struct {
	Inputs  []bool
	Outputs []bool
}

// TruthTable enumerates every input combination of the circuit's input ports,
// in binary counting order with the first port as the most significant bit.
// It evaluates a clone, so the receiver keeps its state.
func (c *Circuit) TruthTable() ([]TruthRow, error) {
	n := len(c.inputs)
	if n > MaxTruthTableInputs {
		return nil, fmt.Errorf("truth table: %d inputs exceeds the limit of %d", n, MaxTruthTableInputs)
	}
	work, err := c.Clone()
	if err != nil {
		return nil, fmt.Errorf("truth table: %w", err)
	}
	rows := make([]TruthRow, 0, 1<<n)
	for bits := 0; bits < 1<<n; bits++ {
		in := make([]bool, n)
		for i := range in {
			in[i] = bits&(1<<(n-1-i)) != 0
		}
		out, err := work.Process(in...)
		if err != nil {
			return nil, fmt.Errorf("truth table row %d: %w", bits, err)
		}
		rows = append(rows, TruthRow{Inputs: in, Outputs: out})
	}
	return rows, nil
}
