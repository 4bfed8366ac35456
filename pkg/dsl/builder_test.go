package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/circuitry/pkg/domain"
)

func halfAdder() *Builder {
	b := New()
	b.Input("a").At(0, 0)
	b.Input("b").At(0, 40)
	b.Add("sum", "xor").At(60, 0).From("a", "b")
	b.Add("carry", "and").At(60, 40).From("a", "b")
	b.Output("s").At(120, 0).From("sum")
	b.Output("c").At(120, 40).From("carry")
	return b
}

func TestBuilder_HalfAdder(t *testing.T) {
	doc, err := halfAdder().Build()
	require.NoError(t, err)

	require.Len(t, doc.Components, 6)
	assert.Equal(t, "xor", doc.Components[2].Kind)
	assert.Equal(t, 60.0, doc.Components[2].X)
	assert.Equal(t, domain.ConnectionDoc{
		From: domain.Endpoint{Component: 1, Slot: 0},
		To:   domain.Endpoint{Component: 2, Slot: 1},
	}, doc.Connections[1])

	c, err := halfAdder().Circuit()
	require.NoError(t, err)
	rows, err := c.TruthTable()
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false, true}, []bool{
		!rows[0].Outputs[0] && !rows[0].Outputs[1],
		rows[1].Outputs[0] && !rows[1].Outputs[1],
		rows[3].Outputs[0],
		rows[3].Outputs[1],
	})
}

func TestBuilder_AddIsIdempotent(t *testing.T) {
	b := New()
	first := b.Add("g", "and")
	assert.Same(t, first, b.Add("g", "or"))
	doc, err := b.Build()
	require.NoError(t, err)
	assert.Len(t, doc.Components, 1)
	assert.Equal(t, "and", doc.Components[0].Kind)
}

func TestBuilder_Errors(t *testing.T) {
	b := New()
	b.Input("a")
	b.Add("g", "not")
	b.Wire("a", "ghost")
	_, err := b.Build()
	assert.ErrorContains(t, err, `unknown component "ghost"`)

	b = New()
	b.Input("a")
	b.Input("b")
	b.Add("g", "not").From("a")
	b.Wire("b", "g.0")
	_, err = b.Build()
	assert.ErrorContains(t, err, "already fed by a")

	b = New()
	b.Input("a").To("g.x")
	b.Add("g", "not")
	_, err = b.Build()
	assert.ErrorContains(t, err, "bad slot")
}

func TestBuilder_InlineAndArity(t *testing.T) {
	inv := New()
	inv.Input("i")
	inv.Add("n", "not").From("i")
	inv.Output("o").From("n")
	invDoc, err := inv.Build()
	require.NoError(t, err)

	b := New()
	b.Input("a")
	b.Input("b")
	b.Input("c")
	b.Add("or3", "or").Arity(3, 0).From("a", "b", "c")
	b.Add("inv", "").Inline("inv", invDoc).From("or3")
	b.Output("nor3").From("inv")
	b.Wire("inv", "or3.9")

	_, err = b.Circuit()
	assert.ErrorIs(t, err, domain.ErrStructural, "slot 9 does not exist")

	b.wires = b.wires[:len(b.wires)-1]
	c, err := b.Circuit()
	require.NoError(t, err)
	out, err := c.Process(false, false, false)
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, out)
	out, err = c.Process(false, true, false)
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, out)
}
