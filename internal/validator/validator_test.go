package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/circuitry/pkg/adapters/memory"
	"github.com/aretw0/circuitry/pkg/domain"
)

func conn(fc, fs, tc, ts int) domain.ConnectionDoc {
	return domain.ConnectionDoc{
		From: domain.Endpoint{Component: fc, Slot: fs},
		To:   domain.Endpoint{Component: tc, Slot: ts},
	}
}

func inverter() *domain.Document {
	return &domain.Document{
		Components:  []domain.ComponentDoc{{Kind: "input"}, {Kind: "not"}, {Kind: "output"}},
		Connections: []domain.ConnectionDoc{conn(0, 0, 1, 0), conn(1, 0, 2, 0)},
	}
}

func TestCheckValid(t *testing.T) {
	r := Check(inverter(), nil)
	assert.Empty(t, r.Issues)
	assert.NoError(t, r.Err())
}

func TestCheckErrors(t *testing.T) {
	doc := &domain.Document{
		Components: []domain.ComponentDoc{
			{Kind: "input"},
			{Kind: "flux"},
			{Kind: "and", Inputs: 3},
			{Kind: "not", Inputs: 2},
			{Kind: "output"},
		},
		Connections: []domain.ConnectionDoc{
			conn(0, 0, 2, 0),
			conn(0, 0, 2, 0), // fed twice
			conn(0, 0, 9, 0), // out of range
			conn(0, 1, 2, 1), // bad source slot
			conn(2, 0, 1, 0), // unknown kind, already reported
			conn(2, 0, 4, 0),
		},
	}
	r := Check(doc, nil)
	errs := r.Errors()
	require.Len(t, errs, 5, r.Err())

	assert.Equal(t, 1, errs[0].Component)
	assert.Contains(t, errs[0].Message, "unknown component kind")
	assert.Equal(t, 3, errs[1].Component)
	assert.Contains(t, errs[1].Message, "invalid arity")
	assert.Equal(t, 1, errs[2].Connection)
	assert.Equal(t, 2, errs[3].Connection)
	assert.Equal(t, 3, errs[4].Connection)
	assert.ErrorContains(t, r.Err(), "found 5 errors")
}

func TestCheckWarnings(t *testing.T) {
	// Cross-coupled NOR latch with one input left open and no output port.
	doc := &domain.Document{
		Components: []domain.ComponentDoc{{Kind: "input"}, {Kind: "nor"}, {Kind: "nor"}},
		Connections: []domain.ConnectionDoc{
			conn(0, 0, 1, 0),
			conn(1, 0, 2, 0),
			conn(2, 0, 1, 1),
		},
	}
	r := Check(doc, nil)
	assert.NoError(t, r.Err())

	var msgs []string
	for _, w := range r.Warnings() {
		msgs = append(msgs, w.String())
	}
	assert.Equal(t, []string{
		"warning: component 2: nor input 1 is not connected",
		"warning: component 1: feedback loop through components 1, 2",
		"warning: circuit has no output ports",
	}, msgs)
}

func TestCheckSelfLoop(t *testing.T) {
	doc := &domain.Document{
		Components:  []domain.ComponentDoc{{Kind: "is"}},
		Connections: []domain.ConnectionDoc{conn(0, 0, 0, 0)},
	}
	r := Check(doc, nil)
	require.Len(t, r.Warnings(), 2)
	assert.Contains(t, r.Warnings()[0].Message, "feedback loop through components 0")
}

func TestCheckCustom(t *testing.T) {
	doc := &domain.Document{
		Components: []domain.ComponentDoc{
			{Kind: "input"},
			{Kind: "custom", Name: "inv", Circuit: inverter()},
			{Kind: "output"},
		},
		Connections: []domain.ConnectionDoc{conn(0, 0, 1, 0), conn(1, 0, 2, 0), conn(1, 1, 2, 0)},
	}
	r := Check(doc, nil)
	errs := r.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "source slot 1 out of range for inv")

	bad := &domain.Document{Components: []domain.ComponentDoc{
		{Kind: "custom", Name: "broken", Circuit: &domain.Document{Components: []domain.ComponentDoc{{Kind: "flux"}}}},
	}}
	r = Check(bad, nil)
	require.NotEmpty(t, r.Errors())
	assert.Contains(t, r.Errors()[0].Message, `custom "broken"`)

	// A bare reference needs a registry that knows it.
	ref := &domain.Document{Components: []domain.ComponentDoc{{Kind: "custom", Name: "inv"}, {Kind: "output"}}}
	assert.Error(t, Check(ref, nil).Err())
}

func TestCheckNil(t *testing.T) {
	assert.Error(t, Check(nil, nil).Err())
}

func TestCheckSource(t *testing.T) {
	src := memory.NewFromDocuments(map[string]*domain.Document{
		"inv":    inverter(),
		"broken": {Components: []domain.ComponentDoc{{Kind: "flux"}}},
	})
	reports, err := CheckSource(context.Background(), src, nil)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.NoError(t, reports["inv"].Err())
	assert.Error(t, reports["broken"].Err())
}
