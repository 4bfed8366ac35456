package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/circuitry"
)

// halfAdder is a circuit argument as a client would send it.
func halfAdder() map[string]interface{} {
	var v map[string]interface{}
	_ = json.Unmarshal([]byte(`{
		"components": [
			{"type": "input"}, {"type": "input"},
			{"type": "xor"}, {"type": "and"},
			{"type": "output"}, {"type": "output"}
		],
		"connections": [
			{"from": [0, 0], "to": [2, 0]}, {"from": [1, 0], "to": [2, 1]},
			{"from": [0, 0], "to": [3, 0]}, {"from": [1, 0], "to": [3, 1]},
			{"from": [2, 0], "to": [4, 0]}, {"from": [3, 0], "to": [5, 0]}
		]
	}`), &v)
	return v
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := circuitry.New()
	require.NoError(t, err)
	return NewServer(eng)
}

func TestEvaluateTool(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleEvaluate(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"circuit": halfAdder(),
		"inputs":  "11",
	})
	require.NoError(t, err)
	assert.Equal(t, EvaluateResponse{Outputs: []bool{false, true}, Bits: "01"}, resp)

	resp, err = s.handleEvaluate(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"circuit": halfAdder(),
		"inputs":  []interface{}{true, 0.0},
	})
	require.NoError(t, err)
	assert.Equal(t, "10", resp.Bits)

	_, err = s.handleEvaluate(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	assert.Error(t, err)

	_, err = s.handleEvaluate(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"circuit": map[string]interface{}{"components": []interface{}{map[string]interface{}{"type": "flux"}}},
	})
	assert.Error(t, err)
}

func TestEvaluateToolAcceptsText(t *testing.T) {
	s := newTestServer(t)
	src := "components:\n  - {type: input}\n  - {type: not}\n  - {type: output}\nconnections:\n  - {from: [0, 0], to: [1, 0]}\n  - {from: [1, 0], to: [2, 0]}\n"
	resp, err := s.handleEvaluate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"circuit": src,
		"inputs":  "0",
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, resp.Outputs)
}

func TestTruthTableTool(t *testing.T) {
	s := newTestServer(t)
	resp, err := s.handleTruthTable(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"circuit": halfAdder()})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Inputs)
	assert.Equal(t, 2, resp.Outputs)
	assert.Equal(t, []TruthRow{
		{Inputs: "00", Outputs: "00"},
		{Inputs: "01", Outputs: "10"},
		{Inputs: "10", Outputs: "10"},
		{Inputs: "11", Outputs: "01"},
	}, resp.Rows)
	assert.Contains(t, resp.Markdown, "| in0 | in1 | out0 | out1 |")
}

func TestSaveAndListComponents(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	list, err := s.handleListComponents(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Contains(t, list.Builtin, "xnor")
	assert.NotContains(t, list.Builtin, "custom")
	assert.Empty(t, list.Custom)

	saved, err := s.handleSaveCustom(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"name":    "half_adder",
		"circuit": halfAdder(),
	})
	require.NoError(t, err)
	assert.Equal(t, CustomResponse{Name: "half_adder", Inputs: 2, Outputs: 2}, saved)

	list, err = s.handleListComponents(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"half_adder"}, list.Custom)

	_, err = s.handleSaveCustom(ctx, mcp.CallToolRequest{}, map[string]interface{}{"circuit": halfAdder()})
	assert.Error(t, err)
	_, err = s.handleSaveCustom(ctx, mcp.CallToolRequest{}, map[string]interface{}{"name": "or", "circuit": halfAdder()})
	assert.Error(t, err)

	// A saved component is usable by later documents.
	resp, err := s.handleEvaluate(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"circuit": map[string]interface{}{
			"components": []interface{}{
				map[string]interface{}{"type": "input"},
				map[string]interface{}{"type": "input"},
				map[string]interface{}{"type": "half_adder"},
				map[string]interface{}{"type": "output"},
			},
			"connections": []interface{}{
				map[string]interface{}{"from": []interface{}{0.0, 0.0}, "to": []interface{}{2.0, 0.0}},
				map[string]interface{}{"from": []interface{}{1.0, 0.0}, "to": []interface{}{2.0, 1.0}},
				map[string]interface{}{"from": []interface{}{2.0, 1.0}, "to": []interface{}{3.0, 0.0}},
			},
		},
		"inputs": "11",
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, resp.Outputs)
}

func TestLibraryResources(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleSaveCustom(ctx, mcp.CallToolRequest{}, map[string]interface{}{"name": "ha", "circuit": halfAdder()})
	require.NoError(t, err)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "circuitry://library/ha"
	contents, err := s.readLibraryEntry(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.Contains(t, text.Text, `"type": "xor"`)

	req.Params.URI = "circuitry://library/missing"
	_, err = s.readLibraryEntry(ctx, req)
	assert.Error(t, err)

	req.Params.URI = "circuitry://other"
	_, err = s.readLibraryEntry(ctx, req)
	assert.Error(t, err)
}

func TestInputsArg(t *testing.T) {
	got, err := inputsArg(map[string]interface{}{"inputs": "1_0"})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, got)

	_, err = inputsArg(map[string]interface{}{"inputs": []interface{}{"x"}})
	assert.Error(t, err)
	_, err = inputsArg(map[string]interface{}{"inputs": 3})
	assert.Error(t, err)
}
