package circuitry_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/circuitry"
)

func runScript(t *testing.T, script string) (string, *circuitry.Workspace) {
	t.Helper()
	eng, err := circuitry.New()
	require.NoError(t, err)
	ws, err := eng.Open(context.Background(), "shell")
	require.NoError(t, err)

	var out bytes.Buffer
	r := circuitry.NewRunner()
	r.Input = strings.NewReader(script)
	r.Output = &out
	r.Headless = true
	require.NoError(t, r.Run(context.Background(), ws))
	return out.String(), ws
}

func TestRunner_BuildsAndEvaluates(t *testing.T) {
	out, ws := runScript(t, `
add input 0 0
add input 0 20
add xor 40 10
add output 80 10
wire 0 2.0
wire 1 2.1
wire 2 3
eval 10
eval 11
table
`)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "0: input", lines[0])
	assert.Equal(t, "3: output", lines[3])
	assert.Equal(t, "1", lines[4])
	assert.Equal(t, "0", lines[5])
	assert.Contains(t, out, "| in0 | in1 | out0 |")
	assert.Contains(t, out, "| 0 | 1 | 1 |")

	undo, _ := ws.History()
	assert.Equal(t, 7, undo)
}

func TestRunner_UndoRedoAndErrors(t *testing.T) {
	out, ws := runScript(t, `
undo
add nand inputs=3
add flux
rm 7
undo
redo
wire 0.0 0.0
bogus
quit
add and
`)
	assert.Contains(t, out, "nothing to undo")
	assert.Contains(t, out, "0: nand")
	assert.Contains(t, out, "error: unknown component kind")
	assert.Contains(t, out, "error: no component 7")
	assert.Contains(t, out, `error: unknown command "bogus"`)
	assert.Contains(t, out, "Bye!")
	assert.Len(t, ws.Export().Components, 1, "commands after quit are not run")
	assert.Equal(t, 3, ws.Export().Components[0].Inputs)
}

func TestRunner_SetAndToggle(t *testing.T) {
	out, _ := runScript(t, `
add input
add not
add output
wire 0 1
wire 1 2
set 0 1
toggle 0
set 3 1
`)
	assert.Contains(t, out, "\n0\n1\n")
	assert.Contains(t, out, "error: no input port 3")
}

func TestRunner_RequiresIO(t *testing.T) {
	eng, err := circuitry.New()
	require.NoError(t, err)
	ws, err := eng.Open(context.Background(), "io")
	require.NoError(t, err)
	assert.Error(t, circuitry.NewRunner().Run(context.Background(), ws))
}

func TestParseAndFormatBits(t *testing.T) {
	bits, err := circuitry.ParseBits("1,0 1_1")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, true}, bits)
	assert.Equal(t, "1011", circuitry.FormatBits(bits))

	_, err = circuitry.ParseBits("102")
	assert.Error(t, err)
}
