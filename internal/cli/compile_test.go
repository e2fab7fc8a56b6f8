package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCommand_Text(t *testing.T) {
	out, err := execute(t, "compile", "testdata/two-rupture-model.cue")
	require.NoError(t, err)
	assert.Contains(t, out, "Compiled 1 source(s)")
	assert.Contains(t, out, "src-a: group=1 serials=[0,2) ruptures=2")
}

func TestCompileCommand_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "compile", "testdata/two-rupture-model.cue")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	infos, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, infos, 1)
	info := infos[0].(map[string]any)
	assert.Equal(t, "src-a", info["id"])
	assert.Equal(t, float64(2), info["ruptures"])
}

func TestCompileCommand_BadFile(t *testing.T) {
	_, err := execute(t, "compile", "testdata/nope.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
