package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_Valid(t *testing.T) {
	out, err := execute(t, "validate", "testdata/two-rupture-example.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "two-rupture-example is valid")
	assert.Contains(t, out, "1 source(s), 2 site(s)")
}

func TestValidateCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", "testdata/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
