package cmdutil

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoArgs(t *testing.T) {
	root := &cobra.Command{Use: "testdock"}
	cmd := &cobra.Command{Use: "version"}
	root.AddCommand(cmd)

	require.NoError(t, NoArgs(cmd, nil))

	err := NoArgs(cmd, []string{"extra"})
	require.Error(t, err)
	var flagErr *FlagError
	assert.True(t, errors.As(err, &flagErr))
	assert.Contains(t, err.Error(), "'testdock version' accepts no arguments")
}

func TestPrintHelpHint(t *testing.T) {
	var buf bytes.Buffer
	PrintHelpHint(&buf, "testdock run")
	assert.Equal(t, "\nRun 'testdock run --help' for more information.\n", buf.String())
}
