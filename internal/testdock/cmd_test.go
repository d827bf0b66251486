package testdock

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schmitthub/testdock/internal/cmdutil"
	"github.com/schmitthub/testdock/internal/iostreams/iostreamstest"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "test command exit status",
			err:      fmt.Errorf("wrapped: %w", &cmdutil.ExitError{Code: 7}),
			wantCode: 7,
		},
		{
			name:     "silent error",
			err:      cmdutil.SilentError,
			wantCode: exitError,
		},
		{
			name:     "flag error",
			err:      cmdutil.FlagErrorf("unknown flag: --nope"),
			wantCode: exitUsage,
			wantErr:  "Error: unknown flag: --nope\n\nRun 'testdock run --help' for more information.\n",
		},
		{
			name:     "other error",
			err:      errors.New("starting nginx: boom"),
			wantCode: exitError,
			wantErr:  "[error] starting nginx: boom\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tio := iostreamstest.New()
			f := &cmdutil.Factory{IOStreams: tio.IOStreams}

			code := exitCode(f, "testdock run", tt.err)

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantErr, tio.ErrBuf.String())
		})
	}
}
