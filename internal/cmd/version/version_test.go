package version

import (
	"testing"

	"github.com/schmitthub/testdock/internal/cmdutil"
	"github.com/schmitthub/testdock/internal/iostreams/iostreamstest"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{
			name:    "version only",
			version: "1.2.3",
			want:    "testdock version 1.2.3\n",
		},
		{
			name:    "version with commit",
			version: "v1.2.3",
			commit:  "abc123",
			want:    "testdock version 1.2.3 (abc123)\n",
		},
		{
			name:    "dev build",
			version: "dev",
			commit:  "none",
			want:    "testdock version dev\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.version, tt.commit)
			if got != tt.want {
				t.Errorf("Format(%q, %q) = %q, want %q", tt.version, tt.commit, got, tt.want)
			}
		})
	}
}

func TestNewCmdVersion(t *testing.T) {
	tio := iostreamstest.New()
	f := &cmdutil.Factory{Version: "0.4.0", Commit: "deadbee", IOStreams: tio.IOStreams}

	cmd := NewCmdVersion(f)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got, want := tio.OutBuf.String(), "testdock version 0.4.0 (deadbee)\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestNewCmdVersion_RejectsArgs(t *testing.T) {
	tio := iostreamstest.New()
	f := &cmdutil.Factory{Version: "0.4.0", IOStreams: tio.IOStreams}

	cmd := NewCmdVersion(f)
	cmd.SetArgs([]string{"extra"})
	cmd.SetOut(tio.ErrBuf)
	cmd.SetErr(tio.ErrBuf)
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for positional argument")
	}
}
