// Package dockertest provides test doubles for internal/docker.
//
// The fake runtime re-executes the test binary in place of the docker CLI. It
// understands `run` (writes the cid file, prints output, runs until removed)
// and `rm -f` (signals the fake container). Wire it up from TestMain:
//
//	func TestMain(m *testing.M) {
//		dockertest.RunIfFakeRuntime()
//		os.Exit(m.Run())
//	}
//
// and in a test:
//
//	rt := dockertest.InstallFakeRuntime(t, dockertest.FakeRuntime{Stdout: "ready"})
//	c := docker.New(spec, docker.WithRuntime(rt.Path))
package dockertest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	envMode     = "TESTDOCK_FAKE_RUNTIME"
	envExitCode = "TESTDOCK_FAKE_EXIT_CODE"
	envStdout   = "TESTDOCK_FAKE_STDOUT"
	envStderr   = "TESTDOCK_FAKE_STDERR"
	envCIDDelay = "TESTDOCK_FAKE_CID_DELAY"
	envCallLog  = "TESTDOCK_FAKE_CALL_LOG"

	// fakeIDPrefix marks container ids issued by the fake; the suffix is the
	// fake container's pid.
	fakeIDPrefix = "fake-"
)

// Mode selects how a fake `run` behaves.
type Mode string

const (
	// ModeServe writes the cid file and runs until removed or signalled.
	ModeServe Mode = "serve"
	// ModeExit writes the cid file and exits with FakeRuntime.ExitCode.
	ModeExit Mode = "exit"
	// ModeNoCID never writes the cid file and runs until signalled.
	ModeNoCID Mode = "nocid"
	// ModeStubborn writes the cid file and ignores SIGTERM.
	ModeStubborn Mode = "stubborn"
)

// FakeRuntime configures the fake runtime.
type FakeRuntime struct {
	Mode     Mode
	ExitCode int
	Stdout   string
	Stderr   string
	// CIDDelay postpones writing the cid file.
	CIDDelay time.Duration
}

// Runtime is an installed fake runtime.
type Runtime struct {
	// Path is the binary to pass to docker.WithRuntime.
	Path    string
	callLog string
}

// InstallFakeRuntime configures child processes of the current test binary to
// act as the fake runtime. It uses t.Setenv, so the test must not be parallel.
func InstallFakeRuntime(t *testing.T, fr FakeRuntime) *Runtime {
	t.Helper()

	exe, err := os.Executable()
	require.NoError(t, err)

	mode := fr.Mode
	if mode == "" {
		mode = ModeServe
	}
	callLog := filepath.Join(t.TempDir(), "runtime-calls.jsonl")

	t.Setenv(envMode, string(mode))
	t.Setenv(envExitCode, strconv.Itoa(fr.ExitCode))
	t.Setenv(envStdout, fr.Stdout)
	t.Setenv(envStderr, fr.Stderr)
	t.Setenv(envCIDDelay, fr.CIDDelay.String())
	t.Setenv(envCallLog, callLog)

	return &Runtime{Path: exe, callLog: callLog}
}

// Calls returns the argument vector of every invocation, in order.
func (r *Runtime) Calls() [][]string {
	f, err := os.Open(r.callLog)
	if err != nil {
		return nil
	}
	defer f.Close()

	var calls [][]string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var argv []string
		if err := json.Unmarshal(scanner.Bytes(), &argv); err == nil {
			calls = append(calls, argv)
		}
	}
	return calls
}

// RunArgs returns the arguments of the first `run` invocation.
func (r *Runtime) RunArgs() []string {
	for _, argv := range r.Calls() {
		if len(argv) > 0 && argv[0] == "run" {
			return argv
		}
	}
	return nil
}

// Removed returns the ids passed to `rm`.
func (r *Runtime) Removed() []string {
	var ids []string
	for _, argv := range r.Calls() {
		if len(argv) > 1 && argv[0] == "rm" {
			ids = append(ids, argv[len(argv)-1])
		}
	}
	return ids
}

// RunIfFakeRuntime turns the current process into the fake runtime and exits
// when it was started as one. It returns immediately otherwise.
func RunIfFakeRuntime() {
	mode := os.Getenv(envMode)
	if mode == "" {
		return
	}
	os.Exit(runFake(Mode(mode), os.Args[1:]))
}

func runFake(mode Mode, args []string) int {
	recordCall(args)

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "fake runtime: no command")
		return 2
	}
	switch args[0] {
	case "run":
		return fakeRun(mode, args[1:])
	case "rm":
		return fakeRemove(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "fake runtime: unknown command %q\n", args[0])
		return 2
	}
}

func fakeRun(mode Mode, args []string) int {
	sig := make(chan os.Signal, 1)
	if mode == ModeStubborn {
		signal.Ignore(syscall.SIGTERM)
		signal.Notify(sig, syscall.SIGINT)
	} else {
		signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)
	}

	cidfile := flagValue(args, "--cidfile")
	if cidfile != "" {
		if _, err := os.Stat(cidfile); err == nil {
			fmt.Fprintf(os.Stderr, "docker: Container ID file found, make sure the other container isn't running or delete %s.\n", cidfile)
			return 125
		}
	}

	if s := os.Getenv(envStdout); s != "" {
		fmt.Fprintln(os.Stdout, s)
	}
	if s := os.Getenv(envStderr); s != "" {
		fmt.Fprintln(os.Stderr, s)
	}

	if mode != ModeNoCID && cidfile != "" {
		if d, err := time.ParseDuration(os.Getenv(envCIDDelay)); err == nil && d > 0 {
			time.Sleep(d)
		}
		id := fakeIDPrefix + strconv.Itoa(os.Getpid())
		if err := os.WriteFile(cidfile, []byte(id), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "fake runtime: write cid file: %v\n", err)
			return 125
		}
	}

	if mode == ModeExit {
		code, _ := strconv.Atoi(os.Getenv(envExitCode))
		return code
	}

	<-sig
	return 143
}

func fakeRemove(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "fake runtime: rm requires a container id")
		return 2
	}
	id := args[len(args)-1]

	pid, err := strconv.Atoi(strings.TrimPrefix(id, fakeIDPrefix))
	if !strings.HasPrefix(id, fakeIDPrefix) || err != nil {
		fmt.Fprintf(os.Stderr, "Error response from daemon: No such container: %s\n", id)
		return 1
	}
	proc, err := os.FindProcess(pid)
	if err == nil {
		err = proc.Signal(syscall.SIGTERM)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error response from daemon: No such container: %s\n", id)
		return 1
	}
	fmt.Fprintln(os.Stdout, id)
	return 0
}

func flagValue(args []string, name string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == name {
			return args[i+1]
		}
	}
	return ""
}

func recordCall(args []string) {
	path := os.Getenv(envCallLog)
	if path == "" {
		return
	}
	line, err := json.Marshal(args)
	if err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(append(line, '\n'))
}

// WriteFakeRuntimeScript writes an executable wrapper named docker into dir
// that runs the current test binary as the fake runtime. Unlike
// InstallFakeRuntime it leaves the calling process environment alone, so a
// CLI under test can be pointed at the wrapper by path.
func WriteFakeRuntimeScript(dir string, fr FakeRuntime) (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	mode := fr.Mode
	if mode == "" {
		mode = ModeServe
	}

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&b, "export %s=%s\n", envMode, shellQuote(string(mode)))
	fmt.Fprintf(&b, "export %s=%d\n", envExitCode, fr.ExitCode)
	fmt.Fprintf(&b, "export %s=%s\n", envStdout, shellQuote(fr.Stdout))
	fmt.Fprintf(&b, "export %s=%s\n", envStderr, shellQuote(fr.Stderr))
	fmt.Fprintf(&b, "export %s=%s\n", envCIDDelay, fr.CIDDelay.String())
	fmt.Fprintf(&b, "export %s=%s\n", envCallLog, shellQuote(filepath.Join(dir, "runtime-calls.jsonl")))
	fmt.Fprintf(&b, "exec %s \"$@\"\n", shellQuote(exe))

	path := filepath.Join(dir, "docker")
	if err := os.WriteFile(path, []byte(b.String()), 0o755); err != nil {
		return "", err
	}
	return path, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
