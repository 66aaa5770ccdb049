// Package harness runs the auxiliary reflection harness binary used by the
// invoke tool: a small external process that loads a compiled assembly and
// calls one method on it by name, reporting the result on stdout.
package harness

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"

	"github.com/opendbg/netdbg-mcp/internal/procutil"
	"github.com/opendbg/netdbg-mcp/pkg/types"
)

// Request describes one invocation: load Assembly, call Type.Method with
// the given constructor and method arguments (both opaque JSON arrays,
// passed straight through to the harness).
type Request struct {
	Assembly   string
	Type       string
	Method     string
	MethodArgs json.RawMessage
	CtorArgs   json.RawMessage
}

// Args builds the harness's command-line argument list:
// --assembly <path> --type <Type> --method <Method> [--args <json>]
// [--ctor-args <json>].
func (r Request) Args() []string {
	args := []string{
		"--assembly", r.Assembly,
		"--type", r.Type,
		"--method", r.Method,
	}
	if len(r.MethodArgs) > 0 {
		args = append(args, "--args", string(r.MethodArgs))
	}
	if len(r.CtorArgs) > 0 {
		args = append(args, "--ctor-args", string(r.CtorArgs))
	}
	return args
}

// Result is a non-debug invocation's captured output.
type Result struct {
	Stdout   []string
	Stderr   []string
	ExitCode int
}

// Run spawns the harness as a plain subprocess (no debugger attached),
// waits for it to exit, and returns its captured output line-by-line.
// This is the invoke tool's default (non-debug) mode.
func Run(ctx context.Context, harnessPath string, req Request) (*Result, error) {
	cmd := exec.CommandContext(ctx, harnessPath, req.Args()...)
	procutil.SetProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open harness stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("open harness stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start harness %s: %w", harnessPath, err)
	}

	res := &Result{}
	done := make(chan struct{}, 2)
	go collectLines(stdout, &res.Stdout, done)
	go collectLines(stderr, &res.Stderr, done)
	<-done
	<-done

	err = cmd.Wait()
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return res, fmt.Errorf("harness wait: %w", err)
		}
	}
	return res, nil
}

func collectLines(r io.Reader, out *[]string, done chan<- struct{}) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		*out = append(*out, scanner.Text())
	}
	done <- struct{}{}
}

// DebugConfig builds the SessionConfig that launches the harness binary
// itself as the debuggee, for invoke's debug mode: the caller wants to set
// breakpoints inside the invoked method before it runs, so the harness is
// launched exactly like any other program, with req's flags as its
// process arguments.
func DebugConfig(harnessPath string, req Request, cwd string) types.SessionConfig {
	return types.SessionConfig{
		Program: harnessPath,
		Args:    req.Args(),
		Cwd:     cwd,
		Mode:    types.ModeLaunch,
	}
}
