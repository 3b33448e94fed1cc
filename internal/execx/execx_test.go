package execx

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/yaegashi/aksmesh/domain/model"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRunCapturesStdout(t *testing.T) {
	requireShell(t)
	res, err := Local{}.Run(context.Background(), Command{
		Name:  "sh",
		Args:  []string{"-c", "printf hello"},
		Check: true,
		Quiet: true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Stdout != "hello" {
		t.Errorf("stdout = %q, want %q", res.Stdout, "hello")
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode)
	}
}

func TestRunStreamsStdin(t *testing.T) {
	requireShell(t)
	res, err := Local{}.Run(context.Background(), Command{
		Name:  "sh",
		Args:  []string{"-c", "cat"},
		Stdin: "piped input",
		Check: true,
		Quiet: true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Stdout != "piped input" {
		t.Errorf("stdout = %q, want %q", res.Stdout, "piped input")
	}
}

func TestRunCheckedFailure(t *testing.T) {
	requireShell(t)
	res, err := Local{}.Run(context.Background(), Command{
		Name:  "sh",
		Args:  []string{"-c", "echo boom >&2; exit 3"},
		Check: true,
		Quiet: true,
	})
	if err == nil {
		t.Fatal("expected error for checked non-zero exit")
	}
	var execErr *model.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("error type = %T, want *model.ExecutionError", err)
	}
	if execErr.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", execErr.ExitCode)
	}
	if execErr.Stderr != "boom\n" {
		t.Errorf("stderr = %q, want %q", execErr.Stderr, "boom\n")
	}
	if res == nil || res.ExitCode != 3 {
		t.Errorf("result not populated on checked failure: %+v", res)
	}
}

func TestRunUncheckedFailure(t *testing.T) {
	requireShell(t)
	res, err := Local{}.Run(context.Background(), Command{
		Name:  "sh",
		Args:  []string{"-c", "exit 7"},
		Quiet: true,
	})
	if err != nil {
		t.Fatalf("unchecked failure should not error: %v", err)
	}
	if res.ExitCode != 7 {
		t.Errorf("exit code = %d, want 7", res.ExitCode)
	}
}

func TestRunMissingExecutable(t *testing.T) {
	_, err := Local{}.Run(context.Background(), Command{
		Name:  "aksmesh-no-such-binary",
		Quiet: true,
	})
	if err == nil {
		t.Fatal("expected error for missing executable")
	}
}

func TestCommandLine(t *testing.T) {
	c := Command{Name: "kubectl", Args: []string{"get", "nodes"}}
	if got, want := c.Line(), "kubectl get nodes"; got != want {
		t.Errorf("line = %q, want %q", got, want)
	}
}
