package connector

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExecCapturesOutput(t *testing.T) {
	l := NewLocalConnector()
	stdout, _, err := l.Exec(context.Background(), "echo hello", nil)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if strings.TrimSpace(string(stdout)) != "hello" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestExecErrorReportsEffectiveCommand(t *testing.T) {
	l := NewLocalConnector()

	_, _, err := l.Exec(context.Background(), "exit 7", nil)
	var ce *CommandError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want CommandError", err)
	}
	if ce.Cmd != "exit 7" {
		t.Errorf("Cmd = %q", ce.Cmd)
	}
	if ce.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", ce.ExitCode)
	}

	// With sudo requested the error must carry the command line that
	// actually ran, prefix included.
	_, _, err = l.Exec(context.Background(), "exit 7", &ExecOptions{Sudo: true})
	if !errors.As(err, &ce) {
		t.Fatalf("sudo err = %v, want CommandError", err)
	}
	if ce.Cmd != "sudo -n -- exit 7" {
		t.Errorf("sudo Cmd = %q", ce.Cmd)
	}
}

func TestLookPathMissingTool(t *testing.T) {
	l := NewLocalConnector()
	if _, err := l.LookPath(context.Background(), "no-such-tool-zz"); !errors.Is(err, ErrToolMissing) {
		t.Errorf("err = %v, want ErrToolMissing", err)
	}
}
