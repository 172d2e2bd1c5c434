package facts

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mensylisir/hostboard/pkg/connector"
)

// MockConnector is a scriptable connector.Connector for extractor tests.
// It records every executed command so tests can assert on the exact
// fallback order an extractor walked.
type MockConnector struct {
	ExecFunc     func(ctx context.Context, cmd string, opts *connector.ExecOptions) (stdout, stderr []byte, err error)
	ExecArgvFunc func(ctx context.Context, argv []string, opts *connector.ExecOptions) (stdout, stderr []byte, err error)
	LookPathFunc func(ctx context.Context, file string) (string, error)
	ReadFileFunc func(ctx context.Context, path string) ([]byte, error)
	GetOSFunc    func(ctx context.Context) (*connector.OS, error)

	LastExecCmd string
	ExecHistory []string
}

// NewMockConnector returns a mock where every tool exists, every command
// succeeds with empty output, and no file is readable.
func NewMockConnector() *MockConnector {
	return &MockConnector{
		LookPathFunc: func(ctx context.Context, file string) (string, error) {
			return "/usr/bin/" + file, nil
		},
		ExecFunc: func(ctx context.Context, cmd string, opts *connector.ExecOptions) ([]byte, []byte, error) {
			return nil, nil, nil
		},
		ReadFileFunc: func(ctx context.Context, path string) ([]byte, error) {
			return nil, os.ErrNotExist
		},
	}
}

func (m *MockConnector) Exec(ctx context.Context, cmd string, opts *connector.ExecOptions) ([]byte, []byte, error) {
	m.LastExecCmd = cmd
	m.ExecHistory = append(m.ExecHistory, cmd)
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, cmd, opts)
	}
	return nil, nil, nil
}

func (m *MockConnector) ExecArgv(ctx context.Context, argv []string, opts *connector.ExecOptions) ([]byte, []byte, error) {
	cmd := strings.Join(argv, " ")
	m.LastExecCmd = cmd
	m.ExecHistory = append(m.ExecHistory, cmd)
	if m.ExecArgvFunc != nil {
		return m.ExecArgvFunc(ctx, argv, opts)
	}
	return nil, nil, nil
}

func (m *MockConnector) LookPath(ctx context.Context, file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(ctx, file)
	}
	return "/usr/bin/" + file, nil
}

func (m *MockConnector) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(ctx, path)
	}
	return nil, os.ErrNotExist
}

func (m *MockConnector) GetOS(ctx context.Context) (*connector.OS, error) {
	if m.GetOSFunc != nil {
		return m.GetOSFunc(ctx)
	}
	return &connector.OS{ID: "linux", Arch: "amd64", Kernel: "mock"}, nil
}

func (m *MockConnector) IsConnected() bool { return true }

func (m *MockConnector) Close() error { return nil }

var _ connector.Connector = &MockConnector{}

// toolsAvailable restricts LookPath to the named tools.
func toolsAvailable(tools ...string) func(ctx context.Context, file string) (string, error) {
	set := make(map[string]bool, len(tools))
	for _, t := range tools {
		set[t] = true
	}
	return func(ctx context.Context, file string) (string, error) {
		if set[file] {
			return "/usr/bin/" + file, nil
		}
		return "", fmt.Errorf("executable '%s': %w", file, connector.ErrToolMissing)
	}
}

// execOutputs maps exact command strings to canned stdout. Unmapped
// commands fail with a non-zero exit.
func execOutputs(outputs map[string]string) func(ctx context.Context, cmd string, opts *connector.ExecOptions) ([]byte, []byte, error) {
	return func(ctx context.Context, cmd string, opts *connector.ExecOptions) ([]byte, []byte, error) {
		if out, ok := outputs[cmd]; ok {
			return []byte(out), nil, nil
		}
		return nil, nil, &connector.CommandError{Cmd: cmd, ExitCode: 1, Underlying: connector.ErrNonZeroExit}
	}
}

// fileContents maps file paths to canned contents.
func fileContents(files map[string]string) func(ctx context.Context, path string) ([]byte, error) {
	return func(ctx context.Context, path string) ([]byte, error) {
		if content, ok := files[path]; ok {
			return []byte(content), nil
		}
		return nil, os.ErrNotExist
	}
}

// newTestEngine builds an Engine over a mock with a quiet logger and the
// docker daemon API stubbed out as unavailable.
func newTestEngine(mc *MockConnector) *Engine {
	e := NewEngine(mc, testLogger())
	e.dockerUnitsFn = func(ctx context.Context) ([]ComputeUnit, error) {
		return nil, fmt.Errorf("no docker daemon in tests")
	}
	return e
}
