package connector

import (
	"context"
)

// OS represents operating system details of the inspected host.
type OS struct {
	ID         string // e.g., "ubuntu", "centos"
	VersionID  string // e.g., "22.04", "9"
	PrettyName string // e.g., "Ubuntu 22.04.3 LTS"
	Codename   string // e.g., "jammy"
	Arch       string // e.g., "amd64", "arm64"
	Kernel     string // e.g., "6.1.0-13-generic"
}

// Connector defines the command-execution surface the introspection engine
// runs on. The engine only ever reads from the host through this interface,
// which keeps every extractor testable against a recorded mock.
type Connector interface {
	// Exec runs a shell command, capturing stdout and stderr separately.
	// On failure the partial stdout captured so far is still returned
	// together with a *CommandError wrapping the sentinel taxonomy.
	Exec(ctx context.Context, cmd string, opts *ExecOptions) (stdout, stderr []byte, err error)

	// ExecArgv runs a command as an argument vector without any shell
	// interpretation. Mutating actions must go through this path.
	ExecArgv(ctx context.Context, argv []string, opts *ExecOptions) (stdout, stderr []byte, err error)

	// LookPath reports the absolute path of an executable, or an error
	// wrapping ErrToolMissing when it is not installed.
	LookPath(ctx context.Context, file string) (string, error)

	// ReadFile reads a host file (proc/sys pseudo-files included).
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// GetOS returns cached operating system details.
	GetOS(ctx context.Context) (*OS, error)

	IsConnected() bool
	Close() error
}
