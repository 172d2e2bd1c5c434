package connector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"syscall"
	"time"
)

// LocalConnector executes commands on the host hostboard itself runs on.
// Every invocation spawns one OS process through exec.CommandContext so a
// cancelled request kills its child processes instead of orphaning them.
type LocalConnector struct {
	// DefaultTimeout bounds commands whose ExecOptions carry no explicit
	// timeout. Zero falls back to DefaultExecTimeout.
	DefaultTimeout time.Duration

	cachedOS *OS
}

// NewLocalConnector returns a Connector for the local host.
func NewLocalConnector() *LocalConnector {
	return &LocalConnector{}
}

func (l *LocalConnector) IsConnected() bool { return true }

func (l *LocalConnector) Close() error { return nil }

func (l *LocalConnector) Exec(ctx context.Context, cmd string, opts *ExecOptions) (stdout, stderr []byte, err error) {
	effective := ExecOptions{}
	if opts != nil {
		effective = *opts
	}

	fullCmd := cmd
	if effective.Sudo {
		fullCmd = "sudo -n -- " + cmd
	}

	shell := []string{"/bin/sh", "-c"}
	return l.run(ctx, fullCmd, append(shell, fullCmd), &effective)
}

func (l *LocalConnector) ExecArgv(ctx context.Context, argv []string, opts *ExecOptions) (stdout, stderr []byte, err error) {
	if len(argv) == 0 {
		return nil, nil, fmt.Errorf("argv cannot be empty")
	}
	effective := ExecOptions{}
	if opts != nil {
		effective = *opts
	}
	if effective.Sudo {
		argv = append([]string{"sudo", "-n", "--"}, argv...)
	}
	return l.run(ctx, strings.Join(argv, " "), argv, &effective)
}

func (l *LocalConnector) run(ctx context.Context, display string, argv []string, opts *ExecOptions) (stdout, stderr []byte, err error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = l.DefaultTimeout
	}
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	actualCmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)

	if len(opts.Env) > 0 {
		actualCmd.Env = append(os.Environ(), opts.Env...)
	}
	if len(opts.Stdin) > 0 {
		actualCmd.Stdin = bytes.NewReader(opts.Stdin)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	if opts.Stream != nil {
		actualCmd.Stdout = io.MultiWriter(&stdoutBuf, opts.Stream)
		actualCmd.Stderr = io.MultiWriter(&stderrBuf, opts.Stream)
	} else {
		actualCmd.Stdout = &stdoutBuf
		actualCmd.Stderr = &stderrBuf
	}

	runErr := actualCmd.Run()
	stdout = stdoutBuf.Bytes()
	stderr = stderrBuf.Bytes()

	if runErr == nil {
		return stdout, stderr, nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			exitCode = status.ExitStatus()
		}
	}

	classified := classifyExecError(runErr, runCtx.Err())
	return stdout, stderr, &CommandError{
		Cmd:        display,
		ExitCode:   exitCode,
		Stdout:     string(stdout),
		Stderr:     string(stderr),
		Underlying: classified,
	}
}

func (l *LocalConnector) LookPath(ctx context.Context, file string) (string, error) {
	path, err := exec.LookPath(file)
	if err != nil {
		return "", fmt.Errorf("executable '%s': %w", file, ErrToolMissing)
	}
	return path, nil
}

func (l *LocalConnector) ReadFile(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read local file %s: %w", path, err)
	}
	return data, nil
}

func (l *LocalConnector) GetOS(ctx context.Context) (*OS, error) {
	if l.cachedOS != nil {
		return l.cachedOS, nil
	}
	osInfo := &OS{
		ID:   strings.ToLower(runtime.GOOS),
		Arch: runtime.GOARCH,
	}

	kernelCmd := exec.CommandContext(ctx, "uname", "-r")
	if kernelOut, err := kernelCmd.Output(); err == nil {
		osInfo.Kernel = strings.TrimSpace(string(kernelOut))
	}

	content, err := os.ReadFile("/etc/os-release")
	if err == nil {
		vars := make(map[string]string)
		for _, line := range strings.Split(string(content), "\n") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				val := strings.Trim(strings.TrimSpace(parts[1]), "\"")
				vars[key] = val
			}
		}
		if id, ok := vars["ID"]; ok {
			osInfo.ID = id
		}
		if verID, ok := vars["VERSION_ID"]; ok {
			osInfo.VersionID = verID
		}
		if name, ok := vars["PRETTY_NAME"]; ok {
			osInfo.PrettyName = name
		}
		if cname, ok := vars["VERSION_CODENAME"]; ok {
			osInfo.Codename = cname
		}
	} else {
		if osInfo.PrettyName == "" {
			osInfo.PrettyName = "Linux"
		}
	}

	l.cachedOS = osInfo
	return l.cachedOS, nil
}

var _ Connector = &LocalConnector{}
