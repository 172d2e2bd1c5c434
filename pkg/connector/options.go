package connector

import (
	"io"
	"time"
)

// DefaultExecTimeout bounds a single command invocation when the caller
// does not set an explicit timeout.
const DefaultExecTimeout = 10 * time.Second

type ExecOptions struct {
	Sudo    bool
	Timeout time.Duration
	Env     []string
	Stream  io.Writer
	Stdin   []byte
}
