// Package executor defines the interface for running user-submitted code in
// an isolated environment. Two backends implement it: piston proxies to a
// Piston engine over HTTP, docker runs code in local sandbox containers.
package executor

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupportedLanguage means the backend has no runtime for the requested
// language. Handlers map it to a 400.
var ErrUnsupportedLanguage = errors.New("executor: unsupported language")

// ErrServiceUnavailable means the execution backend could not be reached.
// Handlers map it to a 503.
var ErrServiceUnavailable = errors.New("executor: execution service unavailable")

// Request is a single run of user code.
type Request struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Stdin    string `json:"stdin,omitempty"`
}

// Result is the normalized outcome of a run. At most one of Output and
// Error is non-empty for a failed run; a successful run always has Output.
type Result struct {
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
}

// Executor runs code in an isolated environment.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}
