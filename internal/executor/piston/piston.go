// Package piston implements executor.Executor against a Piston engine,
// the open source code execution API (https://github.com/engineer-man/piston).
package piston

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aaditya248659/Code-Snippet-Library/internal/executor"
)

// DefaultURL is the public Piston instance. Self-hosted deployments
// override it via PISTON_URL.
const DefaultURL = "https://emkc.org/api/v2/piston"

const (
	compileTimeoutMs = 10000
	runTimeoutMs     = 5000
)

// Executor proxies execution requests to a Piston engine over HTTP.
type Executor struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

var _ executor.Executor = (*Executor)(nil)

// New creates a Piston executor. An empty baseURL selects the public
// instance.
func New(baseURL string, logger *slog.Logger) *Executor {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Executor{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 20 * time.Second},
		logger:  logger,
	}
}

type pistonFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type pistonRequest struct {
	Language           string       `json:"language"`
	Version            string       `json:"version"`
	Files              []pistonFile `json:"files"`
	Stdin              string       `json:"stdin"`
	CompileTimeout     int          `json:"compile_timeout"`
	RunTimeout         int          `json:"run_timeout"`
	CompileMemoryLimit int          `json:"compile_memory_limit"`
	RunMemoryLimit     int          `json:"run_memory_limit"`
}

type pistonStage struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Output string `json:"output"`
	Code   int    `json:"code"`
}

type pistonResponse struct {
	Compile *pistonStage `json:"compile"`
	Run     pistonStage  `json:"run"`
	Message string       `json:"message"`
}

// Execute runs the code remotely and normalizes the two-stage Piston
// response into a single Result. Compilation failures surface as an error
// message with no output; runtime failures keep whatever stdout was
// produced before the crash.
func (e *Executor) Execute(ctx context.Context, req executor.Request) (*executor.Result, error) {
	rt, err := executor.ResolveRuntime(req.Language)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	body, err := json.Marshal(pistonRequest{
		Language:           rt.Name,
		Version:            "*",
		Files:              []pistonFile{{Name: rt.Filename, Content: req.Code}},
		Stdin:              req.Stdin,
		CompileTimeout:     compileTimeoutMs,
		RunTimeout:         runTimeoutMs,
		CompileMemoryLimit: -1,
		RunMemoryLimit:     -1,
	})
	if err != nil {
		return nil, fmt.Errorf("piston: encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("piston: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		e.logger.Error("piston request failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", executor.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		e.logger.Error("piston returned non-200",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(msg)))
		return nil, fmt.Errorf("%w: engine returned status %d", executor.ErrServiceUnavailable, resp.StatusCode)
	}

	var pr pistonResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("%w: decoding engine response: %v", executor.ErrServiceUnavailable, err)
	}

	result := &executor.Result{Duration: time.Since(start)}

	if pr.Compile != nil && pr.Compile.Code != 0 {
		result.ExitCode = pr.Compile.Code
		result.Error = firstNonEmpty(pr.Compile.Stderr, pr.Compile.Output, "Compilation error")
		return result, nil
	}

	result.ExitCode = pr.Run.Code
	if pr.Run.Code != 0 && pr.Run.Stderr != "" {
		result.Output = pr.Run.Stdout
		result.Error = pr.Run.Stderr
		return result, nil
	}

	result.Output = firstNonEmpty(pr.Run.Stdout, pr.Run.Output, "Code executed successfully (no output)")
	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
