// Package docker implements executor.Executor with local sandbox
// containers. Each supported language gets a pool of pre-warmed containers
// with no network, a read-only root filesystem and memory/CPU limits.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/aaditya248659/Code-Snippet-Library/internal/executor"
)

// Executor runs code in pooled Docker containers.
type Executor struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pools  map[string]*Pool
}

var _ executor.Executor = (*Executor)(nil)

// New creates a Docker executor, pulls every runtime image and starts the
// per-language pools.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	if cfg.Runtimes == nil {
		cfg.Runtimes = DefaultRuntimes()
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for lang, rt := range cfg.Runtimes {
		logger.Info("ensuring docker image is available",
			slog.String("language", lang), slog.String("image", rt.Image))
		reader, err := cli.ImagePull(ctx, rt.Image, image.PullOptions{})
		if err != nil {
			cli.Close()
			return nil, fmt.Errorf("failed to pull image %s: %w", rt.Image, err)
		}
		// Block until the pull is complete.
		io.Copy(io.Discard, reader)
		reader.Close()
	}

	exec := &Executor{
		cli:    cli,
		config: cfg,
		logger: logger,
		pools:  make(map[string]*Pool, len(cfg.Runtimes)),
	}
	for lang, rt := range cfg.Runtimes {
		pool := NewPool(cli, rt.Image, cfg, logger)
		pool.Start()
		exec.pools[lang] = pool
	}

	return exec, nil
}

// Close shuts down every pool and the docker client.
func (e *Executor) Close() error {
	for _, pool := range e.pools {
		pool.Stop()
	}
	return e.cli.Close()
}

// Execute runs the code in a pre-warmed container for its language.
func (e *Executor) Execute(ctx context.Context, req executor.Request) (*executor.Result, error) {
	rt, err := executor.ResolveRuntime(req.Language)
	if err != nil {
		return nil, err
	}
	runtime, ok := e.config.Runtimes[rt.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no sandbox runtime", executor.ErrUnsupportedLanguage, rt.Name)
	}
	pool := e.pools[rt.Name]

	start := time.Now()

	containerID, err := pool.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring container: %v", executor.ErrServiceUnavailable, err)
	}

	// The acquired container is single-use.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := e.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
			e.logger.Error("failed to remove container",
				slog.String("id", containerID), slog.String("error", err.Error()))
		}
	}()

	executeCtx, executeCancel := context.WithTimeout(ctx, e.config.Timeout)
	defer executeCancel()

	execConfig := container.ExecOptions{
		AttachStdin:  req.Stdin != "",
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          runtime.Command(req.Code),
	}

	execResp, err := e.cli.ContainerExecCreate(executeCtx, containerID, execConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := e.cli.ContainerExecAttach(executeCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	if req.Stdin != "" {
		if _, err := attachResp.Conn.Write([]byte(req.Stdin)); err != nil {
			e.logger.Warn("failed to write stdin", slog.String("error", err.Error()))
		}
		attachResp.CloseWrite()
	}

	var stdout, stderr bytes.Buffer
	done := make(chan struct{})
	go func() {
		// stdcopy demultiplexes the combined stream into stdout and stderr.
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		close(done)
	}()

	var exitCode int
	select {
	case <-done:
		inspectResp, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
		if err == nil {
			exitCode = inspectResp.ExitCode
		}
	case <-executeCtx.Done():
		// 124 matches the unix timeout command.
		exitCode = 124
		stderr.WriteString("\nExecution timed out.\n")
	}

	result := &executor.Result{
		ExitCode: exitCode,
		Duration: time.Since(start),
	}
	if exitCode != 0 && stderr.Len() > 0 {
		result.Output = stdout.String()
		result.Error = stderr.String()
		return result, nil
	}
	if out := stdout.String(); out != "" {
		result.Output = out
	} else {
		result.Output = "Code executed successfully (no output)"
	}
	return result, nil
}
