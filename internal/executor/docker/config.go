package docker

import "time"

// Runtime describes how one language runs inside a sandbox container.
// Only interpreter languages are supported by this backend; compiled
// languages go through the piston backend.
type Runtime struct {
	// Image is the Docker image to run code in.
	Image string
	// Command builds the container exec command for a piece of code.
	Command func(code string) []string
}

// Config holds the sandbox limits shared by every language pool.
type Config struct {
	// MemoryLimit is the maximum memory per container, in bytes.
	MemoryLimit int64
	// CPULimit is the number of CPUs a container can use.
	CPULimit float64
	// Timeout bounds a single execution.
	Timeout time.Duration
	// PoolSize is the number of pre-warmed containers kept per language.
	PoolSize int
	// Runtimes maps canonical language names to their sandbox runtime.
	// Nil selects DefaultRuntimes.
	Runtimes map[string]Runtime
}

// DefaultRuntimes covers the interpreter languages that can run straight
// from an eval flag, no build step.
func DefaultRuntimes() map[string]Runtime {
	return map[string]Runtime{
		"python": {
			Image:   "python:3.12-alpine",
			Command: func(code string) []string { return []string{"python", "-c", code} },
		},
		"javascript": {
			Image:   "node:22-alpine",
			Command: func(code string) []string { return []string{"node", "-e", code} },
		},
		"ruby": {
			Image:   "ruby:3.3-alpine",
			Command: func(code string) []string { return []string{"ruby", "-e", code} },
		},
		"php": {
			Image:   "php:8.3-alpine",
			Command: func(code string) []string { return []string{"php", "-r", code} },
		},
		"bash": {
			Image:   "alpine:3.20",
			Command: func(code string) []string { return []string{"sh", "-c", code} },
		},
	}
}

// DefaultConfig provides sensible sandbox defaults.
func DefaultConfig() Config {
	return Config{
		MemoryLimit: 128 * 1024 * 1024,
		CPULimit:    0.5,
		Timeout:     5 * time.Second,
		PoolSize:    2,
		Runtimes:    DefaultRuntimes(),
	}
}
