// Helpbot CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"
	"errors"
	"fmt"

	"dagger/helpbot/internal/dagger"
)

// Helpbot is the main module for the helpbot CI/CD pipeline
type Helpbot struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Helpbot CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".helpbot", "aws_docs", "build", "tmp"]
	source *dagger.Directory,
) *Helpbot {
	return &Helpbot{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc, CGO
// enabled for go-sqlite3 and sqlite-vec, and the project source mounted.
func (h *Helpbot) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", h.Source)
}

// Test runs the helpbot unit tests. Tests needing a downloaded embedding
// model or Docker skip themselves.
func (h *Helpbot) Test(ctx context.Context) (string, error) {
	return h.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}

// CheckTidy fails when go.mod or go.sum differ from what "go mod tidy"
// would write.
//
// +check
func (h *Helpbot) CheckTidy(ctx context.Context) error {
	_, err := h.goContainer().
		WithExec([]string{"go", "mod", "tidy", "-diff"}).
		Sync(ctx)

	var e *dagger.ExecError
	if errors.As(err, &e) {
		return fmt.Errorf("run go mod tidy:\n%s", e.Stdout)
	}
	return err
}
