package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/helpbot/internal/dagger"
)

// Build returns a directory with the helpbot binary for linux on each
// supported architecture. CGO is required, so each architecture builds on
// its own platform.
func (h *Helpbot) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	platforms := []dagger.Platform{"linux/amd64", "linux/arm64"}

	outputs := dag.Directory()

	for _, platform := range platforms {
		path := string(platform) + "/"

		build := dag.Container(dagger.ContainerOpts{Platform: platform}).
			From("golang:1.25-bookworm").
			WithExec([]string{"apt-get", "update"}).
			WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
			WithEnvVariable("CGO_ENABLED", "1").
			WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
			WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build-"+strings.ReplaceAll(string(platform), "/", "-"))).
			WithDirectory("/src", h.Source).
			WithWorkdir("/src").
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/helpbot"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (h *Helpbot) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/helpbot/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/helpbot/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/helpbot/pkg/utils.Buildtime=%s'", buildtime),
	}

	return h.Build(ctx, strings.Join(ldflags, " "))
}
