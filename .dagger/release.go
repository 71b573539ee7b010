package main

import (
	"context"
	"fmt"

	"dagger/helpbot/internal/dagger"
)

const (
	runtimeImage = "debian:bookworm-slim"
	serveListen  = 8501
)

var releaseArchs = []string{"amd64", "arm64"}

// Dist packages the release binaries as one tarball per architecture,
// named helpbot_<version>_linux_<arch>.tar.gz, plus a checksums.txt.
func (h *Helpbot) Dist(
	ctx context.Context,

	// Version string (e.g., "v1.0.0")
	version string,

	// Git commit SHA
	commit string,
) *dagger.Directory {
	bins := h.BuildRelease(ctx, version, commit)

	script := "set -e\n"
	for _, arch := range releaseArchs {
		script += fmt.Sprintf(
			"tar -czf /out/helpbot_%s_linux_%s.tar.gz -C /in/linux/%s helpbot\n",
			version, arch, arch,
		)
	}
	script += "cd /out && sha256sum *.tar.gz > checksums.txt\n"

	return dag.Container().
		From(runtimeImage).
		WithDirectory("/in", bins).
		WithExec([]string{"mkdir", "-p", "/out"}).
		WithExec([]string{"sh", "-c", script}).
		Directory("/out")
}

// Image returns a container that runs "helpbot serve" for one architecture.
// When a corpus is given it is copied to /srv/aws_docs, where the default
// corpus.root points once the working directory is /srv.
func (h *Helpbot) Image(
	ctx context.Context,

	// Version string (e.g., "v1.0.0")
	version string,

	// Git commit SHA
	commit string,

	// Target architecture
	// +optional
	// +default="amd64"
	arch string,

	// Directory holding the lambda/ and sagemaker/ HTML collections
	// +optional
	corpus *dagger.Directory,
) *dagger.Container {
	bins := h.BuildRelease(ctx, version, commit)
	platform := dagger.Platform("linux/" + arch)

	ctr := dag.Container(dagger.ContainerOpts{Platform: platform}).
		From(runtimeImage).
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "--no-install-recommends", "ca-certificates"}).
		WithFile("/usr/local/bin/helpbot", bins.File(fmt.Sprintf("linux/%s/helpbot", arch))).
		WithLabel("org.opencontainers.image.title", "helpbot").
		WithLabel("org.opencontainers.image.version", version).
		WithLabel("org.opencontainers.image.revision", commit).
		WithWorkdir("/srv")

	if corpus != nil {
		ctr = ctr.WithDirectory("/srv/aws_docs", corpus)
	}

	return ctr.
		WithExposedPort(serveListen).
		WithEntrypoint([]string{"helpbot"}).
		WithDefaultArgs([]string{"serve", "--listen", fmt.Sprintf(":%d", serveListen), "--json-logs"})
}

// PublishImage pushes the image built by Image to address and returns the
// published reference.
func (h *Helpbot) PublishImage(
	ctx context.Context,

	// Image reference (e.g., "ghcr.io/papercomputeco/helpbot:v1.0.0")
	address string,

	// Version string (e.g., "v1.0.0")
	version string,

	// Git commit SHA
	commit string,

	// Registry username
	username string,

	// Registry password or token
	password *dagger.Secret,

	// Target architecture
	// +optional
	// +default="amd64"
	arch string,

	// Directory holding the lambda/ and sagemaker/ HTML collections
	// +optional
	corpus *dagger.Directory,
) (string, error) {
	ref, err := h.Image(ctx, version, commit, arch, corpus).
		WithRegistryAuth(address, username, password).
		Publish(ctx, address)
	if err != nil {
		return "", fmt.Errorf("could not publish %s: %w", address, err)
	}
	return ref, nil
}
