package ports

import (
	"context"
	"io"

	"athenapt/internal/types"
)

// BuildRequest describes one isolated container build invocation.
type BuildRequest struct {
	Image string
	User  string
	Work  string // container working directory

	// Host paths bind-mounted into the container.
	SourceDir string // -> /source, read-only shared directory the fetcher downloaded every source's files into
	RepoDir   string // -> /repo, the local repository (rw, for deposit)
	PatchDir  string // -> /patch, patches for this source (or the empty dir)

	Source types.SourcePackage
}

// ContainerHandle is a running (or just-finished) build container.
//
// Implementations are expected behind a small interface exactly per
// spec.md §9's design note, so unit tests can drive a scripted in-process
// fake instead of a real container runtime.
type ContainerHandle interface {
	Wait(ctx context.Context) (exitCode int, err error)
	Logs(ctx context.Context) (io.ReadCloser, error)
	Stop(ctx context.Context) error
	Remove(ctx context.Context) error
}

// ContainerDriverPort is component G's isolation boundary.
type ContainerDriverPort interface {
	// BuildImage ensures the build image referenced by configuration
	// exists, building it from the Dockerfile at dir if necessary.
	BuildImage(ctx context.Context, dir, tag string) error

	// Run starts a container per req and returns a handle to it. Run
	// itself does not block on completion; callers use Wait.
	Run(ctx context.Context, req BuildRequest) (ContainerHandle, error)
}

// BuilderPort is component G as seen by the orchestrator: build every
// entry in a plan. Entries already satisfied by the repository are skipped
// only when cfg.SkipExisting is set; otherwise every entry is built.
type BuilderPort interface {
	Build(ctx context.Context, plan *types.BuildPlan, cfg types.BuildConfig, sourceDir string, repo RepositoryPort, progress ProgressSink) ([]types.BuildEntry, error)
}
