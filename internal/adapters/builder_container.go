package adapters

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/testcontainers/testcontainers-go"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"athenapt/internal/ports"
)

// ContainerDriverAdapter implements component G's ContainerDriverPort over
// testcontainers-go, the same library the teacher uses for its integration
// tests. Here it drives real, short-lived build containers rather than
// ephemeral test fixtures, bind-mounting the source, repository and patch
// directories instead of copying files in and out.
type ContainerDriverAdapter struct{}

func NewContainerDriverAdapter() *ContainerDriverAdapter {
	return &ContainerDriverAdapter{}
}

func (d *ContainerDriverAdapter) BuildImage(ctx context.Context, dir, tag string) error {
	req := testcontainers.ContainerRequest{
		FromDockerfile: testcontainers.FromDockerfile{
			Context:    dir,
			Dockerfile: "Dockerfile",
			Tag:        tag,
			KeepImage:  true,
		},
	}
	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to obtain docker provider").WithCause(err)
	}
	defer provider.Close()

	if _, _, err := provider.BuildImage(ctx, &req); err != nil {
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to build image " + tag).WithCause(err)
	}
	return nil
}

func (d *ContainerDriverAdapter) Run(ctx context.Context, req ports.BuildRequest) (ports.ContainerHandle, error) {
	genReq := testcontainers.ContainerRequest{
		Image: req.Image,
		User:  req.User,
		Cmd:   []string{"/bin/sh", "/build/entrypoint.sh"},
		Mounts: testcontainers.ContainerMounts{
			{Source: testcontainers.GenericBindMountSource{HostPath: req.SourceDir}, Target: "/source", ReadOnly: true},
			{Source: testcontainers.GenericBindMountSource{HostPath: req.RepoDir}, Target: "/repo"},
			{Source: testcontainers.GenericBindMountSource{HostPath: req.PatchDir}, Target: "/patch", ReadOnly: true},
		},
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.AutoRemove = false
		},
		WorkingDir: req.Work,
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: genReq,
		Started:          true,
	})
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to start build container for %s", req.Source.Name)).
			WithCause(err)
	}

	return &containerHandle{container: c}, nil
}

// containerHandle adapts a testcontainers.Container into the small
// ContainerHandle interface spec.md §9 calls for, so that unit tests can
// substitute a scripted fake instead of a real container runtime.
type containerHandle struct {
	container testcontainers.Container
}

func (h *containerHandle) Wait(ctx context.Context) (int, error) {
	for {
		state, err := h.container.State(ctx)
		if err != nil {
			return -1, err
		}
		if !state.Running {
			return state.ExitCode, nil
		}
		select {
		case <-ctx.Done():
			return -1, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (h *containerHandle) Logs(ctx context.Context) (io.ReadCloser, error) {
	return h.container.Logs(ctx)
}

func (h *containerHandle) Stop(ctx context.Context) error {
	timeout := 30 * time.Second
	return h.container.Stop(ctx, &timeout)
}

func (h *containerHandle) Remove(ctx context.Context) error {
	return h.container.Terminate(ctx)
}

var _ ports.ContainerDriverPort = (*ContainerDriverAdapter)(nil)
