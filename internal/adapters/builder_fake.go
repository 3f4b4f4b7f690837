package adapters

import (
	"bytes"
	"context"
	"io"

	"athenapt/internal/ports"
)

// FakeContainerDriver is a scripted in-process ContainerDriverPort for unit
// tests, per spec.md §9's note that the container driver sits behind a
// small interface specifically so tests need not touch a real runtime.
type FakeContainerDriver struct {
	// ExitCodes maps source name to the exit code its build should report.
	// Missing entries default to 0.
	ExitCodes map[string]int

	// RunErrors maps source name to an error Run itself should return,
	// simulating a container-API failure (distinct from a nonzero exit).
	RunErrors map[string]error

	// Logs maps source name to the log output its handle should yield.
	Logs map[string]string

	Requests []ports.BuildRequest
}

func (f *FakeContainerDriver) BuildImage(ctx context.Context, dir, tag string) error {
	return nil
}

func (f *FakeContainerDriver) Run(ctx context.Context, req ports.BuildRequest) (ports.ContainerHandle, error) {
	f.Requests = append(f.Requests, req)
	if err, ok := f.RunErrors[req.Source.Name]; ok && err != nil {
		return nil, err
	}
	return &fakeContainerHandle{
		exitCode: f.ExitCodes[req.Source.Name],
		log:      f.Logs[req.Source.Name],
	}, nil
}

type fakeContainerHandle struct {
	exitCode int
	log      string
}

func (h *fakeContainerHandle) Wait(ctx context.Context) (int, error) {
	return h.exitCode, nil
}

func (h *fakeContainerHandle) Logs(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader([]byte(h.log))), nil
}

func (h *fakeContainerHandle) Stop(ctx context.Context) error { return nil }

func (h *fakeContainerHandle) Remove(ctx context.Context) error { return nil }

var _ ports.ContainerDriverPort = (*FakeContainerDriver)(nil)
