package adapters

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"athenapt/internal/ports"
	"athenapt/internal/shared"
	"athenapt/internal/types"
)

const defaultBuildParallelism = 2

// BuilderAdapter implements component G's BuilderPort: it drives a
// ContainerDriverPort once per plan entry, bounded by cfg.Parallelism,
// recording a terminal BuildStatus on each entry rather than aborting the
// whole run on a single source's failure. A container API error (failure
// to even start the container) is the one thing that aborts the run —
// per spec.md §4.7's failure-handling split between container-API errors
// (fatal) and a non-zero build exit (recorded, the run continues).
type BuilderAdapter struct {
	Driver   ports.ContainerDriverPort
	RepoDir  string // host path bind-mounted into every build container as /repo
	PatchDir string // host path containing "source/<name>/<version>/*.patch" and "empty/"
	LogDir   string // host path per-source build logs are written under
}

func NewBuilderAdapter(driver ports.ContainerDriverPort, repoDir, patchDir, logDir string) *BuilderAdapter {
	return &BuilderAdapter{Driver: driver, RepoDir: repoDir, PatchDir: patchDir, LogDir: logDir}
}

func (b *BuilderAdapter) Build(ctx context.Context, plan *types.BuildPlan, cfg types.BuildConfig, sourceDir string, repo ports.RepositoryPort, progress ports.ProgressSink) ([]types.BuildEntry, error) {
	if progress == nil {
		progress = ports.NoopProgressSink
	}
	skip := make(map[string]bool, len(cfg.SkipBuild))
	for _, name := range cfg.SkipBuild {
		skip[name] = true
	}

	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = defaultBuildParallelism
	}
	if len(plan.Entries) < parallelism {
		parallelism = len(plan.Entries)
	}
	if parallelism == 0 {
		return nil, nil
	}
	sem := make(chan struct{}, parallelism)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var fatalErr error

	for _, entry := range plan.Entries {
		entry := entry
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			if skip[entry.Source.Name] {
				entry.Status = types.BuildFailed
				progress.Notify(ports.ProgressEvent{Phase: "build", Subject: entry.Source.Name, Message: "on skip list"})
				return
			}

			if cfg.SkipExisting {
				has, err := repo.Has(entry.Source.Name, entry.Source.Version, cfg.Arch)
				if err == nil && has {
					entry.Status = types.BuildSkipped
					progress.Notify(ports.ProgressEvent{Phase: "build", Subject: entry.Source.Name, Message: "already in repository", Done: true})
					return
				}
			}

			if err := b.buildOne(ctx, entry, cfg, sourceDir, progress); err != nil {
				var cerr *containerAPIError
				if asContainerAPIError(err, &cerr) {
					mu.Lock()
					if fatalErr == nil {
						fatalErr = err
						cancel()
					}
					mu.Unlock()
					return
				}
				entry.Status = types.BuildFailed
				progress.Notify(ports.ProgressEvent{Phase: "build", Subject: entry.Source.Name, Err: err})
				return
			}
			entry.Status = types.BuildSuccess
			progress.Notify(ports.ProgressEvent{Phase: "build", Subject: entry.Source.Name, Done: true})
		}()
	}

	wg.Wait()
	if fatalErr != nil {
		return nil, fatalErr
	}

	results := make([]types.BuildEntry, len(plan.Entries))
	for i, e := range plan.Entries {
		results[i] = *e
	}
	return results, nil
}

func (b *BuilderAdapter) buildOne(ctx context.Context, entry *types.BuildEntry, cfg types.BuildConfig, sourceDir string, progress ports.ProgressSink) error {
	req := ports.BuildRequest{
		Image:     cfg.Image,
		User:      cfg.User,
		Work:      cfg.WorkDir,
		SourceDir: sourceDir,
		RepoDir:   b.RepoDir,
		PatchDir:  b.patchDirFor(entry.Source),
		Source:    entry.Source,
	}

	handle, err := b.Driver.Run(ctx, req)
	if err != nil {
		return &containerAPIError{cause: err}
	}

	logPath := filepath.Join(b.LogDir, entry.Source.Name+".log")
	var tail []byte
	if logs, lerr := handle.Logs(ctx); lerr == nil {
		tail = streamLogs(logPath, logs, progress, entry.Source.Name)
	}

	exitCode, err := handle.Wait(ctx)
	_ = handle.Remove(ctx)
	if err != nil {
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("build container wait failed for " + entry.Source.Name).WithCause(err)
	}
	if exitCode != 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("build for %s exited %d", entry.Source.Name, exitCode)).
			WithCause(shared.BuildOutputError(tail, fmt.Errorf("exit %d", exitCode)))
	}
	return nil
}

// patchDirFor locates <patch>/source/<name>/<version>, falling back to
// <patch>/empty when the source has no patches of its own.
func (b *BuilderAdapter) patchDirFor(src types.SourcePackage) string {
	dir := filepath.Join(b.PatchDir, "source", src.Name, src.Version)
	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		return dir
	}
	return filepath.Join(b.PatchDir, "empty")
}

const buildErrorTailLines = 20

// streamLogs copies container output to a per-source log file, line by
// line, so a log tail is available while the build is still in progress.
// It returns the last buildErrorTailLines lines seen, for use in a
// non-zero-exit error without re-opening the log file.
func streamLogs(path string, r io.ReadCloser, progress ports.ProgressSink, subject string) []byte {
	defer r.Close()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	tail := make([]string, 0, buildErrorTailLines)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintln(f, line)
		progress.Notify(ports.ProgressEvent{Phase: "build", Subject: subject, Message: line})
		tail = append(tail, line)
		if len(tail) > buildErrorTailLines {
			tail = tail[1:]
		}
	}
	return []byte(strings.Join(tail, "\n"))
}

// containerAPIError marks a failure to even start/communicate with the
// container runtime, distinct from a build that ran and exited non-zero.
type containerAPIError struct{ cause error }

func (e *containerAPIError) Error() string { return "container API error: " + e.cause.Error() }
func (e *containerAPIError) Unwrap() error { return e.cause }

func asContainerAPIError(err error, target **containerAPIError) bool {
	for err != nil {
		if cerr, ok := err.(*containerAPIError); ok {
			*target = cerr
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

var _ ports.BuilderPort = (*BuilderAdapter)(nil)
