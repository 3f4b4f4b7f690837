package adapters

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"athenapt/internal/ports"
	"athenapt/internal/types"
)

const defaultFetchWorkers = 4

// FetcherAdapter implements component F: it downloads a source's Files
// list into destDir, skipping any file already present and md5-valid, and
// validating each freshly downloaded file against its recorded md5sum.
// Per spec.md, a download that fails md5 validation is a FetchError — it
// is not retried beyond the single download attempt the md5 check gates.
type FetcherAdapter struct {
	HTTP    httpRetryConfig
	Workers int
}

func NewFetcherAdapter() *FetcherAdapter {
	return &FetcherAdapter{HTTP: normalizeHTTPConfig(0, 0, 0), Workers: defaultFetchWorkers}
}

// Fetch downloads every file every plan entry needs. Per spec.md §4.6 and
// §7 kind 6, a single file's transport or md5 failure is recorded against
// that source and does not stop any other file's download — only a
// caller-canceled context aborts the whole fetch.
func (f *FetcherAdapter) Fetch(ctx context.Context, plan *types.BuildPlan, cfg types.SourceConfig, destDir string, progress ports.ProgressSink) ([]types.FetchFailure, error) {
	if progress == nil {
		progress = ports.NoopProgressSink
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := trimSlash(cfg.ArchiveURL)

	var jobs []struct {
		source types.SourcePackage
		file   types.SourceFile
	}
	for _, entry := range plan.Entries {
		for _, file := range entry.Source.Files {
			jobs = append(jobs, struct {
				source types.SourcePackage
				file   types.SourceFile
			}{entry.Source, file})
		}
	}

	workers := f.Workers
	if workers <= 0 {
		workers = defaultFetchWorkers
	}
	if len(jobs) < workers {
		workers = len(jobs)
	}
	if workers == 0 {
		return nil, nil
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []types.FetchFailure

	for _, job := range jobs {
		job := job
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			err := f.fetchOne(ctx, base, job.source, job.file, destDir, progress)
			if err != nil {
				mu.Lock()
				failures = append(failures, types.FetchFailure{Source: job.source.Name, File: job.file.Name, Err: err})
				mu.Unlock()
				progress.Notify(ports.ProgressEvent{Phase: "fetch", Subject: job.file.Name, Err: err})
			}
		}()
	}

	wg.Wait()
	return failures, nil
}

func (f *FetcherAdapter) fetchOne(ctx context.Context, archiveBase string, src types.SourcePackage, file types.SourceFile, destDir string, progress ports.ProgressSink) error {
	destPath := filepath.Join(destDir, file.Name)

	if valid, _ := fileMatchesMD5(destPath, file.MD5); valid {
		progress.Notify(ports.ProgressEvent{Phase: "fetch", Subject: file.Name, Message: "already present", Done: true})
		return nil
	}

	url := fmt.Sprintf("%s/%s/%s", archiveBase, src.Directory, file.Name)
	resp, err := doRequest(ctx, url, f.HTTP)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("failed to fetch source file " + file.Name).
			WithCause(err)
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to create source directory").WithCause(err)
	}

	tmpPath := destPath + ".part"
	out, err := os.Create(tmpPath)
	if err != nil {
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to create destination file").WithCause(err)
	}

	hasher := md5.New()
	if _, err := io.Copy(io.MultiWriter(out, hasher), resp.Body); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed writing " + file.Name).WithCause(err)
	}
	out.Close()

	sum := hex.EncodeToString(hasher.Sum(nil))
	if sum != file.MD5 {
		os.Remove(tmpPath)
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("md5 mismatch for %s: got %s want %s", file.Name, sum, file.MD5))
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to finalize " + file.Name).WithCause(err)
	}

	progress.Notify(ports.ProgressEvent{Phase: "fetch", Subject: file.Name, Done: true})
	return nil
}

// fileMatchesMD5 reports whether a file already at path matches the
// expected md5sum, so a re-run can skip a valid download without
// re-fetching anything — spec.md's fetch-idempotence law.
func fileMatchesMD5(path, expectedMD5 string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	hasher := md5.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return false, err
	}
	return hex.EncodeToString(hasher.Sum(nil)) == expectedMD5, nil
}

var _ ports.FetcherPort = (*FetcherAdapter)(nil)
