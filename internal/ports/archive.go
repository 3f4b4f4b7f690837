package ports

import (
	"context"

	"athenapt/internal/types"
)

// RecordStorePort is component B: it turns an upstream archive location
// into a populated Cache. Implementations own HTTP fetch, decompression,
// release-manifest verification, and on-disk caching; callers never see
// those details.
type RecordStorePort interface {
	// Load fetches (or re-uses a cached, still-valid copy of) the release
	// manifest and every Packages/Sources file it references for the
	// configured components and architecture, and returns a populated
	// Cache.
	Load(ctx context.Context, cfg types.BaseConfig) (*types.Cache, error)
}

// FetcherPort is component F: given a resolved BuildPlan, it downloads the
// source files each entry needs into the working directory, validating
// each against its recorded md5sum and skipping files already valid
// on disk. A per-file transport or md5 failure is recorded in the
// returned failure list rather than aborting sibling downloads; the
// returned error is reserved for a condition that aborts the whole fetch
// (e.g. the caller's context was already canceled).
type FetcherPort interface {
	Fetch(ctx context.Context, plan *types.BuildPlan, cfg types.SourceConfig, destDir string, progress ProgressSink) ([]types.FetchFailure, error)
}

// ProgressSink receives best-effort, non-blocking progress notifications.
// Implementations must not block the caller; a full channel or slow sink
// drops events rather than stall the pipeline (per spec.md §5).
type ProgressSink interface {
	Notify(event ProgressEvent)
}

// ProgressEvent is one unit of observable pipeline progress.
type ProgressEvent struct {
	Phase   string // "fetch", "build", etc.
	Subject string // package/source name
	Message string
	Done    bool
	Err     error
}

// ProgressSinkFunc adapts a plain function to ProgressSink.
type ProgressSinkFunc func(ProgressEvent)

func (f ProgressSinkFunc) Notify(e ProgressEvent) { f(e) }

// NoopProgressSink discards every event.
var NoopProgressSink ProgressSink = ProgressSinkFunc(func(ProgressEvent) {})
