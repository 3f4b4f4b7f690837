package app

import "athenapt/internal/types"

// ResolveRequest drives the Resolve phase: load the upstream archive's
// records and compute the dependency closure over a set of seed names.
type ResolveRequest struct {
	Config types.Config
	Seeds  []string
}

// ResolveResult is the Resolve phase's output, carried forward into Plan.
type ResolveResult struct {
	Cache      *types.Cache
	Resolution *types.ResolutionSet
}

// PlanRequest drives the Plan phase.
type PlanRequest struct {
	Config     types.Config
	Cache      *types.Cache
	Resolution *types.ResolutionSet
}

// FetchRequest drives the Fetch phase.
type FetchRequest struct {
	Config types.Config
	Plan   *types.BuildPlan
}

// BuildRequest drives the Build phase. FetchFailures names sources that had
// at least one file fail to download — Build skips each of them rather than
// attempting a build against an incomplete source tree (spec.md §7 kind 6).
type BuildRequest struct {
	Config        types.Config
	Plan          *types.BuildPlan
	FetchFailures []types.FetchFailure
}

// RunRequest drives all four phases in sequence.
type RunRequest struct {
	Config types.Config
	Seeds  []string
}

// RunResult is the accumulated output of a full Resolve→Plan→Fetch→Build
// run.
type RunResult struct {
	Resolution    *types.ResolutionSet
	Plan          *types.BuildPlan
	FetchFailures []types.FetchFailure
	BuildResult   []types.BuildEntry
}
