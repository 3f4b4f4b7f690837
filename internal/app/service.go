package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"athenapt/internal/adapters"
	"athenapt/internal/core"
	"athenapt/internal/ports"
	"athenapt/internal/types"
)

// Service orchestrates the Resolve → Plan → Fetch → Build pipeline,
// single-threaded across phases per spec.md §5's scheduling model. Each
// phase's concurrency (if any) is internal to that phase's port
// implementation.
type Service struct {
	RecordStore ports.RecordStorePort
	Fetcher     ports.FetcherPort
	Builder     ports.BuilderPort
	Repository  ports.RepositoryPort
	Prompter    ports.PrompterPort
}

// NewService wires the production adapters for cfg. interactive selects
// between a terminal prompter and one that turns any ambiguous resolver
// choice into a failed selection.
func NewService(cfg types.Config, interactive bool) (Service, error) {
	keyring, err := adapters.LoadKeyringFile(cfg.Base.KeyringPath)
	if err != nil {
		return Service{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to load archive keyring").
			WithCause(err)
	}

	var prompter ports.PrompterPort = adapters.NonInteractivePrompter{}
	if interactive {
		prompter = adapters.NewStdinPrompter(os.Stdin, os.Stdout)
	}

	repo := adapters.NewRepositoryAdapter(cfg.Directories.Repo)
	driver := adapters.NewContainerDriverAdapter()
	logDir := filepath.Join(cfg.Directories.Work, "logs")

	return Service{
		RecordStore: adapters.NewRecordStoreAdapter(cfg.Directories.Cache, keyring),
		Fetcher:     adapters.NewFetcherAdapter(),
		Builder:     adapters.NewBuilderAdapter(driver, cfg.Directories.Repo, cfg.Directories.Patch, logDir),
		Repository:  repo,
		Prompter:    prompter,
	}, nil
}

// Resolve fetches the archive's dependency records and computes the
// closure over req.Seeds.
func (s Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	if len(req.Seeds) == 0 {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("at least one seed package is required")
	}

	cache, err := s.RecordStore.Load(ctx, req.Config.Base)
	if err != nil {
		return ResolveResult{}, err
	}

	resolver := core.NewResolver(cache, req.Config.Base.Arch, s.Prompter)
	rs, err := resolver.Resolve(req.Seeds)
	if err != nil {
		return ResolveResult{}, err
	}

	return ResolveResult{Cache: cache, Resolution: rs}, nil
}

// Plan maps the resolved binary closure onto its source packages and their
// build-dependency closures, in build order.
func (s Service) Plan(ctx context.Context, req PlanRequest) (*types.BuildPlan, error) {
	return core.PlanSources(req.Cache, req.Config.Base.Arch, req.Resolution)
}

// Fetch downloads every source file the plan references into the
// configured work directory. A per-file failure is returned in the failure
// list, not as an error — only a condition that aborts the whole fetch
// (e.g. an already-canceled context) returns a non-nil error.
func (s Service) Fetch(ctx context.Context, req FetchRequest, progress ports.ProgressSink) ([]types.FetchFailure, error) {
	destDir := filepath.Join(req.Config.Directories.Work, "pool")
	return s.Fetcher.Fetch(ctx, req.Plan, req.Config.Source, destDir, progress)
}

// Build runs each planned source through the container driver, recording
// a terminal status per entry. Sources named in req.FetchFailures are
// added to the skip list for this call only, so a source missing one or
// more files never reaches the container driver (spec.md §7 kind 6).
func (s Service) Build(ctx context.Context, req BuildRequest, progress ports.ProgressSink) ([]types.BuildEntry, error) {
	sourceDir := filepath.Join(req.Config.Directories.Work, "pool")

	cfg := req.Config.Build
	if len(req.FetchFailures) > 0 {
		skip := make(map[string]bool, len(cfg.SkipBuild))
		for _, name := range cfg.SkipBuild {
			skip[name] = true
		}
		for _, f := range req.FetchFailures {
			skip[f.Source] = true
		}
		names := make([]string, 0, len(skip))
		for name := range skip {
			names = append(names, name)
		}
		cfg.SkipBuild = names
	}

	return s.Builder.Build(ctx, req.Plan, cfg, sourceDir, s.Repository, progress)
}

// Run drives all four phases in sequence, stopping at the first phase
// that returns an error — per spec.md §5's cooperative single-threaded
// phase ordering (Resolve completes before Plan, Plan before Fetch, all
// of a source's files present before that source's Build).
func (s Service) Run(ctx context.Context, req RunRequest, progress ports.ProgressSink) (RunResult, error) {
	resolved, err := s.Resolve(ctx, ResolveRequest{Config: req.Config, Seeds: req.Seeds})
	if err != nil {
		return RunResult{}, err
	}

	plan, err := s.Plan(ctx, PlanRequest{Config: req.Config, Cache: resolved.Cache, Resolution: resolved.Resolution})
	if err != nil {
		return RunResult{}, err
	}

	failures, err := s.Fetch(ctx, FetchRequest{Config: req.Config, Plan: plan}, progress)
	if err != nil {
		return RunResult{}, err
	}

	entries, err := s.Build(ctx, BuildRequest{Config: req.Config, Plan: plan, FetchFailures: failures}, progress)
	if err != nil {
		return RunResult{}, err
	}

	return RunResult{Resolution: resolved.Resolution, Plan: plan, FetchFailures: failures, BuildResult: entries}, nil
}
