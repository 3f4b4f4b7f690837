package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"athenapt/internal/app"
	"athenapt/internal/ports"
	"athenapt/internal/types"
)

func newBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Resolve, plan, fetch, then build every planned source in a container",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, seeds, err := loadConfigAndSeeds(cmd)
			if err != nil {
				return err
			}
			svc, err := newAppService(cmd, cfg)
			if err != nil {
				return err
			}

			resolved, err := svc.Resolve(cmd.Context(), app.ResolveRequest{Config: cfg, Seeds: seeds})
			if err != nil {
				return err
			}
			plan, err := svc.Plan(cmd.Context(), app.PlanRequest{Config: cfg, Cache: resolved.Cache, Resolution: resolved.Resolution})
			if err != nil {
				return err
			}

			progress := ports.ProgressSinkFunc(func(e ports.ProgressEvent) {
				if e.Err != nil {
					log.Error().Str("subject", e.Subject).Err(e.Err).Msg("build phase event")
					return
				}
				log.Info().Str("subject", e.Subject).Bool("done", e.Done).Msg(e.Message)
			})

			failures, err := svc.Fetch(cmd.Context(), app.FetchRequest{Config: cfg, Plan: plan}, progress)
			if err != nil {
				return err
			}
			reportFetchFailures(failures)

			entries, err := svc.Build(cmd.Context(), app.BuildRequest{Config: cfg, Plan: plan, FetchFailures: failures}, progress)
			if err != nil {
				return err
			}
			return reportBuildResults(entries)
		},
	}
	return cmd
}

// reportFetchFailures logs each per-file fetch failure. These are not
// fatal — the sources they belong to are skipped by the following Build
// call rather than the whole run aborting (spec.md §7 kind 6).
func reportFetchFailures(failures []types.FetchFailure) {
	for _, f := range failures {
		log.Error().Str("source", f.Source).Str("file", f.File).Err(f.Err).Msg("fetch failed")
	}
	if len(failures) > 0 {
		printErr("%d source file(s) failed to fetch; affected sources will be skipped", len(failures))
	}
}

func reportBuildResults(entries []types.BuildEntry) error {
	failed := 0
	for _, e := range entries {
		log.Info().Str("source", e.Source.Name).Str("status", string(e.Status)).Msg("build entry")
		if e.Status == types.BuildFailed {
			failed++
		}
	}
	if failed > 0 {
		printErr("%d of %d sources failed to build", failed, len(entries))
	}
	return nil
}
