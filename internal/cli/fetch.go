package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"athenapt/internal/app"
	"athenapt/internal/ports"
)

func newFetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Resolve, plan, then download every planned source's files",
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
					log.Error().Str("subject", e.Subject).Err(e.Err).Msg("fetch failed")
					return
				}
				log.Info().Str("subject", e.Subject).Bool("done", e.Done).Msg(e.Message)
			})

			failures, err := svc.Fetch(cmd.Context(), app.FetchRequest{Config: cfg, Plan: plan}, progress)
			if err != nil {
				return err
			}
			reportFetchFailures(failures)
			return nil
		},
	}
	return cmd
}
