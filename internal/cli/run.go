package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"athenapt/internal/app"
	"athenapt/internal/ports"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run Resolve, Plan, Fetch, and Build in sequence",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, seeds, err := loadConfigAndSeeds(cmd)
			if err != nil {
				return err
			}
			svc, err := newAppService(cmd, cfg)
			if err != nil {
				return err
			}

			progress := ports.ProgressSinkFunc(func(e ports.ProgressEvent) {
				if e.Err != nil {
					log.Error().Str("phase", e.Phase).Str("subject", e.Subject).Err(e.Err).Msg("pipeline event")
					return
				}
				log.Info().Str("phase", e.Phase).Str("subject", e.Subject).Bool("done", e.Done).Msg(e.Message)
			})

			result, err := svc.Run(cmd.Context(), app.RunRequest{Config: cfg, Seeds: seeds}, progress)
			if err != nil {
				return err
			}
			reportFetchFailures(result.FetchFailures)
			return reportBuildResults(result.BuildResult)
		},
	}
	return cmd
}
