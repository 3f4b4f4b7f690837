package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"athenapt/internal/app"
)

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Resolve then map the binary closure onto its source build plan",
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

			names := make([]string, 0, len(plan.Entries))
			for _, e := range plan.Entries {
				names = append(names, e.Source.Name+"_"+e.Source.Version)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Sources []string `json:"sources"`
			}{Sources: names})
		},
	}
	return cmd
}
