package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"athenapt/internal/app"
)

func newResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Compute the transitive dependency closure over the seed packages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, seeds, err := loadConfigAndSeeds(cmd)
			if err != nil {
				return err
			}
			svc, err := newAppService(cmd, cfg)
			if err != nil {
				return err
			}

			result, err := svc.Resolve(cmd.Context(), app.ResolveRequest{Config: cfg, Seeds: seeds})
			if err != nil {
				return err
			}

			summary := resolveSummary{
				Selected:   len(result.Resolution.Ordered()),
				Deferred:   len(result.Resolution.Deferred),
				Violations: len(result.Resolution.Violations),
				Advisories: len(result.Resolution.Advisories),
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
	return cmd
}

type resolveSummary struct {
	Selected   int `json:"selected"`
	Deferred   int `json:"deferred"`
	Violations int `json:"violations"`
	Advisories int `json:"advisories"`
}

func printErr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
