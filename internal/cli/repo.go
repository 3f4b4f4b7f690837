package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"athenapt/internal/adapters"
)

func newRepoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Inspect the local artifact repository",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfigAndSeeds(cmd)
			if err != nil {
				return err
			}
			repo := adapters.NewRepositoryAdapter(cfg.Directories.Repo)
			entries, err := repo.List()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		},
	}
	return cmd
}
