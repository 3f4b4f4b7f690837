package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"athenapt/internal/adapters"
	"athenapt/internal/app"
	"athenapt/internal/types"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "AVULAR_ATHENAPT"

type RootConfig struct {
	ConfigFile  string
	LogLevel    string
	LogJSON     bool
	Interactive bool
}

func Execute() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		log.Error().Msg(errorMessage(err))
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:     "athenapt",
		Short:   "Build a derivative binary-package distribution from an upstream archive",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(cfg.LogLevel, cfg.LogJSON)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file path (INI)")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	cmd.PersistentFlags().BoolVar(&cfg.LogJSON, "log-json", false, "Emit structured JSON logs")
	cmd.PersistentFlags().BoolVar(&cfg.Interactive, "interactive", false, "Prompt on the terminal for ambiguous resolver choices")
	cmd.PersistentFlags().StringSlice("seed", nil, "Seed package name (repeatable)")
	cmd.PersistentFlags().String("seed-file", "", "Plaintext seed list file")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(newResolveCommand())
	cmd.AddCommand(newPlanCommand())
	cmd.AddCommand(newFetchCommand())
	cmd.AddCommand(newBuildCommand())
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newRepoCommand())
	return cmd
}

func setupLogging(level string, asJSON bool) {
	if !asJSON {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func exitCodeForError(err error) int {
	code := errbuilder.CodeOf(err)
	switch code {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists:
		return 2
	case errbuilder.CodeFailedPrecondition:
		return 3
	case errbuilder.CodePermissionDenied:
		return 4
	case errbuilder.CodeNotFound:
		return 5
	case errbuilder.CodeInternal:
		return 6
	default:
		return 1
	}
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}

// loadConfigAndSeeds is shared setup every phase subcommand performs:
// load the INI config (if any) and gather the seed package list from
// --seed flags and/or --seed-file.
func loadConfigAndSeeds(cmd *cobra.Command) (types.Config, []string, error) {
	configFile, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := adapters.LoadConfig(configFile)
	if err != nil {
		return types.Config{}, nil, err
	}

	seeds, _ := cmd.Root().PersistentFlags().GetStringSlice("seed")
	seedFile, _ := cmd.Root().PersistentFlags().GetString("seed-file")
	if seedFile != "" {
		f, err := os.Open(seedFile)
		if err != nil {
			return types.Config{}, nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to open seed file").
				WithCause(err)
		}
		defer f.Close()
		fromFile, err := adapters.ParseSeedList(f)
		if err != nil {
			return types.Config{}, nil, err
		}
		seeds = append(seeds, fromFile...)
	}

	return cfg, seeds, nil
}

func newAppService(cmd *cobra.Command, cfg types.Config) (app.Service, error) {
	interactive, _ := cmd.Root().PersistentFlags().GetBool("interactive")
	return app.NewService(cfg, interactive)
}
