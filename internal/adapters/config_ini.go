package adapters

import (
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/viper"

	"athenapt/internal/types"
)

const envPrefix = "AVULAR_ATHENAPT"

// LoadConfig reads the INI config at path (if non-empty) through viper,
// overlaid with AVULAR_ATHENAPT_*-prefixed environment variables, and
// assembles a types.Config from the [Build]/[Base]/[Source]/[Directories]
// sections of spec.md §6.
func LoadConfig(path string) (types.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("ini")
		if err := v.ReadInConfig(); err != nil {
			return types.Config{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
	}

	cfg := types.Config{
		Build: types.BuildConfig{
			Arch:         v.GetString("build.arch"),
			Codename:     v.GetString("build.codename"),
			Version:      v.GetString("build.version"),
			Image:        defaultString(v.GetString("build.image"), "athenalinux:build"),
			User:         defaultString(v.GetString("build.user"), "athena"),
			WorkDir:      defaultString(v.GetString("build.workdir"), "/home/athena"),
			SkipExisting: v.GetBool("build.skipexisting"),
			Parallelism:  v.GetInt("build.parallelism"),
			SkipBuild:    splitNonEmpty(v.GetString("build.skipbuild")),
		},
		Base: types.BaseConfig{
			ArchiveURL:  v.GetString("base.baseurl"),
			Codename:    v.GetString("base.basecodename"),
			Arch:        defaultString(v.GetString("base.arch"), v.GetString("build.arch")),
			Components:  defaultComponents(splitNonEmpty(v.GetString("base.components"))),
			KeyringPath: v.GetString("base.keyring"),
		},
		Source: types.SourceConfig{
			ArchiveURL: defaultString(v.GetString("source.archiveurl"), v.GetString("base.baseurl")),
			SkipTest:   splitNonEmpty(v.GetString("source.skiptest")),
		},
		Directories: types.DirectoriesConfig{
			Cache: defaultString(v.GetString("directories.cache"), "./cache"),
			Work:  defaultString(v.GetString("directories.source"), "./work"),
			Patch: defaultString(v.GetString("directories.patch"), "./patch"),
			Repo:  defaultString(v.GetString("directories.repo"), "./repo"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg types.Config) error {
	if cfg.Base.ArchiveURL == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("[Base] baseurl is required")
	}
	if cfg.Base.Codename == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("[Base] BASECODENAME is required")
	}
	if cfg.Build.Arch == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("[Build] ARCH is required")
	}
	return nil
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func defaultComponents(v []string) []string {
	if len(v) == 0 {
		return []string{"main"}
	}
	return v
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
