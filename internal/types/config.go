package types

// Config is the fully resolved run configuration, assembled from the INI
// config file and AVULAR_ATHENAPT_* environment overrides (environment
// taking precedence — viper's own precedence rules). No CLI flag feeds
// into it.
type Config struct {
	Build       BuildConfig
	Base        BaseConfig
	Source      SourceConfig
	Directories DirectoriesConfig
}

// BuildConfig is the "[Build]" section: how a build container is invoked.
type BuildConfig struct {
	Arch     string // target architecture of the derivative distribution, e.g. "amd64"
	Codename string // derivative distribution codename
	Version  string // derivative distribution version string

	Image        string   // container image tag, e.g. "athenalinux:build"
	User         string   // e.g. "athena"
	WorkDir      string   // e.g. "/home/athena"
	SkipExisting bool     // short-circuit a source already in the repository
	Parallelism  int      // bounded worker pool size for component G
	SkipBuild    []string // known-bad source names to short-circuit as failed without attempting a build
}

// BaseConfig is the "[Base]" section: identifies the upstream archive.
type BaseConfig struct {
	ArchiveURL string
	Codename   string
	Arch       string
	Components []string

	// KeyringPath, when set, is an armored OpenPGP public keyring used to
	// verify InRelease's clearsign wrapper. Empty disables verification.
	KeyringPath string
}

// SourceConfig is the "[Source]" section: where to reach source pool
// files, independent of the binary archive mirror.
type SourceConfig struct {
	ArchiveURL string
	SkipTest   []string // source names read from [Source] SkipTest; the builder does not consult this list, so tests are not disabled for them
}

// DirectoriesConfig is the "[Directories]" section: local filesystem
// layout for cache, downloaded sources, patches, and the output repo.
type DirectoriesConfig struct {
	Cache string
	Work  string
	Patch string
	Repo  string
}
