package types

// BuildStatus is the terminal outcome of one source's build attempt.
type BuildStatus string

const (
	BuildPending BuildStatus = "pending"
	BuildSkipped BuildStatus = "skipped" // already present in repository
	BuildSuccess BuildStatus = "success"
	BuildFailed  BuildStatus = "failed"
)

// BuildEntry is one source package's place in the plan: what it is, what
// it build-depends on (already expanded against the cache), and where its
// fetched source files will land.
type BuildEntry struct {
	Source SourcePackage

	// BuildDepClosure is the set of binary names this source's
	// Build-Depends/Build-Depends-Indep resolved to, transitively, using
	// the same closure rules as the main resolver.
	BuildDepClosure []*BinaryPackage

	Status BuildStatus
}

// BuildPlan orders BuildEntry values so that a source never builds before
// a source it build-depends on (when such an ordering exists — cycles are
// broken by build order of first discovery, per spec.md's design note that
// the dependency graph is a name-keyed map, not a tree).
type BuildPlan struct {
	Entries []*BuildEntry
}

// Find returns the entry for a given source name, if planned.
func (p *BuildPlan) Find(name string) (*BuildEntry, bool) {
	for _, e := range p.Entries {
		if e.Source.Name == name {
			return e, true
		}
	}
	return nil, false
}

// FetchFailure records one source file that failed to download or failed
// its md5 check — a per-file FetchError (spec.md §7 kind 6). It does not
// abort the fetch of any other file; a source with one or more
// FetchFailures has its build skipped rather than attempted.
type FetchFailure struct {
	Source string
	File   string
	Err    error
}
