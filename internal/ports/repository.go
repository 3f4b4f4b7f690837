package ports

import "athenapt/internal/types"

// RepositoryPort is component H: the flat directory of certified .deb
// artifacts that builds deposit into.
type RepositoryPort interface {
	// Has reports whether a well-formed artifact for (name, version,
	// arch) already exists in the repository.
	Has(name, version, arch string) (bool, error)

	// Add moves (atomically, same-filesystem rename) a built artifact
	// into the repository after verifying it is a well-formed .deb.
	Add(srcPath string) error

	// List returns every artifact currently in the repository.
	List() ([]types.DebFile, error)
}

// PrompterPort is the injected capability for resolving ambiguity the
// resolver itself refuses to decide automatically: tied candidate versions
// and several providers of one virtual name. Deferred alternatives are
// never passed to it. A non-interactive run supplies an implementation
// that always errors, turning an ambiguity into a failed selection
// instead of blocking.
type PrompterPort interface {
	Choose(prompt string, options []string) (string, error)
}
