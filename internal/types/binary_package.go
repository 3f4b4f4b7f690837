package types

// Priority is a binary package's installation priority.
type Priority string

const (
	PriorityRequired  Priority = "required"
	PriorityImportant Priority = "important"
	PriorityStandard  Priority = "standard"
	PriorityOptional  Priority = "optional"
	PriorityExtra     Priority = "extra"
)

// SourceRef identifies the source package a binary was built from.
// Version defaults to the binary's own version when the Source field
// carries no explicit "(version)" suffix.
type SourceRef struct {
	Name    string
	Version string
}

// DebFile describes the .deb artifact a binary record points at.
type DebFile struct {
	Path string
	Size int64
	MD5  string
}

// BinaryPackage is a single (name, version, arch) binary record parsed out
// of a Packages control file.
type BinaryPackage struct {
	Name    string
	Version string
	Arch    string

	Source   SourceRef
	Priority Priority

	Provides    []Relation
	Depends     []Relation
	PreDepends  []Relation
	Recommends  []Relation
	Breaks      []Relation
	Conflicts   []Relation
	BuildDepend []Relation // unused on binary records; kept for symmetry

	Deb DebFile

	// Raw preserves the original Deb822 block for diagnostics.
	Raw Record
}

// Valid reports whether the record parses the minimum required fields and
// whether its architecture is compatible with the target.
func (p BinaryPackage) Valid(targetArch string) bool {
	if p.Name == "" || p.Version == "" {
		return false
	}
	return p.Arch == "all" || p.Arch == "any" || p.Arch == targetArch
}
