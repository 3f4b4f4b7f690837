package types

// Cache is the in-memory index of everything the record store has parsed
// out of Packages/Sources control files for one (codename, arch) pair.
//
// It is built once per run and passed by reference into the resolver and
// source planner; it is never a package-level singleton (multiple archive
// targets can be resolved against in the same process, e.g. a base archive
// plus a security overlay).
type Cache struct {
	// byName indexes binaries by the name they are themselves called.
	// Multiple versions of the same name can appear (different suites).
	byName map[string][]*BinaryPackage

	// byProvides indexes binaries by the virtual names they provide. A
	// provider is never inserted into byName for the virtual name — the
	// two indices are distinct, per the design note that Provides is a
	// lookup index, not a canonical name mapping.
	byProvides map[string][]*BinaryPackage

	sources map[string][]*SourcePackage
}

// NewCache returns an empty Cache ready for population.
func NewCache() *Cache {
	return &Cache{
		byName:     make(map[string][]*BinaryPackage),
		byProvides: make(map[string][]*BinaryPackage),
		sources:    make(map[string][]*SourcePackage),
	}
}

// AddBinary inserts a binary record into both indices.
func (c *Cache) AddBinary(p *BinaryPackage) {
	c.byName[p.Name] = append(c.byName[p.Name], p)
	for _, rel := range p.Provides {
		for _, atom := range rel.Atoms {
			c.byProvides[atom.Name] = append(c.byProvides[atom.Name], p)
		}
	}
}

// AddSource inserts a source record keyed by name.
func (c *Cache) AddSource(s *SourcePackage) {
	c.sources[s.Name] = append(c.sources[s.Name], s)
}

// ByName returns every binary record with the given real name, across all
// versions seen.
func (c *Cache) ByName(name string) []*BinaryPackage {
	return c.byName[name]
}

// ByProvides returns every binary that declares Provides on the given
// virtual name.
func (c *Cache) ByProvides(name string) []*BinaryPackage {
	return c.byProvides[name]
}

// Lookup returns every binary that could satisfy an atom naming either a
// real package or a virtual one: the real-name hits when there are any,
// otherwise the providers of that name (never both).
func (c *Cache) Lookup(name string) []*BinaryPackage {
	if direct := c.byName[name]; len(direct) > 0 {
		return direct
	}
	return c.byProvides[name]
}

// ByNameSnapshot returns the set of real package names currently indexed,
// for callers that need to enumerate the whole cache (e.g. the resolver's
// required/important priority harvest).
func (c *Cache) ByNameSnapshot() map[string]struct{} {
	out := make(map[string]struct{}, len(c.byName))
	for name := range c.byName {
		out[name] = struct{}{}
	}
	return out
}

// Source returns every source record with the given name, across all
// versions seen.
func (c *Cache) Source(name string) []*SourcePackage {
	return c.sources[name]
}

// SourceVersion returns the source record matching (name, version) exactly.
func (c *Cache) SourceVersion(name, version string) (*SourcePackage, bool) {
	for _, s := range c.sources[name] {
		if s.Version == version {
			return s, true
		}
	}
	return nil, false
}
