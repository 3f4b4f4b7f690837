package core

import (
	"fmt"
	"sync"

	"athenapt/internal/types"
	debversion "github.com/knqyf263/go-deb-version"
)

// versionCache memoizes parsed Debian versions so a resolver pass that
// compares the same version string against many atoms only pays the
// parse cost once. Grounded in the teacher's versionCache for pep440/deb
// comparisons, trimmed to the single Debian-version scheme this domain
// needs.
type versionCache struct {
	mu     sync.Mutex
	parsed map[string]debversion.Version
}

func newVersionCache() *versionCache {
	return &versionCache{parsed: make(map[string]debversion.Version)}
}

func (c *versionCache) get(raw string) (debversion.Version, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.parsed[raw]; ok {
		return v, nil
	}
	v, err := debversion.NewVersion(raw)
	if err != nil {
		return debversion.Version{}, fmt.Errorf("parse debian version %q: %w", raw, err)
	}
	c.parsed[raw] = v
	return v, nil
}

// compareVersions returns -1, 0, or 1 as a compares to b, Debian-ordering
// rules (epoch, upstream version, debian revision).
func compareVersions(vc *versionCache, a, b string) (int, error) {
	va, err := vc.get(a)
	if err != nil {
		return 0, err
	}
	vb, err := vc.get(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

// satisfies reports whether candidate satisfies a single atom's version
// constraint. An atom with ConstraintOpNone is satisfied by any version.
func satisfies(vc *versionCache, atom types.Atom, candidate string) (bool, error) {
	if atom.Op == types.ConstraintOpNone {
		return true, nil
	}
	cmp, err := compareVersions(vc, candidate, atom.Version)
	if err != nil {
		return false, err
	}
	switch atom.Op {
	case types.ConstraintOpEq:
		return cmp == 0, nil
	case types.ConstraintOpLt:
		return cmp < 0, nil
	case types.ConstraintOpLe:
		return cmp <= 0, nil
	case types.ConstraintOpGe:
		return cmp >= 0, nil
	case types.ConstraintOpGt:
		return cmp > 0, nil
	default:
		return false, fmt.Errorf("unknown constraint operator %q", atom.Op)
	}
}

// latest returns the index of the highest-versioned package among
// candidates, or -1 if candidates is empty or a version fails to parse.
func latest(vc *versionCache, candidates []*types.BinaryPackage) (int, error) {
	if len(candidates) == 0 {
		return -1, nil
	}
	best := 0
	for i := 1; i < len(candidates); i++ {
		cmp, err := compareVersions(vc, candidates[i].Version, candidates[best].Version)
		if err != nil {
			return -1, err
		}
		if cmp > 0 {
			best = i
		}
	}
	return best, nil
}
