package core

import (
	"fmt"
	"regexp"
	"sort"

	"athenapt/internal/ports"
	"athenapt/internal/types"
)

// gccVersionedName matches package names like "gcc-12" so the resolver can
// apply the "pick the latest major" edge policy spec.md calls out for the
// gcc-N family of alternatives.
var gccVersionedName = regexp.MustCompile(`^([a-z0-9.+-]+)-([0-9]+)$`)

// Resolver implements component D: a depth-first, greedy, constraint-
// checked transitive closure over a Cache. It is deliberately NOT a SAT
// solver — candidate ties are settled by the ranked policy in choose(),
// alternatives are deferred rather than picked, and no selection is ever
// backtracked.
type Resolver struct {
	cache    *types.Cache
	arch     string
	vc       *versionCache
	prompter ports.PrompterPort
}

// NewResolver returns a Resolver bound to cache for the given target
// architecture. prompter may be nil, in which case any choice that would
// otherwise require prompting (ambiguous versions or ambiguous virtual
// providers, spec.md §4.4 steps 2 and 4) fails instead of blocking.
func NewResolver(cache *types.Cache, arch string, prompter ports.PrompterPort) *Resolver {
	return &Resolver{cache: cache, arch: arch, vc: newVersionCache(), prompter: prompter}
}

// Resolve computes the transitive closure rooted at seeds.
func (r *Resolver) Resolve(seeds []string) (*types.ResolutionSet, error) {
	rs := types.NewResolutionSet()

	queue := make([]*types.BinaryPackage, 0, len(seeds))
	for _, name := range seeds {
		pkg, err := r.choose(name, types.Atom{Name: name})
		if err != nil {
			rs.Violations = append(rs.Violations, types.ConstraintViolation{Atom: types.Atom{Name: name}, Reason: err.Error()})
			continue
		}
		if pkg == nil {
			rs.Violations = append(rs.Violations, types.ConstraintViolation{Atom: types.Atom{Name: name}, Reason: "no candidate package found"})
			continue
		}
		queue = append(queue, pkg)
	}

	if err := r.drain(rs, queue); err != nil {
		return nil, err
	}

	var harvested []string
	r.harvestPriorities(rs, &harvested)
	seeds2 := make([]*types.BinaryPackage, 0, len(harvested))
	for _, name := range harvested {
		if rs.Has(name) {
			continue
		}
		pkg, err := r.choose(name, types.Atom{Name: name})
		if err != nil || pkg == nil {
			continue
		}
		seeds2 = append(seeds2, pkg)
	}
	if err := r.drain(rs, seeds2); err != nil {
		return nil, err
	}

	unsatisfied := rs.Deferred[:0]
	for _, d := range rs.Deferred {
		if !satisfiedByExisting(rs, d.Relation) {
			unsatisfied = append(unsatisfied, d)
		}
	}
	rs.Deferred = unsatisfied

	r.collectAdvisories(rs)
	return rs, nil
}

// drain adds every package in queue (and everything it transitively pulls
// in) to rs, following the same firm/alternative rules as Resolve.
func (r *Resolver) drain(rs *types.ResolutionSet, queue []*types.BinaryPackage) error {
	for len(queue) > 0 {
		pkg := queue[0]
		queue = queue[1:]

		if !rs.Add(pkg) {
			continue
		}

		next, err := r.processDependencies(rs, pkg)
		if err != nil {
			return err
		}
		queue = append(queue, next...)
	}
	return nil
}

// processDependencies walks one package's Depends/Pre-Depends, resolving
// firm relations immediately and deferring alternatives per R3/R4.
func (r *Resolver) processDependencies(rs *types.ResolutionSet, pkg *types.BinaryPackage) ([]*types.BinaryPackage, error) {
	var next []*types.BinaryPackage
	for _, rel := range append(append([]types.Relation{}, pkg.PreDepends...), pkg.Depends...) {
		rel := filterRelationArch(rel, r.arch)
		if len(rel.Atoms) == 0 {
			continue
		}

		if satisfiedByExisting(rs, rel) {
			continue
		}

		if !rel.Firm() {
			rs.Deferred = append(rs.Deferred, types.DeferredAlternative{Owner: pkg.Name, Relation: rel})
			continue
		}

		atom := rel.Atoms[0]
		if rs.Has(atom.Name) {
			continue
		}

		candidate, err := r.choose(atom.Name, atom)
		if err != nil {
			rs.Violations = append(rs.Violations, types.ConstraintViolation{
				Owner: pkg.Name, Atom: atom, Reason: err.Error(),
			})
			continue
		}
		if candidate == nil {
			rs.Violations = append(rs.Violations, types.ConstraintViolation{
				Owner: pkg.Name, Atom: atom, Reason: "no candidate satisfies constraint",
			})
			continue
		}
		next = append(next, candidate)
	}
	return next, nil
}

// choose selects one candidate binary for atom among every package the
// cache knows under that real or virtual name, applying spec.md §4.4's
// candidate-choice algorithm:
//
//  1. If exactly one direct candidate (real Name match) exists, choose it.
//  2. If multiple direct candidates exist, choose the maximum version; on
//     a tie, prompt with the tied versions as options.
//  3. If no direct candidates but exactly one virtual candidate (a
//     Provides match), choose it.
//  4. If multiple virtual candidates, prompt with the provider names; a
//     nil or failing prompter turns this into a failure, not a silent pick.
//
// The gcc-N family is the one documented exception to the prompting in
// step 4: when every provider of a virtual name is a gcc-N-style name,
// gcc-12 and gcc-13 compare as unrelated package names, so the highest
// numeric suffix wins deterministically instead of prompting.
func (r *Resolver) choose(name string, atom types.Atom) (*types.BinaryPackage, error) {
	candidates := r.cache.Lookup(name)
	if len(candidates) == 0 {
		return nil, nil
	}

	direct := make([]*types.BinaryPackage, 0, len(candidates))
	for _, c := range candidates {
		if c.Name == name {
			direct = append(direct, c)
		}
	}
	isVirtual := len(direct) == 0
	if !isVirtual {
		candidates = direct
	}

	if atom.Op != types.ConstraintOpNone {
		filtered := candidates[:0:0]
		for _, c := range candidates {
			ok, err := satisfies(r.vc, atom, c.Version)
			if err != nil {
				return nil, err
			}
			if ok {
				filtered = append(filtered, c)
			}
		}
		if len(filtered) == 0 {
			return nil, fmt.Errorf("no version of %q satisfies %s %s", name, atom.Op, atom.Version)
		}
		candidates = filtered
	}

	if len(candidates) == 1 {
		return candidates[0], nil
	}

	gccProviders := isVirtual
	for _, c := range candidates {
		if !isGCCFamily(c.Name) {
			gccProviders = false
		}
	}
	if gccProviders {
		sort.Slice(candidates, func(i, j int) bool {
			return gccSuffix(candidates[i].Name) > gccSuffix(candidates[j].Name)
		})
		return candidates[0], nil
	}

	if isVirtual {
		return r.chooseVirtual(name, candidates)
	}
	return r.chooseDirect(name, candidates)
}

// chooseDirect picks the maximum-version candidate, prompting on a tie
// (spec.md §4.4 step 2).
func (r *Resolver) chooseDirect(name string, candidates []*types.BinaryPackage) (*types.BinaryPackage, error) {
	tied := []*types.BinaryPackage{candidates[0]}
	for _, c := range candidates[1:] {
		cmp, err := compareVersions(r.vc, c.Version, tied[0].Version)
		if err != nil {
			return nil, err
		}
		switch {
		case cmp > 0:
			tied = []*types.BinaryPackage{c}
		case cmp == 0:
			tied = append(tied, c)
		}
	}
	if len(tied) == 1 {
		return tied[0], nil
	}

	options := make([]string, len(tied))
	for i, c := range tied {
		options[i] = c.Version
	}
	choice, err := r.prompt(fmt.Sprintf("multiple versions of %q available", name), options)
	if err != nil {
		return nil, err
	}
	for _, c := range tied {
		if c.Version == choice {
			return c, nil
		}
	}
	return nil, fmt.Errorf("prompter returned %q, not one of the offered versions of %q", choice, name)
}

// chooseVirtual prompts for which provider of a virtual name to select
// when more than one exists (spec.md §4.4 step 4).
func (r *Resolver) chooseVirtual(name string, candidates []*types.BinaryPackage) (*types.BinaryPackage, error) {
	options := make([]string, len(candidates))
	for i, c := range candidates {
		options[i] = c.Name
	}
	choice, err := r.prompt(fmt.Sprintf("multiple providers of virtual package %q", name), options)
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		if c.Name == choice {
			return c, nil
		}
	}
	return nil, fmt.Errorf("prompter returned %q, not one of the offered providers of %q", choice, name)
}

// prompt asks r.prompter to resolve an ambiguity. A nil prompter fails
// immediately rather than blocking — the non-interactive case spec.md
// §4.4 step 4 calls out explicitly, applied uniformly to step 2 as well.
func (r *Resolver) prompt(question string, options []string) (string, error) {
	if r.prompter == nil {
		return "", fmt.Errorf("ambiguous choice requires a decision and no interactive prompter is configured: %s %v", question, options)
	}
	return r.prompter.Choose(question, options)
}

func isGCCFamily(name string) bool {
	return gccVersionedName.MatchString(name)
}

func gccSuffix(name string) int {
	m := gccVersionedName.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	var n int
	fmt.Sscanf(m[2], "%d", &n)
	return n
}

// satisfiedByExisting reports whether any atom of rel is already met by a
// package already in the closure.
func satisfiedByExisting(rs *types.ResolutionSet, rel types.Relation) bool {
	for _, atom := range rel.Atoms {
		if _, ok := rs.Selected[atom.Name]; ok {
			// Version already fixed by prior selection; trust it — the
			// resolver never unwinds a prior pick to satisfy a later
			// constraint (documented Non-goal, not a SAT solver).
			return true
		}
		for _, sel := range rs.Ordered() {
			for _, prov := range sel.Provides {
				for _, pa := range prov.Atoms {
					if pa.Name == atom.Name {
						return true
					}
				}
			}
		}
	}
	return false
}

// filterRelationArch drops atoms whose arch qualifier excludes the target
// architecture, and drops relations left with zero atoms.
func filterRelationArch(rel types.Relation, arch string) types.Relation {
	var kept []types.Atom
	for _, a := range rel.Atoms {
		if archExcluded(a, arch) {
			continue
		}
		kept = append(kept, a)
	}
	return types.Relation{Atoms: kept}
}

func archExcluded(a types.Atom, arch string) bool {
	for _, ex := range a.ArchExclude {
		if ex == arch {
			return true
		}
	}
	if len(a.ArchInclude) == 0 {
		return false
	}
	for _, inc := range a.ArchInclude {
		if inc == arch {
			return false
		}
	}
	return true
}

// harvestPriorities queues every required/important package in the cache
// that is not yet selected, per spec.md's base-system priority harvest:
// a derivative archive's essential set is pulled in even when no seed
// names it directly.
func (r *Resolver) harvestPriorities(rs *types.ResolutionSet, queue *[]string) {
	seen := make(map[string]bool)
	for name := range r.cache.ByNameSnapshot() {
		for _, p := range r.cache.ByName(name) {
			if p.Priority != types.PriorityRequired && p.Priority != types.PriorityImportant {
				continue
			}
			if rs.Has(p.Name) || seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			*queue = append(*queue, p.Name)
		}
	}
}

// collectAdvisories records Breaks/Conflicts relations that hold between
// two selected packages. These never cause resolution to fail — spec.md
// treats them as warnings surfaced to the operator.
func (r *Resolver) collectAdvisories(rs *types.ResolutionSet) {
	for _, p := range rs.Ordered() {
		for _, rel := range p.Breaks {
			if matchingSelected(rs, rel) != "" {
				rs.Advisories = append(rs.Advisories, types.Advisory{Kind: "breaks", Subject: p.Name, Against: rel})
			}
		}
		for _, rel := range p.Conflicts {
			if matchingSelected(rs, rel) != "" {
				rs.Advisories = append(rs.Advisories, types.Advisory{Kind: "conflicts", Subject: p.Name, Against: rel})
			}
		}
	}
}

func matchingSelected(rs *types.ResolutionSet, rel types.Relation) string {
	for _, atom := range rel.Atoms {
		if _, ok := rs.Selected[atom.Name]; ok {
			return atom.Name
		}
	}
	return ""
}
