package core

import (
	"fmt"

	"athenapt/internal/types"
)

// PlanSources implements component E: it maps a resolved binary closure to
// the source packages that produced those binaries, expands each source's
// Build-Depends/Build-Depends-Indep against the same cache the resolver
// used, and returns a BuildPlan ordered so a source never precedes a
// source it build-depends on (when such an order exists).
func PlanSources(cache *types.Cache, arch string, rs *types.ResolutionSet) (*types.BuildPlan, error) {
	r := NewResolver(cache, arch, nil)

	plan := &types.BuildPlan{}
	seen := make(map[string]bool)

	for _, bin := range rs.Ordered() {
		srcName := bin.Source.Name
		if srcName == "" {
			srcName = bin.Name
		}
		srcVersion := bin.Source.Version
		if srcVersion == "" {
			srcVersion = bin.Version
		}

		if seen[srcName] {
			continue
		}

		src, ok := cache.SourceVersion(srcName, srcVersion)
		if !ok {
			candidates := cache.Source(srcName)
			if len(candidates) == 0 {
				return nil, fmt.Errorf("no source package %q found for binary %q", srcName, bin.Name)
			}
			// Fall back to the newest known source of that name — the
			// binary's exact build version is not present in this
			// archive snapshot (e.g. a security-overlay rebuild).
			best := 0
			for i := 1; i < len(candidates); i++ {
				cmp, err := compareVersions(r.vc, candidates[i].Version, candidates[best].Version)
				if err != nil {
					return nil, err
				}
				if cmp > 0 {
					best = i
				}
			}
			src = candidates[best]
		}

		seen[srcName] = true

		var buildDepNames []string
		for _, rel := range append(append([]types.Relation{}, src.BuildDepends...), src.BuildDependIndep...) {
			rel = filterRelationArch(rel, arch)
			if len(rel.Atoms) == 0 || !rel.Firm() {
				// Alternatives among build-deps are skipped: they are not
				// resolved, not added to BuildDepClosure, and not recorded
				// in any Deferred list.
				continue
			}
			buildDepNames = append(buildDepNames, rel.Atoms[0].Name)
		}

		buildClosure, err := r.Resolve(buildDepNames)
		if err != nil {
			return nil, err
		}

		plan.Entries = append(plan.Entries, &types.BuildEntry{
			Source:          *src,
			BuildDepClosure: buildClosure.Ordered(),
			Status:          types.BuildPending,
		})
	}

	return orderByBuildDeps(plan), nil
}

// orderByBuildDeps performs a stable topological pass over plan's entries:
// an entry moves after any other planned entry its build-deps resolved to,
// breaking cycles by leaving entries in discovery order (the dependency
// graph here is a name-keyed map, not a tree, so cycles are expected and
// not an error).
func orderByBuildDeps(plan *types.BuildPlan) *types.BuildPlan {
	index := make(map[string]int, len(plan.Entries))
	for i, e := range plan.Entries {
		index[e.Source.Name] = i
	}

	visited := make([]bool, len(plan.Entries))
	inStack := make([]bool, len(plan.Entries))
	var ordered []*types.BuildEntry

	var visit func(i int)
	visit = func(i int) {
		if visited[i] || inStack[i] {
			return
		}
		inStack[i] = true
		for _, dep := range plan.Entries[i].BuildDepClosure {
			if j, ok := index[dep.Source.Name]; ok {
				visit(j)
			}
		}
		inStack[i] = false
		visited[i] = true
		ordered = append(ordered, plan.Entries[i])
	}

	for i := range plan.Entries {
		visit(i)
	}

	return &types.BuildPlan{Entries: ordered}
}
