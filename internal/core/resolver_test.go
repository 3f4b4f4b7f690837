package core

import (
	"fmt"
	"testing"

	"athenapt/internal/types"
	"github.com/stretchr/testify/require"
)

func pkg(name, version, arch string, depends string, provides string) *types.BinaryPackage {
	return &types.BinaryPackage{
		Name:     name,
		Version:  version,
		Arch:     arch,
		Priority: types.PriorityOptional,
		Depends:  ParseRelationField(depends),
		Provides: ParseRelationField(provides),
	}
}

func TestResolve_FirmChainClosure(t *testing.T) {
	cache := types.NewCache()
	cache.AddBinary(pkg("app", "1.0", "amd64", "libfoo (>= 1.0)", ""))
	cache.AddBinary(pkg("libfoo", "1.2", "amd64", "libbar", ""))
	cache.AddBinary(pkg("libbar", "0.9", "amd64", "", ""))

	r := NewResolver(cache, "amd64", nil)
	rs, err := r.Resolve([]string{"app"})
	require.NoError(t, err)

	require.True(t, rs.Has("app"))
	require.True(t, rs.Has("libfoo"))
	require.True(t, rs.Has("libbar"))
	require.Empty(t, rs.Violations)
}

// fakePrompter is a deterministic ports.PrompterPort double: it always
// answers with a fixed choice (if it appears among the offered options)
// and records every question it was asked.
type fakePrompter struct {
	answer string
	asked  []string
}

func (p *fakePrompter) Choose(prompt string, options []string) (string, error) {
	p.asked = append(p.asked, prompt)
	for _, o := range options {
		if o == p.answer {
			return o, nil
		}
	}
	return "", fmt.Errorf("fakePrompter: %q not among offered options %v", p.answer, options)
}

func TestResolve_VirtualProviderSelection(t *testing.T) {
	cache := types.NewCache()
	cache.AddBinary(pkg("script-runner", "1.0", "amd64", "awk", ""))
	cache.AddBinary(pkg("mawk", "1.3.4", "amd64", "", "awk"))
	cache.AddBinary(pkg("gawk", "5.1.0", "amd64", "", "awk"))

	prompter := &fakePrompter{answer: "gawk"}
	r := NewResolver(cache, "amd64", prompter)
	rs, err := r.Resolve([]string{"script-runner"})
	require.NoError(t, err)

	require.True(t, rs.Has("script-runner"))
	require.True(t, rs.Has("gawk"))
	require.False(t, rs.Has("mawk"))
	require.Len(t, prompter.asked, 1)
}

func TestResolve_MultipleVirtualProvidersFailWithoutPrompter(t *testing.T) {
	cache := types.NewCache()
	cache.AddBinary(pkg("script-runner", "1.0", "amd64", "awk", ""))
	cache.AddBinary(pkg("mawk", "1.3.4", "amd64", "", "awk"))
	cache.AddBinary(pkg("gawk", "5.1.0", "amd64", "", "awk"))

	r := NewResolver(cache, "amd64", nil)
	rs, err := r.Resolve([]string{"script-runner"})
	require.NoError(t, err)

	require.True(t, rs.Has("script-runner"))
	require.False(t, rs.Has("mawk"))
	require.False(t, rs.Has("gawk"))
	require.Len(t, rs.Violations, 1)
}

func TestResolve_TiedDirectVersionsPrompt(t *testing.T) {
	cache := types.NewCache()
	cache.AddBinary(pkg("app", "1.0", "amd64", "libfoo", ""))
	first := pkg("libfoo", "1.2", "amd64", "", "")
	second := pkg("libfoo", "1.2", "amd64", "", "")
	second.Arch = "i386"
	cache.AddBinary(first)
	cache.AddBinary(second)

	prompter := &fakePrompter{answer: "1.2"}
	r := NewResolver(cache, "amd64", prompter)
	rs, err := r.Resolve([]string{"app"})
	require.NoError(t, err)

	require.True(t, rs.Has("libfoo"))
	require.Len(t, prompter.asked, 1)
}

func TestResolve_AlternativeSatisfiedByPriorSelection(t *testing.T) {
	cache := types.NewCache()
	cache.AddBinary(pkg("toolchain", "1.0", "amd64", "gcc-12", ""))
	cache.AddBinary(pkg("app", "1.0", "amd64", "gcc-12 | gcc-11", ""))
	cache.AddBinary(pkg("gcc-12", "12.2.0", "amd64", "", ""))
	cache.AddBinary(pkg("gcc-11", "11.4.0", "amd64", "", ""))

	r := NewResolver(cache, "amd64", nil)
	rs, err := r.Resolve([]string{"toolchain", "app"})
	require.NoError(t, err)

	require.True(t, rs.Has("gcc-12"))
	require.False(t, rs.Has("gcc-11"))
}

func TestResolve_VersionConstraintUnsatisfiable(t *testing.T) {
	cache := types.NewCache()
	cache.AddBinary(pkg("app", "1.0", "amd64", "libfoo (>= 2.0)", ""))
	cache.AddBinary(pkg("libfoo", "1.2", "amd64", "", ""))

	r := NewResolver(cache, "amd64", nil)
	rs, err := r.Resolve([]string{"app"})
	require.NoError(t, err)

	require.True(t, rs.Has("app"))
	require.False(t, rs.Has("libfoo"))
	require.Len(t, rs.Violations, 1)
	require.Equal(t, "libfoo", rs.Violations[0].Atom.Name)
}

func TestResolve_PriorityHarvestPullsRequiredPackages(t *testing.T) {
	cache := types.NewCache()
	cache.AddBinary(pkg("app", "1.0", "amd64", "", ""))
	base := pkg("base-files", "12", "amd64", "", "")
	base.Priority = types.PriorityRequired
	cache.AddBinary(base)

	r := NewResolver(cache, "amd64", nil)
	rs, err := r.Resolve([]string{"app"})
	require.NoError(t, err)

	require.True(t, rs.Has("base-files"))
}
