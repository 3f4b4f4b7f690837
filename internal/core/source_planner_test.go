package core

import (
	"testing"

	"athenapt/internal/types"
	"github.com/stretchr/testify/require"
)

func TestPlanSources_MapsBinaryClosureToSources(t *testing.T) {
	cache := types.NewCache()
	app := pkg("app", "1.0", "amd64", "libfoo", "")
	app.Source = types.SourceRef{Name: "app-src", Version: "1.0"}
	cache.AddBinary(app)

	libfoo := pkg("libfoo", "2.0", "amd64", "", "")
	libfoo.Source = types.SourceRef{Name: "libfoo-src", Version: "2.0"}
	cache.AddBinary(libfoo)

	cache.AddSource(&types.SourcePackage{
		Name:         "app-src",
		Version:      "1.0",
		BuildDepends: ParseRelationField("build-essential"),
	})
	cache.AddSource(&types.SourcePackage{Name: "libfoo-src", Version: "2.0"})
	cache.AddBinary(pkg("build-essential", "12", "amd64", "", ""))

	rs := types.NewResolutionSet()
	rs.Add(app)
	rs.Add(libfoo)

	plan, err := PlanSources(cache, "amd64", rs)
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)

	entry, ok := plan.Find("app-src")
	require.True(t, ok)
	require.Len(t, entry.BuildDepClosure, 1)
	require.Equal(t, "build-essential", entry.BuildDepClosure[0].Name)
}

func TestPlanSources_MissingSourceErrors(t *testing.T) {
	cache := types.NewCache()
	orphan := pkg("orphan", "1.0", "amd64", "", "")
	cache.AddBinary(orphan)

	rs := types.NewResolutionSet()
	rs.Add(orphan)

	_, err := PlanSources(cache, "amd64", rs)
	require.Error(t, err)
}
