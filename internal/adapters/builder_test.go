package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"athenapt/internal/types"
)

func buildEntry(name, version string) *types.BuildEntry {
	return &types.BuildEntry{
		Source: types.SourcePackage{Name: name, Version: version, Directory: "pool/main/" + name},
		Status: types.BuildPending,
	}
}

func TestBuilderAdapter_Build_SuccessAndFailureRecorded(t *testing.T) {
	driver := &FakeContainerDriver{
		ExitCodes: map[string]int{"good": 0, "bad": 1},
		Logs:      map[string]string{"good": "building good\ndone\n"},
	}
	b := NewBuilderAdapter(driver, t.TempDir(), t.TempDir(), t.TempDir())

	plan := &types.BuildPlan{Entries: []*types.BuildEntry{buildEntry("good", "1.0"), buildEntry("bad", "1.0")}}
	repo := NewRepositoryAdapter(t.TempDir())

	results, err := b.Build(context.Background(), plan, types.BuildConfig{Image: "athenalinux:build", Parallelism: 2}, t.TempDir(), repo, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byName := map[string]types.BuildStatus{}
	for _, r := range results {
		byName[r.Source.Name] = r.Status
	}
	require.Equal(t, types.BuildSuccess, byName["good"])
	require.Equal(t, types.BuildFailed, byName["bad"])
}

func TestBuilderAdapter_Build_SkipListShortCircuits(t *testing.T) {
	driver := &FakeContainerDriver{}
	b := NewBuilderAdapter(driver, t.TempDir(), t.TempDir(), t.TempDir())

	plan := &types.BuildPlan{Entries: []*types.BuildEntry{buildEntry("blocked", "1.0")}}
	repo := NewRepositoryAdapter(t.TempDir())

	results, err := b.Build(context.Background(), plan, types.BuildConfig{SkipBuild: []string{"blocked"}}, t.TempDir(), repo, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, types.BuildFailed, results[0].Status)
	require.Empty(t, driver.Requests)
}

func TestBuilderAdapter_Build_ContainerAPIErrorIsFatal(t *testing.T) {
	driver := &FakeContainerDriver{
		RunErrors: map[string]error{"broken": errFakeContainerAPI},
	}
	b := NewBuilderAdapter(driver, t.TempDir(), t.TempDir(), t.TempDir())

	plan := &types.BuildPlan{Entries: []*types.BuildEntry{buildEntry("broken", "1.0")}}
	repo := NewRepositoryAdapter(t.TempDir())

	_, err := b.Build(context.Background(), plan, types.BuildConfig{}, t.TempDir(), repo, nil)
	require.Error(t, err)
}

var errFakeContainerAPI = &fakeErr{"docker daemon unreachable"}

type fakeErr struct{ msg string }

func (e *fakeErr) Error() string { return e.msg }
