package adapters

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"athenapt/internal/core"
	"athenapt/internal/ports"
	"athenapt/internal/types"
)

// RepositoryAdapter implements component H: a flat directory of .deb
// artifacts. Membership is decided by ar well-formedness, not merely file
// presence — a truncated or half-written .deb left over from a previous
// crashed build does not count as "already built".
type RepositoryAdapter struct {
	Dir string
}

func NewRepositoryAdapter(dir string) *RepositoryAdapter {
	return &RepositoryAdapter{Dir: dir}
}

func (r *RepositoryAdapter) Has(name, version, arch string) (bool, error) {
	path := filepath.Join(r.Dir, fmt.Sprintf("%s_%s_%s.deb", name, version, arch))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to read repository artifact").WithCause(err)
	}
	return core.CheckDebArchive(data).WellFormed(), nil
}

// Add moves srcPath into the repository, first verifying it is a
// well-formed .deb. The move is an atomic rename within the same
// filesystem, so a reader never observes a partially-written artifact.
func (r *RepositoryAdapter) Add(srcPath string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to read built artifact").WithCause(err)
	}
	report := core.CheckDebArchive(data)
	if !report.WellFormed() {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("built artifact %s is not a well-formed deb: %v", filepath.Base(srcPath), report.Errs))
	}

	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to create repository directory").WithCause(err)
	}

	dest := filepath.Join(r.Dir, filepath.Base(srcPath))
	if err := atomicRename(srcPath, dest); err != nil {
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to deposit artifact into repository").WithCause(err)
	}
	return nil
}

// atomicRename moves src to dst, falling back to a same-directory
// temp-then-rename when src and dst live on different filesystems (rename
// across devices fails with EXDEV).
func atomicRename(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Remove(src)
}

func (r *RepositoryAdapter) List() ([]types.DebFile, error) {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to list repository").WithCause(err)
	}

	var out []types.DebFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(r.Dir, e.Name())
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, types.DebFile{Path: path, Size: info.Size()})
	}
	return out, nil
}

var _ ports.RepositoryPort = (*RepositoryAdapter)(nil)
