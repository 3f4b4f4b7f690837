package adapters

import (
	"strconv"
	"strings"

	"athenapt/internal/core"
	"athenapt/internal/types"
)

// binaryFromRecord builds a typed BinaryPackage view over a raw Deb822
// stanza from a Packages file, per spec.md §4.3's typed-value-per-kind
// model (never a generic untyped block).
func binaryFromRecord(rec types.Record) types.BinaryPackage {
	p := types.BinaryPackage{
		Name:     rec.GetDefault("Package", ""),
		Version:  rec.GetDefault("Version", ""),
		Arch:     rec.GetDefault("Architecture", ""),
		Priority: types.Priority(rec.GetDefault("Priority", "")),
		Raw:      rec,
	}

	p.Source = parseSourceRef(rec.GetDefault("Source", ""), p.Name, p.Version)

	p.Provides = core.ParseRelationField(rec.GetDefault("Provides", ""))
	p.Depends = core.ParseRelationField(rec.GetDefault("Depends", ""))
	p.PreDepends = core.ParseRelationField(rec.GetDefault("Pre-Depends", ""))
	p.Recommends = core.ParseRelationField(rec.GetDefault("Recommends", ""))
	p.Breaks = core.ParseRelationField(rec.GetDefault("Breaks", ""))
	p.Conflicts = core.ParseRelationField(rec.GetDefault("Conflicts", ""))

	p.Deb.Path = rec.GetDefault("Filename", "")
	if sizeStr, ok := rec.Get("Size"); ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(sizeStr), 10, 64); err == nil {
			p.Deb.Size = n
		}
	}
	p.Deb.MD5 = rec.GetDefault("MD5sum", "")

	return p
}

// parseSourceRef parses a binary's "Source" field, which is either absent
// (source name/version match the binary), just a name, or "name (version)"
// when the source version differs from the binary's own.
func parseSourceRef(raw, binName, binVersion string) types.SourceRef {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.SourceRef{Name: binName, Version: binVersion}
	}
	if i := strings.IndexByte(raw, '('); i >= 0 {
		name := strings.TrimSpace(raw[:i])
		version := strings.TrimSuffix(strings.TrimSpace(raw[i+1:]), ")")
		return types.SourceRef{Name: name, Version: version}
	}
	return types.SourceRef{Name: raw, Version: binVersion}
}

// sourceFromRecord builds a typed SourcePackage view over a raw Deb822
// stanza from a Sources file.
func sourceFromRecord(rec types.Record) types.SourcePackage {
	s := types.SourcePackage{
		Name:      rec.GetDefault("Package", ""),
		Version:   rec.GetDefault("Version", ""),
		Directory: rec.GetDefault("Directory", ""),
		Raw:       rec,
	}

	s.BuildDepends = core.ParseRelationField(rec.GetDefault("Build-Depends", ""))
	s.BuildDependIndep = core.ParseRelationField(rec.GetDefault("Build-Depends-Indep", ""))
	s.BuildConflicts = core.ParseRelationField(rec.GetDefault("Build-Conflicts", ""))

	if filesField, ok := rec.Get("Files"); ok {
		s.Files = parseFilesTable(filesField)
	}

	return s
}

// parseFilesTable parses a Sources stanza's "Files" field, each line
// "md5 size name".
func parseFilesTable(field string) []types.SourceFile {
	var out []types.SourceFile
	for _, line := range strings.Split(field, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 3 {
			continue
		}
		size, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		out = append(out, types.SourceFile{MD5: parts[0], Size: size, Name: parts[2]})
	}
	return out
}
