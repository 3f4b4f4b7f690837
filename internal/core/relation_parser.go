package core

import (
	"strings"

	"athenapt/internal/types"
)

// opTokens lists version-operator tokens in longest-match-first order so
// that e.g. "<=" is never mistaken for a lone "<".
var opTokens = []struct {
	token string
	op    types.ConstraintOp
}{
	{"<<", types.ConstraintOpLt},
	{"<=", types.ConstraintOpLe},
	{">=", types.ConstraintOpGe},
	{">>", types.ConstraintOpGt},
	{"=", types.ConstraintOpEq},
}

// ParseRelationField parses the value of a Depends/Pre-Depends/Provides/
// Breaks/Conflicts/Build-Depends-style field into its comma-separated
// Relations, each itself a "|"-separated disjunction of Atoms.
func ParseRelationField(raw string) []types.Relation {
	var out []types.Relation
	for _, clause := range splitTop(raw, ',') {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		var atoms []types.Atom
		for _, alt := range splitTop(clause, '|') {
			alt = strings.TrimSpace(alt)
			if alt == "" {
				continue
			}
			if a, ok := parseAtom(alt); ok {
				atoms = append(atoms, a)
			}
		}
		if len(atoms) > 0 {
			out = append(out, types.Relation{Atoms: atoms})
		}
	}
	return out
}

// splitTop splits on sep outside of "(...)" and "[...]" groups, since
// version constraints and arch qualifiers may themselves be free of the
// separator but we don't want to split inside them regardless.
func splitTop(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if s[i] == sep && depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// parseAtom parses a single relation term: "name", "name (op version)",
// "name:arch", and "name [arch-list]" in any combination.
func parseAtom(s string) (types.Atom, bool) {
	var a types.Atom

	s = strings.TrimSpace(s)

	if i := strings.IndexByte(s, '['); i >= 0 {
		j := strings.IndexByte(s[i:], ']')
		if j >= 0 {
			archList := s[i+1 : i+j]
			s = strings.TrimSpace(s[:i] + s[i+j+1:])
			for _, tok := range strings.Fields(archList) {
				if strings.HasPrefix(tok, "!") {
					a.ArchExclude = append(a.ArchExclude, strings.TrimPrefix(tok, "!"))
				} else {
					a.ArchInclude = append(a.ArchInclude, tok)
				}
			}
		}
	}

	if i := strings.IndexByte(s, '('); i >= 0 {
		j := strings.IndexByte(s[i:], ')')
		if j >= 0 {
			constraint := strings.TrimSpace(s[i+1 : i+j])
			s = strings.TrimSpace(s[:i] + s[i+j+1:])
			op, ver, ok := parseConstraint(constraint)
			if ok {
				a.Op = op
				a.Version = ver
			}
		}
	}

	s = strings.TrimSpace(s)
	if name, archQ, ok := strings.Cut(s, ":"); ok && archQ != "" {
		// Every ":arch" qualifier, concrete or ":any", is stripped — a
		// single-architecture closure has no use for multi-arch
		// annotations (spec.md §4.1).
		s = name
	}

	a.Name = strings.TrimSpace(s)
	if a.Name == "" {
		return types.Atom{}, false
	}
	return a, true
}

// parseConstraint parses "op version", e.g. ">= 1.2.3".
func parseConstraint(s string) (types.ConstraintOp, string, bool) {
	s = strings.TrimSpace(s)
	for _, ot := range opTokens {
		if strings.HasPrefix(s, ot.token) {
			ver := strings.TrimSpace(strings.TrimPrefix(s, ot.token))
			if ver == "" {
				return types.ConstraintOpNone, "", false
			}
			return ot.op, ver, true
		}
	}
	return types.ConstraintOpNone, "", false
}
