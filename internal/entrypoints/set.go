package entrypoints

import (
	"errors"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// ErrNoPrimaryEntry is returned when an entry set has no entry to map to ".".
var ErrNoPrimaryEntry = errors.New("entry point set has no primary entry")

// PrimaryNames lists the mapping keys that designate the primary entry, in priority order.
// When none is present the positionally first key is primary.
var PrimaryNames = []string{"index", "main", "src/index", "src/main"}

var sourceExt = regexp.MustCompile(`\.[mc]?[tj]s$`)

// Kind discriminates the three shapes an entry set can take.
type Kind int

const (
	KindNone Kind = iota
	KindSingle
	KindList
	KindNamed
)

// Entry is one entry point with the output name it is emitted under.
type Entry struct {
	Name string
	Path string
}

// Set is an entry point set. The zero value is empty.
type Set struct {
	kind  Kind
	paths []string          // single (len 1) or list
	keys  []string          // named, in declaration order
	named map[string]string // named
}

// Single returns a set with one entry.
func Single(p string) Set {
	return Set{kind: KindSingle, paths: []string{p}}
}

// List returns an ordered set of entries.
func List(paths ...string) Set {
	return Set{kind: KindList, paths: slices.Clone(paths)}
}

// NamedOrdered returns a mapping set whose positional order is keys.
func NamedOrdered(keys []string, m map[string]string) Set {
	named := make(map[string]string, len(m))
	ordered := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if _, dup := named[k]; !dup {
				ordered = append(ordered, k)
			}
			named[k] = v
		}
	}
	return Set{kind: KindNamed, keys: ordered, named: named}
}

// Kind returns the shape of the set.
func (s Set) Kind() Kind { return s.kind }

// Len returns the number of entries.
func (s Set) Len() int {
	if s.kind == KindNamed {
		return len(s.keys)
	}
	return len(s.paths)
}

// IsZero reports whether the set has no entries.
func (s Set) IsZero() bool { return s.Len() == 0 }

// Paths returns the entry paths in positional order.
func (s Set) Paths() []string {
	if s.kind == KindNamed {
		out := make([]string, 0, len(s.keys))
		for _, k := range s.keys {
			out = append(out, s.named[k])
		}
		return out
	}
	return slices.Clone(s.paths)
}

// NamedEntries returns a copy of the name to path mapping and its key order, for named sets.
func (s Set) NamedEntries() ([]string, map[string]string) {
	m := make(map[string]string, len(s.named))
	for k, v := range s.named {
		m[k] = v
	}
	return slices.Clone(s.keys), m
}

// Primary resolves the entry mapped to the package root export.
//
// Priority: for a single path, that path; for a list, the first element; for a
// mapping, the first of the keys in PrimaryNames that is present, otherwise the
// positionally first key. An empty set has no primary entry.
func Primary(s Set) (Entry, error) {
	switch s.kind {
	case KindSingle, KindList:
		if len(s.paths) == 0 || strings.TrimSpace(s.paths[0]) == "" {
			return Entry{}, ErrNoPrimaryEntry
		}
		return Entry{Name: BaseName(s.paths[0]), Path: s.paths[0]}, nil
	case KindNamed:
		for _, name := range PrimaryNames {
			if p, ok := s.named[name]; ok && p != "" {
				return Entry{Name: name, Path: p}, nil
			}
		}
		if len(s.keys) > 0 && s.named[s.keys[0]] != "" {
			return Entry{Name: s.keys[0], Path: s.named[s.keys[0]]}, nil
		}
	}
	return Entry{}, ErrNoPrimaryEntry
}

// Secondary returns every non-primary entry in positional order. List entries are
// named by their base file name; mapping entries by their key. Mapping entries
// pointing at the primary path are skipped.
func Secondary(s Set) []Entry {
	primary, err := Primary(s)
	if err != nil {
		return nil
	}
	var out []Entry
	switch s.kind {
	case KindList:
		for _, p := range s.paths[1:] {
			out = append(out, Entry{Name: BaseName(p), Path: p})
		}
	case KindNamed:
		for _, k := range s.keys {
			if k == primary.Name || s.named[k] == primary.Path {
				continue
			}
			out = append(out, Entry{Name: k, Path: s.named[k]})
		}
	}
	return out
}

// BaseName strips the directory and any .ts/.js/.mts/.mjs/.cts/.cjs extension.
func BaseName(p string) string {
	return sourceExt.ReplaceAllString(path.Base(filepath.ToSlash(p)), "")
}

// Map returns a set of the same shape with fn applied to every path.
func (s Set) Map(fn func(string) string) Set {
	out := Set{kind: s.kind}
	switch s.kind {
	case KindNamed:
		out.keys = slices.Clone(s.keys)
		out.named = make(map[string]string, len(s.named))
		for k, v := range s.named {
			out.named[k] = fn(v)
		}
	default:
		out.paths = make([]string, len(s.paths))
		for i, p := range s.paths {
			out.paths[i] = fn(p)
		}
	}
	return out
}

// Resolve makes every entry absolute. Entries starting with "." resolve against
// projectRoot; other relative entries resolve against workspaceRoot.
func (s Set) Resolve(workspaceRoot, projectRoot string) Set {
	return s.Map(func(p string) string {
		switch {
		case filepath.IsAbs(p):
			return filepath.Clean(p)
		case strings.HasPrefix(p, "."):
			return filepath.Join(projectRoot, p)
		default:
			return filepath.Join(workspaceRoot, p)
		}
	})
}
