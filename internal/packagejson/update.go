package packagejson

import (
	"fmt"
	"slices"

	"git.home.luguber.info/inful/libbuilder/internal/entrypoints"
)

// Format is a bundler output module format.
type Format string

const (
	FormatCJS Format = "cjs"
	FormatESM Format = "esm"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCJS, FormatESM:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected cjs or esm)", s)
	}
}

// UpdateOptions are the inputs of Update.
type UpdateOptions struct {
	Entries entrypoints.Set
	OutDir  string
	// Formats defaults to cjs when empty.
	Formats []Format
	// OutputFileExtensionForCjs and OutputFileExtensionForEsm override the
	// bundler's default extensions.
	OutputFileExtensionForCjs string
	OutputFileExtensionForEsm string
	// SourceType is the "type" of the project's own package.json, which decides
	// the bundler's default extensions. Empty means commonjs; the descriptor's
	// own "type" is never consulted because Update rewrites it.
	SourceType           string
	Typings              bool
	GenerateExportsField bool
}

// HasFormat reports whether f is requested.
func (o UpdateOptions) HasFormat(f Format) bool {
	if len(o.Formats) == 0 {
		return f == FormatCJS
	}
	return slices.Contains(o.Formats, f)
}

// EsmExtension returns the ESM output extension for the given package type.
func (o UpdateOptions) EsmExtension(packageType string) string {
	if o.OutputFileExtensionForEsm != "" {
		return o.OutputFileExtensionForEsm
	}
	if packageType == "module" {
		return ".js"
	}
	return ".mjs"
}

// CjsExtension returns the CJS output extension for the given package type.
// Bundlers like tsup emit .cjs next to .js ESM output in "module" packages.
func (o UpdateOptions) CjsExtension(packageType string) string {
	if o.OutputFileExtensionForCjs != "" {
		return o.OutputFileExtensionForCjs
	}
	if packageType == "module" {
		return ".cjs"
	}
	return ".js"
}

// Update merges the build outputs described by opts into d and returns d.
//
// With a single format, "type" becomes "module" (esm) or "commonjs" (cjs) and
// "types" comes from that format. With both, "type" is left as is and "types"
// comes from the ESM build. "main" is the CJS primary output and "module" the
// ESM one. When GenerateExportsField is set the format export maps are merged
// into "exports" next to a fixed "./package.json" subpath; existing condition
// keys of other formats are kept. Applying the same options twice is a no-op.
func Update(d Descriptor, opts UpdateOptions) (Descriptor, error) {
	if d == nil {
		d = Descriptor{}
	}
	hasCjs := opts.HasFormat(FormatCJS)
	hasEsm := opts.HasFormat(FormatESM)

	packageType := opts.SourceType

	var exports map[string]any
	if opts.GenerateExportsField {
		exports = cloneExportsField(d["exports"])
		exports["./package.json"] = "./package.json"
		d["exports"] = exports
	}

	if hasEsm {
		esm, err := BuildExports(ExportOptions{
			Entries: opts.Entries,
			OutDir:  opts.OutDir,
			FileExt: opts.EsmExtension(packageType),
			Typings: opts.Typings,
		}, ConditionImport)
		if err != nil {
			return nil, err
		}
		root := esm["."][ConditionImport]
		d["module"] = root.Default
		d.setOrDelete("types", root.Types)
		if !hasCjs {
			d["type"] = "module"
		}
		if exports != nil {
			mergeExports(exports, esm)
		}
	}

	if hasCjs {
		cjs, err := BuildExports(ExportOptions{
			Entries: opts.Entries,
			OutDir:  opts.OutDir,
			FileExt: opts.CjsExtension(packageType),
			Typings: opts.Typings,
		}, ConditionRequire)
		if err != nil {
			return nil, err
		}
		root := cjs["."][ConditionRequire]
		d["main"] = root.Default
		if !hasEsm {
			d["type"] = "commonjs"
			d.setOrDelete("types", root.Types)
		}
		if exports != nil {
			mergeExports(exports, cjs)
		}
	}

	return d, nil
}

// cloneExportsField copies an existing exports object one level deep. A string
// exports value cannot hold subpaths and is dropped.
func cloneExportsField(v any) map[string]any {
	out := make(map[string]any)
	existing, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, val := range existing {
		if m, ok := val.(map[string]any); ok {
			cp := make(map[string]any, len(m))
			for ck, cv := range m {
				cp[ck] = cv
			}
			out[k] = cp
			continue
		}
		out[k] = val
	}
	return out
}

func mergeExports(dst map[string]any, src Exports) {
	for subpath, conds := range src {
		node, ok := dst[subpath].(map[string]any)
		if !ok {
			node = make(map[string]any, len(conds))
			dst[subpath] = node
		}
		for cond, target := range conds {
			node[string(cond)] = target.value()
		}
	}
}
