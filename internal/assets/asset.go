package assets

import (
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Asset selects files under Input matching Glob and copies them to Output,
// relative to the handler's output directory.
//
// In configuration an asset is either a path or glob relative to the workspace
// root, or an object {input, glob, output, ignore}.
type Asset struct {
	Input  string   `json:"input"`
	Glob   string   `json:"glob"`
	Output string   `json:"output"`
	Ignore []string `json:"ignore,omitempty"`
}

// FromPattern builds an asset from a path or glob. Matches keep their path
// relative to the pattern's static base.
func FromPattern(pattern string) Asset {
	base, glob := doublestar.SplitPattern(filepath.ToSlash(pattern))
	return Asset{Input: base, Glob: glob, Output: "."}
}

// UnmarshalJSON accepts a string pattern or an object.
func (a *Asset) UnmarshalJSON(data []byte) error {
	var pattern string
	if err := json.Unmarshal(data, &pattern); err == nil {
		*a = FromPattern(pattern)
		return nil
	}
	type plain Asset
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("asset must be a string or {input, glob, output}: %w", err)
	}
	*a = Asset(p)
	if a.Output == "" {
		a.Output = "."
	}
	return nil
}

// Validate checks the glob syntax of a.
func (a Asset) Validate() error {
	if a.Input == "" {
		return fmt.Errorf("asset %q: input is required", a.Glob)
	}
	if a.Glob == "" || !doublestar.ValidatePattern(a.Glob) {
		return fmt.Errorf("asset %q: invalid glob %q", a.Input, a.Glob)
	}
	for _, ig := range a.Ignore {
		if !doublestar.ValidatePattern(ig) {
			return fmt.Errorf("asset %q: invalid ignore pattern %q", a.Input, ig)
		}
	}
	if strings.HasPrefix(path.Clean(filepath.ToSlash(a.Output)), "..") {
		return fmt.Errorf("asset %q: output %q escapes the output directory", a.Input, a.Output)
	}
	return nil
}

// matches reports whether rel (slash separated, relative to Input) is selected.
func (a Asset) matches(rel string) bool {
	ok, err := doublestar.Match(a.Glob, rel)
	if err != nil || !ok {
		return false
	}
	for _, ig := range a.Ignore {
		if hit, _ := doublestar.Match(ig, rel); hit {
			return false
		}
	}
	return true
}
