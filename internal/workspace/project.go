package workspace

import (
	"encoding/json"
	"fmt"
	"maps"
	"path"
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/libbuilder/internal/packagejson"
)

// Project is a project.json declaration.
type Project struct {
	Name                 string            `json:"name"`
	Root                 string            `json:"root"`
	SourceRoot           string            `json:"sourceRoot,omitempty"`
	ProjectType          string            `json:"projectType,omitempty"`
	Tags                 []string          `json:"tags,omitempty"`
	ImplicitDependencies []string          `json:"implicitDependencies,omitempty"`
	Targets              map[string]Target `json:"targets,omitempty"`

	// Descriptor is the project's own package.json, nil when absent.
	Descriptor packagejson.Descriptor `json:"-"`
}

// Target is one runnable target of a project.
type Target struct {
	Executor             string                    `json:"executor,omitempty"`
	Outputs              []string                  `json:"outputs,omitempty"`
	Options              Options            `json:"options,omitempty"`
	Configurations       map[string]Options `json:"configurations,omitempty"`
	DefaultConfiguration string             `json:"defaultConfiguration,omitempty"`
}

// Options holds target options as undecoded JSON so that nested objects keep
// their declared key order until they reach the typed option struct.
type Options map[string]json.RawMessage

// StringValue returns the string option key, or "" when it is absent or not a string.
func (o Options) StringValue(key string) string {
	raw, ok := o[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// PackageName is the name the project is published under.
func (p *Project) PackageName() string {
	if name := p.Descriptor.Name(); name != "" {
		return name
	}
	return p.Name
}

// TargetOptions merges the base options of target with those of configuration,
// or of the default configuration when configuration is empty.
func (p *Project) TargetOptions(target, configuration string) (Options, error) {
	t, ok := p.Targets[target]
	if !ok {
		return nil, fmt.Errorf("project %q has no target %q", p.Name, target)
	}
	merged := maps.Clone(t.Options)
	if merged == nil {
		merged = make(Options)
	}
	if configuration == "" {
		configuration = t.DefaultConfiguration
	}
	if configuration == "" {
		return merged, nil
	}
	overrides, ok := t.Configurations[configuration]
	if !ok {
		return nil, fmt.Errorf("target %s:%s has no configuration %q", p.Name, target, configuration)
	}
	maps.Copy(merged, overrides)
	return merged, nil
}

// DecodeOptions decodes merged options into out, a pointer to a struct with
// json tags. Option values are passed through verbatim.
func DecodeOptions(options Options, out any) error {
	data, err := json.Marshal(options)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode target options: %w", err)
	}
	return nil
}

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// OutputsForTarget returns the workspace-relative output paths of target with
// {workspaceRoot}, {projectRoot}, {projectName} and {options.<key>} replaced.
// Without declared outputs, options.outputPath is used. Outputs whose
// placeholders cannot be resolved are dropped.
func (p *Project) OutputsForTarget(target, configuration string) []string {
	t, ok := p.Targets[target]
	if !ok {
		return nil
	}
	options, err := p.TargetOptions(target, configuration)
	if err != nil {
		options = t.Options
	}

	declared := t.Outputs
	if len(declared) == 0 {
		if options.StringValue("outputPath") != "" {
			declared = []string{"{options.outputPath}"}
		}
	}

	var outputs []string
	for _, output := range declared {
		resolved, ok := p.interpolate(output, options)
		if !ok || resolved == "" {
			continue
		}
		if !slices.Contains(outputs, resolved) {
			outputs = append(outputs, resolved)
		}
	}
	return outputs
}

func (p *Project) interpolate(output string, options Options) (string, bool) {
	ok := true
	resolved := placeholder.ReplaceAllStringFunc(output, func(m string) string {
		key := m[1 : len(m)-1]
		switch {
		case key == "workspaceRoot":
			return ""
		case key == "projectRoot":
			return p.Root
		case key == "projectName":
			return p.Name
		case strings.HasPrefix(key, "options."):
			if s := options.StringValue(strings.TrimPrefix(key, "options.")); s != "" {
				return s
			}
		}
		ok = false
		return ""
	})
	if !ok {
		return "", false
	}
	resolved = strings.TrimPrefix(path.Clean(strings.TrimPrefix(resolved, "/")), "./")
	return resolved, resolved != "."
}
