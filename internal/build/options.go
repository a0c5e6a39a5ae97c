package build

import (
	"path/filepath"

	"git.home.luguber.info/inful/libbuilder/internal/assets"
	"git.home.luguber.info/inful/libbuilder/internal/entrypoints"
	"git.home.luguber.info/inful/libbuilder/internal/packagejson"
)

// Options are the build target options as declared in project.json.
type Options struct {
	Main                                    entrypoints.Set      `json:"main"`
	OutputPath                              string               `json:"outputPath"`
	OutDir                                  string               `json:"outDir,omitempty"`
	TSConfig                                string               `json:"tsConfig,omitempty"`
	Clean                                   bool                 `json:"clean,omitempty"`
	SourceMap                               bool                 `json:"sourceMap,omitempty"`
	Typings                                 bool                 `json:"typings,omitempty"`
	Watch                                   bool                 `json:"watch,omitempty"`
	Assets                                  []assets.Asset       `json:"assets,omitempty"`
	Format                                  []packagejson.Format `json:"format,omitempty"`
	External                                []string             `json:"external,omitempty"`
	DTSResolve                              bool                 `json:"dtsResolve,omitempty"`
	GenerateExportsField                    bool                 `json:"generateExportsField,omitempty"`
	SkipPackageJSONGeneration               bool                 `json:"skipPackageJsonGeneration,omitempty"`
	OutputFileExtensionForCjs               string               `json:"outputFileExtensionForCjs,omitempty"`
	OutputFileExtensionForEsm               string               `json:"outputFileExtensionForEsm,omitempty"`
	UpdateBuildableProjectDepsInPackageJSON bool                 `json:"updateBuildableProjectDepsInPackageJson,omitempty"`
	BuildableProjectDepsInPackageJSONType   string               `json:"buildableProjectDepsInPackageJsonType,omitempty"`
	ExcludeLibsInPackageJSON                bool                 `json:"excludeLibsInPackageJson,omitempty"`
	GenerateLockfile                        bool                 `json:"generateLockfile,omitempty"`
}

// Context describes the project being built.
type Context struct {
	WorkspaceRoot string
	ProjectName   string
	// ProjectRoot is relative to WorkspaceRoot.
	ProjectRoot   string
	TargetName    string
	Configuration string
	Dependencies  []packagejson.Dependency
	Outputs       packagejson.OutputResolver
	// Imports resolves the package names the bundle imports into
	// dependencies. When set, and dependencies are written to package.json,
	// the bundler is asked for a metafile and its imports join Dependencies.
	Imports func(packages []string) []packagejson.Dependency
}

func (c Context) projectDir() string {
	if filepath.IsAbs(c.ProjectRoot) {
		return c.ProjectRoot
	}
	return filepath.Join(c.WorkspaceRoot, c.ProjectRoot)
}

func (c Context) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.WorkspaceRoot, p)
}

// resolved holds the absolute paths of a build.
type resolved struct {
	entries    entrypoints.Set
	outputPath string
	bundleDir  string
	tsconfig   string
	metafile   bool
}

func (o Options) resolve(c Context) resolved {
	outputPath := c.abs(o.OutputPath)
	r := resolved{
		entries:    o.Main.Resolve(c.WorkspaceRoot, c.projectDir()),
		outputPath: outputPath,
		bundleDir:  filepath.Join(outputPath, filepath.FromSlash(o.OutDir)),
		metafile:   c.Imports != nil && o.UpdateBuildableProjectDepsInPackageJSON && !o.SkipPackageJSONGeneration,
	}
	if o.TSConfig != "" {
		r.tsconfig = c.abs(o.TSConfig)
	}
	return r
}

// SynthesizeOptions maps the package.json related options onto the inputs of
// packagejson.Synthesize for a descriptor written to outputPath.
func (o Options) SynthesizeOptions(bc Context, outputPath string) packagejson.SynthesizeOptions {
	return packagejson.SynthesizeOptions{
		WorkspaceRoot: bc.WorkspaceRoot,
		ProjectRoot:   bc.ProjectRoot,
		ProjectName:   bc.ProjectName,
		OutputPath:    outputPath,
		Update: packagejson.UpdateOptions{
			Entries:                   o.Main,
			OutDir:                    o.OutDir,
			Formats:                   o.Format,
			OutputFileExtensionForCjs: o.OutputFileExtensionForCjs,
			OutputFileExtensionForEsm: o.OutputFileExtensionForEsm,
			Typings:                   o.Typings,
			GenerateExportsField:      o.GenerateExportsField,
		},
		UpdateBuildableProjectDeps: o.UpdateBuildableProjectDepsInPackageJSON,
		DependencyField:            o.BuildableProjectDepsInPackageJSONType,
		ExcludeLibs:                o.ExcludeLibsInPackageJSON,
		Dependencies:               bc.Dependencies,
		Outputs:                    bc.Outputs,
		GenerateLockfile:           o.GenerateLockfile,
	}
}

// Validate reports option errors a build would reject before running.
func (o Options) Validate() error { return validate(o) }
