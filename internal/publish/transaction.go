package publish

import (
	"fmt"
	"os"
	"slices"

	"git.home.luguber.info/inful/libbuilder/internal/packagejson"
)

// workspaceTx rewrites the workspace member list of the root package.json and
// restores the original file byte for byte on Rollback.
type workspaceTx struct {
	path     string
	original []byte
	mode     os.FileMode
}

// beginWorkspaceTx makes outputPath the first workspace member and drops
// projectRoot from the list. Both the array and the {packages: [...]} shapes
// are supported; a missing field becomes an array.
func beginWorkspaceTx(path, outputPath, projectRoot string) (*workspaceTx, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	original, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := packagejson.Read(path)
	if err != nil {
		return nil, err
	}

	switch ws := d["workspaces"].(type) {
	case nil:
		d["workspaces"] = []any{outputPath}
	case []any:
		d["workspaces"] = rewriteMembers(ws, outputPath, projectRoot)
	case map[string]any:
		packages, _ := ws["packages"].([]any)
		ws["packages"] = rewriteMembers(packages, outputPath, projectRoot)
	default:
		return nil, fmt.Errorf("%s: unsupported \"workspaces\" value of type %T", path, ws)
	}

	data, err := packagejson.Marshal(d)
	if err != nil {
		return nil, err
	}
	mode := info.Mode().Perm()
	if err := packagejson.WriteFile(path, data, mode); err != nil {
		return nil, err
	}
	return &workspaceTx{path: path, original: original, mode: mode}, nil
}

func rewriteMembers(members []any, outputPath, projectRoot string) []any {
	out := make([]any, 0, len(members)+1)
	out = append(out, outputPath)
	for _, m := range members {
		if s, ok := m.(string); ok && (s == projectRoot || s == outputPath) {
			continue
		}
		out = append(out, m)
	}
	return slices.Clip(out)
}

// Rollback restores the original root package.json.
func (tx *workspaceTx) Rollback() error {
	return packagejson.WriteFile(tx.path, tx.original, tx.mode)
}
