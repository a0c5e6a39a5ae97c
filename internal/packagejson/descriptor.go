package packagejson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the package descriptor file name.
const FileName = "package.json"

// Dependency field names.
const (
	FieldDependencies     = "dependencies"
	FieldDevDependencies  = "devDependencies"
	FieldPeerDependencies = "peerDependencies"
)

// Descriptor is a decoded package.json. Unknown fields are kept as decoded.
type Descriptor map[string]any

// Read decodes the descriptor at path.
func Read(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if d == nil {
		d = Descriptor{}
	}
	return d, nil
}

// Write encodes d with two-space indentation and a trailing newline, creating parent directories.
func Write(path string, d Descriptor) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	return WriteFile(path, data, 0o644)
}

// WriteFile replaces path with data by writing a temporary file in the same
// directory and renaming it into place. A failed write leaves path untouched.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpPath, perm)
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Marshal encodes d the way Write does.
func Marshal(d Descriptor) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode package.json: %w", err)
	}
	return buf.Bytes(), nil
}

// String returns the string value of key, or "".
func (d Descriptor) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Name returns the package name.
func (d Descriptor) Name() string { return d.String("name") }

// Version returns the package version.
func (d Descriptor) Version() string { return d.String("version") }

// Deps returns the string map stored under field (dependencies, devDependencies, ...).
// Non-string values are skipped.
func (d Descriptor) Deps(field string) map[string]string {
	raw, ok := d[field].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// HasDependency reports whether name is declared in any of dependencies,
// devDependencies or peerDependencies.
func (d Descriptor) HasDependency(name string) bool {
	for _, field := range []string{FieldDependencies, FieldDevDependencies, FieldPeerDependencies} {
		if raw, ok := d[field].(map[string]any); ok {
			if v, ok := raw[name]; ok && v != nil && v != "" {
				return true
			}
		}
	}
	return false
}

// SetDependency sets field[name] = version, creating the field when absent.
func (d Descriptor) SetDependency(field, name, version string) {
	raw, ok := d[field].(map[string]any)
	if !ok {
		raw = make(map[string]any)
		d[field] = raw
	}
	raw[name] = version
}

// setOrDelete stores value under key, removing the key when value is empty.
func (d Descriptor) setOrDelete(key, value string) {
	if value == "" {
		delete(d, key)
		return
	}
	d[key] = value
}
